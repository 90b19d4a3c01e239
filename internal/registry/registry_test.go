package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignIsStableAndDense(t *testing.T) {
	r := New()

	assert.Equal(t, int64(1), r.Assign("000", "a.plt"))
	assert.Equal(t, int64(2), r.Assign("000", "b.plt"))
	assert.Equal(t, int64(3), r.Assign("001", "a.plt"))
	assert.Equal(t, int64(2), r.Assign("000", "b.plt"))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int64(4), r.Next())
}

func TestAssignIsInjective(t *testing.T) {
	r := New()
	seen := make(map[int64]Key)
	for _, user := range []string{"000", "001", "002"} {
		for _, file := range []string{"a.plt", "b.plt", "c.plt", "d.plt"} {
			id := r.Assign(user, file)
			_, dup := seen[id]
			require.False(t, dup, "id %d reused", id)
			seen[id] = Key{UserID: user, File: file}
		}
	}
	assert.Len(t, seen, 12)
}

func TestLookup(t *testing.T) {
	r := New()
	id := r.Assign("010", "x.plt")

	got, err := r.Lookup("010", "x.plt")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = r.Lookup("010", "y.plt")
	assert.ErrorIs(t, err, ErrUnknownActivityKey)
}

func TestJSONRoundTripPreservesCounter(t *testing.T) {
	r := New()
	r.Assign("000", "a.plt")
	r.Assign("000", "b.plt")

	data, err := json.Marshal(r)
	require.NoError(t, err)

	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, r.Entries(), restored.Entries())
	assert.Equal(t, int64(3), restored.Assign("001", "a.plt"))
}

func TestUnmarshalRejectsInconsistentSnapshot(t *testing.T) {
	for name, doc := range map[string]string{
		"zero counter":  `{"next":0,"activities":[]}`,
		"id past next":  `{"next":2,"activities":[{"user_id":"0","file":"a","id":2}]}`,
		"duplicate id":  `{"next":3,"activities":[{"user_id":"0","file":"a","id":1},{"user_id":"0","file":"b","id":1}]}`,
		"duplicate key": `{"next":3,"activities":[{"user_id":"0","file":"a","id":1},{"user_id":"0","file":"a","id":2}]}`,
		"not an object": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, json.Unmarshal([]byte(doc), New()))
		})
	}
}

func TestStores(t *testing.T) {
	for _, name := range []string{"activity_ids.json", "activity_ids.db"} {
		t.Run(name, func(t *testing.T) {
			store, err := NewStore(filepath.Join(t.TempDir(), "nested", name))
			require.NoError(t, err)
			defer store.Close()

			_, err = store.Load()
			require.ErrorIs(t, err, ErrNoSnapshot)

			r := New()
			r.Assign("000", "a.plt")
			r.Assign("001", "b.plt")
			require.NoError(t, store.Save(r))

			// A second save replaces the first.
			r.Assign("002", "c.plt")
			require.NoError(t, store.Save(r))

			loaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, r.Entries(), loaded.Entries())
			assert.Equal(t, r.Next(), loaded.Next())
		})
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "activity_ids.json"))
	require.NoError(t, store.Save(New()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "activity_ids.json", entries[0].Name())
}
