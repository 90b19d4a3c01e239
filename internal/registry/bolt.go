package registry

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	metaBucket       = []byte("meta")
	activitiesBucket = []byte("activities")
	nextKey          = []byte("next")
)

// BoltStore keeps the registry in a bbolt file. Each key is stored under
// "user_id/file" with its id as a big-endian uint64.
type BoltStore struct {
	path string
	db   *bbolt.DB
}

// OpenBoltStore opens or creates the bbolt file at path
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry store: %w", err)
	}
	return &BoltStore{path: path, db: db}, nil
}

// Path returns the snapshot location
func (s *BoltStore) Path() string {
	return s.path
}

// Save replaces the stored snapshot in a single transaction
func (s *BoltStore) Save(r *Registry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{metaBucket, activitiesBucket} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}
		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		if err := meta.Put(nextKey, itob(r.Next())); err != nil {
			return err
		}

		acts, err := tx.CreateBucket(activitiesBucket)
		if err != nil {
			return err
		}
		for _, e := range r.Entries() {
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			if err := acts.Put(k, itob(e.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the snapshot back
func (s *BoltStore) Load() (*Registry, error) {
	var (
		next    int64
		entries []Entry
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return fmt.Errorf("%w at %s", ErrNoSnapshot, s.path)
		}
		v := meta.Get(nextKey)
		if len(v) != 8 {
			return fmt.Errorf("corrupt registry counter in %s", s.path)
		}
		next = btoi(v)

		acts := tx.Bucket(activitiesBucket)
		if acts == nil {
			return nil
		}
		return acts.ForEach(func(k, v []byte) error {
			var key Key
			if err := json.Unmarshal(k, &key); err != nil {
				return fmt.Errorf("corrupt registry key %q: %w", k, err)
			}
			if len(v) != 8 {
				return fmt.Errorf("corrupt registry id for %s", key)
			}
			entries = append(entries, Entry{Key: key, ID: btoi(v)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return restore(next, entries)
}

// Close releases the file lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
