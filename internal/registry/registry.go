// Package registry assigns stable activity ids to (user, file) pairs and
// carries them from the activity pass to the trackpoint pass.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownActivityKey is returned by Lookup for a key that was never assigned.
// During trackpoint ingestion it means the snapshot and the dataset disagree.
var ErrUnknownActivityKey = errors.New("unknown activity key")

// Key identifies a trajectory file of a user
type Key struct {
	UserID string `json:"user_id"`
	File   string `json:"file"`
}

func (k Key) String() string {
	return k.UserID + "/" + k.File
}

// Entry is one assigned id
type Entry struct {
	Key
	ID int64 `json:"id"`
}

// Registry owns the activity id counter and the key to id table
type Registry struct {
	next int64
	ids  map[Key]int64
}

// New returns an empty registry whose first id is 1
func New() *Registry {
	return &Registry{next: 1, ids: make(map[Key]int64)}
}

// Assign returns the id of (userID, file), allocating the next id on first use
func (r *Registry) Assign(userID, file string) int64 {
	key := Key{UserID: userID, File: file}
	if id, ok := r.ids[key]; ok {
		return id
	}
	id := r.next
	r.next++
	r.ids[key] = id
	return id
}

// Lookup returns the id previously assigned to (userID, file)
func (r *Registry) Lookup(userID, file string) (int64, error) {
	key := Key{UserID: userID, File: file}
	id, ok := r.ids[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownActivityKey, key)
	}
	return id, nil
}

// Len returns the number of assigned ids
func (r *Registry) Len() int {
	return len(r.ids)
}

// Next returns the id the next Assign of a new key will return
func (r *Registry) Next() int64 {
	return r.next
}

// Entries returns all assignments ordered by id
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.ids))
	for k, id := range r.ids {
		entries = append(entries, Entry{Key: k, ID: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// snapshot is the serialized form of a Registry
type snapshot struct {
	Next       int64   `json:"next"`
	Activities []Entry `json:"activities"`
}

// MarshalJSON implements json.Marshaler
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{Next: r.next, Activities: r.Entries()})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Registry) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode registry: %w", err)
	}
	restored, err := restore(s.Next, s.Activities)
	if err != nil {
		return err
	}
	*r = *restored
	return nil
}

// restore rebuilds a registry and checks it is consistent
func restore(next int64, entries []Entry) (*Registry, error) {
	if next < 1 {
		return nil, fmt.Errorf("invalid registry counter %d", next)
	}
	r := &Registry{next: next, ids: make(map[Key]int64, len(entries))}
	seen := make(map[int64]Key, len(entries))
	for _, e := range entries {
		if e.ID < 1 || e.ID >= next {
			return nil, fmt.Errorf("activity id %d of %s outside [1, %d)", e.ID, e.Key, next)
		}
		if _, dup := r.ids[e.Key]; dup {
			return nil, fmt.Errorf("duplicate registry key %s", e.Key)
		}
		if other, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("activity id %d assigned to both %s and %s", e.ID, other, e.Key)
		}
		r.ids[e.Key] = e.ID
		seen[e.ID] = e.Key
	}
	return r, nil
}
