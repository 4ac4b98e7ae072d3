package aspyre

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// ErrImmutableField is returned when a reserved slot is assigned or deleted.
var ErrImmutableField = errors.New("field is reserved and cannot be modified")

// ErrReadOnly is returned when a mutation is attempted through a read-only view.
var ErrReadOnly = errors.New("store view is read-only")

// historyKey is the reserved slot name, compared in normalized form.
const historyKey = "history"

// normalizeKey reduces a key to its lowercase letters. Keys that reduce to
// the same letter sequence refer to the same slot, so "Content-Type" and
// "contenttype" are interchangeable.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// slot holds one stored value along with the key spelling it was first
// assigned under. Lookup goes by normalized form; the original spelling is
// kept for presentation (outbound headers in particular).
type slot struct {
	key   string
	value any
}

// snapshot is an immutable copy of a store's live state, recorded by Save.
type snapshot map[string]slot

// Store is the mutable key-value record threaded through a request's handler
// chain. Keys are matched by normalized form (see normalizeKey). Save records
// an immutable snapshot of the live state into an append-only history arena;
// Rollback replaces the live state with a recorded snapshot.
//
// A Store is owned by a single request's pipeline execution and is not safe
// for concurrent use.
type Store struct {
	data    map[string]slot
	history []snapshot
}

// NewStore creates an empty store with no history.
func NewStore() *Store {
	return &Store{data: make(map[string]slot)}
}

// Get returns the value for key, or nil when absent.
func (s *Store) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it is present.
func (s *Store) Lookup(key string) (any, bool) {
	k := normalizeKey(key)
	if k == historyKey {
		return nil, false
	}
	sl, ok := s.data[k]
	return sl.value, ok
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Set assigns a value to key. When the slot already exists its first-seen
// spelling is kept. Assigning the reserved history slot fails with
// ErrImmutableField.
func (s *Store) Set(key string, value any) error {
	k := normalizeKey(key)
	if k == historyKey {
		return fmt.Errorf("set %q: %w", key, ErrImmutableField)
	}
	if existing, ok := s.data[k]; ok {
		key = existing.key
	}
	s.data[k] = slot{key: key, value: value}
	return nil
}

// Delete removes key. Deleting the reserved history slot fails with
// ErrImmutableField. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	k := normalizeKey(key)
	if k == historyKey {
		return fmt.Errorf("delete %q: %w", key, ErrImmutableField)
	}
	delete(s.data, k)
	return nil
}

// Len returns the number of live keys.
func (s *Store) Len() int { return len(s.data) }

// Items returns a copy of the live state keyed by the stored key spellings.
func (s *Store) Items() map[string]any {
	items := make(map[string]any, len(s.data))
	for _, sl := range s.data {
		items[sl.key] = sl.value
	}
	return items
}

// Save appends an immutable copy of the live state to the history and
// returns the new version count. The snapshot never includes the history
// itself.
func (s *Store) Save() int {
	copied := make(snapshot, len(s.data))
	for k, sl := range s.data {
		copied[k] = sl
	}
	s.history = append(s.history, copied)
	return len(s.history)
}

// Version returns the number of recorded snapshots.
func (s *Store) Version() int { return len(s.history) }

// Rollback replaces the live state with a copy of the snapshot at the given
// index and truncates the history to end at that snapshot, so rolling back
// never grows the history. A version of -1 selects the most recent snapshot.
func (s *Store) Rollback(version int) error {
	if version == -1 {
		version = len(s.history) - 1
	}
	if version < 0 || version >= len(s.history) {
		return fmt.Errorf("rollback: no snapshot at version %d (have %d)", version, len(s.history))
	}
	snap := s.history[version]
	s.data = make(map[string]slot, len(snap))
	for k, sl := range snap {
		s.data[k] = sl
	}
	s.history = s.history[:version+1]
	return nil
}

// Equal reports whether two stores hold the same live state: every key
// present in either is present in the other with an equal value. History is
// not compared.
func (s *Store) Equal(other *Store) bool {
	if other == nil {
		return false
	}
	if len(s.data) != len(other.data) {
		return false
	}
	for k, sl := range s.data {
		osl, ok := other.data[k]
		if !ok || !reflect.DeepEqual(sl.value, osl.value) {
			return false
		}
	}
	return true
}

// ReadOnly returns a read-only view over the same backing data. Reads
// through the view observe later mutations of the store; mutations through
// the view fail with ErrReadOnly.
func (s *Store) ReadOnly() *ReadOnlyStore {
	return &ReadOnlyStore{store: s}
}

// ReadOnlyStore is a view of a Store that rejects mutation.
type ReadOnlyStore struct {
	store *Store
}

// Get returns the value for key, or nil when absent.
func (r *ReadOnlyStore) Get(key string) any { return r.store.Get(key) }

// Lookup returns the value for key and whether it is present.
func (r *ReadOnlyStore) Lookup(key string) (any, bool) { return r.store.Lookup(key) }

// Has reports whether key is present.
func (r *ReadOnlyStore) Has(key string) bool { return r.store.Has(key) }

// Len returns the number of live keys.
func (r *ReadOnlyStore) Len() int { return r.store.Len() }

// Items returns a copy of the live state keyed by the stored key spellings.
func (r *ReadOnlyStore) Items() map[string]any { return r.store.Items() }

// Set fails with ErrReadOnly.
func (r *ReadOnlyStore) Set(key string, value any) error {
	return fmt.Errorf("set %q: %w", key, ErrReadOnly)
}

// Delete fails with ErrReadOnly.
func (r *ReadOnlyStore) Delete(key string) error {
	return fmt.Errorf("delete %q: %w", key, ErrReadOnly)
}
