package flags

import "maps"

// Store holds named flag values. It is passive: setting a flag notifies
// nobody, callers re-evaluate derived state themselves.
type Store struct {
	values map[string]Value
}

// NewStore creates a store seeded with the declared defaults.
func NewStore(defaults map[string]Value) *Store {
	values := make(map[string]Value, len(defaults))
	maps.Copy(values, defaults)
	return &Store{values: values}
}

// Get returns the value of name, or the unset Value if it was never set.
func (s *Store) Get(name string) Value {
	return s.values[name]
}

func (s *Store) Set(name string, v Value) {
	s.values[name] = v
}

func (s *Store) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Snapshot returns a copy of all values.
func (s *Store) Snapshot() map[string]Value {
	return maps.Clone(s.values)
}
