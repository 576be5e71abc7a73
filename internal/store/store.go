package store

import (
	"errors"
	"sync/atomic"
)

// ErrEmptyDataset is returned when a load produced no records.
var ErrEmptyDataset = errors.New("dataset has no transactions")

// Store holds the current dataset snapshot. Publishing replaces the
// snapshot as a whole, so readers always see a complete dataset and a
// failed reload leaves the previous one in place.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Publish makes snap the current snapshot.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(snap)
}

// Current returns the current snapshot, or false before the first load.
func (s *Store) Current() (*Snapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}
