package lot

import (
	"sync"
)

// Store holds the single lot snapshot. Every read and write copies so
// callers can never alias the stored state.
type Store struct {
	mu    sync.RWMutex
	snap  Snapshot
	total int
	info  Info
}

func NewStore(total int, info Info) *Store {
	return &Store{
		snap:  NewSnapshot(total, info),
		total: total,
		info:  info.clone(),
	}
}

func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) Replace(snap Snapshot) {
	c := snap.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = c
}

// Reset puts the lot back to its starting state and returns it. The lot
// info is kept.
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = NewSnapshot(s.total, s.info)
	return s.snap.Clone()
}
