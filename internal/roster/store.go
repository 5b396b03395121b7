package roster

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one immutable roster version.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Source   string
	Roster   *Roster
}

// Store owns the live roster. Readers take the current snapshot without locking;
// uploads replace it whole.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.current.Store(&Snapshot{Roster: &Roster{index: map[string]int{}}})
	return s
}

func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs r as the next version.
func (s *Store) Replace(r *Roster, source string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &Snapshot{
		Version:  s.current.Load().Version + 1,
		LoadedAt: s.now(),
		Source:   source,
		Roster:   r,
	}
	s.current.Store(next)
	return next
}

// Restore installs a persisted snapshot unless a newer version is already live.
func (s *Store) Restore(snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap == nil || snap.Roster == nil || snap.Version <= s.current.Load().Version {
		return false
	}
	s.current.Store(snap)
	return true
}
