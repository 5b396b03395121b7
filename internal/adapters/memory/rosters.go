package memory

import (
	"context"
	"sync"

	"rollcall/internal/roster"
)

// Rosters keeps the latest saved snapshot for the lifetime of the process.
type Rosters struct {
	mu     sync.Mutex
	latest *roster.Snapshot
}

func NewRosters() *Rosters { return &Rosters{} }

func (r *Rosters) SaveRoster(_ context.Context, snap *roster.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest == nil || snap.Version > r.latest.Version {
		r.latest = snap
	}
	return nil
}

func (r *Rosters) LatestRoster(_ context.Context) (*roster.Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.latest, r.latest != nil, nil
}
