package ports

import (
	"context"

	"rollcall/internal/roster"
)

// RosterRepository persists uploaded roster versions so a restart serves the latest one.
type RosterRepository interface {
	SaveRoster(ctx context.Context, snap *roster.Snapshot) error
	LatestRoster(ctx context.Context) (snap *roster.Snapshot, found bool, err error)
}
