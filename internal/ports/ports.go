package ports

import (
	"context"
	"io"

	"rollcall/internal/domain"
	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/roster"
)

// BadgeSource returns a user's HackerRank badges, or nil when there are none to report.
type BadgeSource interface {
	Badges(ctx context.Context, username string) []hackerrank.Badge
}

// StatsSource returns a user's LeetCode stats, or nil when unavailable.
type StatsSource interface {
	Stats(ctx context.Context, username string) *leetcode.Stats
}

// Enricher attaches platform data to one roster row.
type Enricher interface {
	Enrich(ctx context.Context, student roster.Student) domain.Profile
}

// Students answers lookups against the live roster.
type Students interface {
	Enricher
	Lookup(ctx context.Context, roll string) (domain.Profile, error)
	Badges(ctx context.Context, profileURL string) ([]hackerrank.Badge, error)
}

// Exporter writes an enriched roster snapshot as a spreadsheet.
type Exporter interface {
	Export(ctx context.Context, snap *roster.Snapshot, format domain.ExportFormat, w io.Writer, progress func(done, total int)) error
}
