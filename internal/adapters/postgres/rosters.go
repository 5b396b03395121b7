package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"rollcall/internal/roster"
)

// SaveRoster stores a roster version. Saving a version twice keeps the first copy.
func (db *DB) SaveRoster(ctx context.Context, snap *roster.Snapshot) error {
	columns, err := json.Marshal(snap.Roster.Columns)
	if err != nil {
		return err
	}
	rows, err := json.Marshal(snap.Roster.Rows())
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO roster_versions (version, source, loaded_at, columns, rows)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (version) DO NOTHING
	`, snap.Version, snap.Source, snap.LoadedAt, columns, rows)
	return err
}

func (db *DB) LatestRoster(ctx context.Context) (*roster.Snapshot, bool, error) {
	var (
		snap          roster.Snapshot
		columns, rows []byte
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT version, source, loaded_at, columns, rows
		FROM roster_versions
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&snap.Version, &snap.Source, &snap.LoadedAt, &columns, &rows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cols []string
	var cells [][]string
	if err := json.Unmarshal(columns, &cols); err != nil {
		return nil, false, fmt.Errorf("decode roster %d columns: %w", snap.Version, err)
	}
	if err := json.Unmarshal(rows, &cells); err != nil {
		return nil, false, fmt.Errorf("decode roster %d rows: %w", snap.Version, err)
	}
	r, err := roster.New(cols, cells)
	if err != nil {
		return nil, false, fmt.Errorf("rebuild roster %d: %w", snap.Version, err)
	}
	snap.Roster = r
	return &snap, true, nil
}
