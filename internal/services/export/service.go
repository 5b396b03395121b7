package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"rollcall/internal/domain"
	"rollcall/internal/ports"
	"rollcall/internal/roster"
)

const DefaultConcurrency = 1

// Service enriches whole roster snapshots. With concurrency 1 rows are fetched strictly
// one after another.
type Service struct {
	enricher    ports.Enricher
	concurrency int
	logger      *slog.Logger
}

func New(enricher ports.Enricher, concurrency int, logger *slog.Logger) *Service {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{enricher: enricher, concurrency: concurrency, logger: logger.With("component", "export")}
}

// Enrich returns one profile per student in roster order. progress, if set, is called
// after every row from a single goroutine at a time.
func (s *Service) Enrich(ctx context.Context, students []roster.Student, progress func(done, total int)) ([]domain.Profile, error) {
	total := len(students)
	profiles := make([]domain.Profile, total)
	jobs := make(chan int, total)
	for i := range students {
		jobs <- i
	}
	close(jobs)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	workers := min(s.concurrency, total)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				profiles[i] = s.enricher.Enrich(ctx, students[i])

				mu.Lock()
				done++
				if progress != nil {
					progress(done, total)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export interrupted after %d of %d rows: %w", done, total, err)
	}
	s.logger.InfoContext(ctx, "roster enriched", "rows", total, "workers", workers)
	return profiles, nil
}

// Export enriches snap and writes it to w in the requested format.
func (s *Service) Export(ctx context.Context, snap *roster.Snapshot, format domain.ExportFormat, w io.Writer, progress func(done, total int)) error {
	if format != domain.FormatCSV && format != domain.FormatXLSX {
		return fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
	}
	r := snap.Roster
	var students []roster.Student
	var columns []string
	if r != nil {
		students, columns = r.Students, r.Columns
	}

	profiles, err := s.Enrich(ctx, students, progress)
	if err != nil {
		return err
	}
	switch format {
	case domain.FormatCSV:
		return WriteCSV(w, columns, profiles)
	case domain.FormatXLSX:
		return WriteXLSX(w, columns, profiles)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
}
