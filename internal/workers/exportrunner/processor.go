package exportrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rollcall/internal/domain"
	"rollcall/internal/ports"
	"rollcall/internal/roster"
)

// FileProcessor exports the live roster into Dir as export-<id>.<format>.
type FileProcessor struct {
	Store    *roster.Store
	Exporter ports.Exporter
	Repo     ports.JobRepository
	Dir      string
}

func (p FileProcessor) Path(job domain.ExportJob) string {
	return filepath.Join(p.Dir, fmt.Sprintf("export-%d.%s", job.ID, job.Format))
}

func (p FileProcessor) Process(ctx context.Context, job domain.ExportJob) (path string, err error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path = p.Path(job)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	progress := func(done, total int) {
		if total == 0 {
			return
		}
		_ = p.Repo.UpdateProgress(ctx, job.ID, float64(done)/float64(total))
	}
	if err := p.Exporter.Export(ctx, p.Store.Current(), job.Format, f, progress); err != nil {
		return "", err
	}
	return path, nil
}
