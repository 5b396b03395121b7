package exportrunner

import (
	"context"
	"log/slog"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/ports"
)

// Processor produces the result file for a claimed job.
type Processor interface {
	Process(ctx context.Context, job domain.ExportJob) (resultPath string, err error)
}

// Run starts worker goroutines that claim jobs and process them until ctx is done.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, logger *slog.Logger) {
	if concurrency < 1 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "exportrunner")
	jobsCh := make(chan domain.ExportJob, concurrency)

	// dispatcher loop
	go func() {
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			for {
				job, found, err := repo.ClaimNext(ctx)
				if err != nil {
					if ctx.Err() == nil {
						logger.Error("job claim failed", "error", err)
					}
					break
				}
				if !found {
					break
				}
				select {
				case jobsCh <- job:
				case <-ctx.Done():
					_ = repo.MarkFailed(context.WithoutCancel(ctx), job.ID, "shutting down")
					return
				}
			}
		}
	}()

	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				finish(ctx, repo, processor, job, logger.With("worker", idx))
			}
		}(i)
	}
}

// ProcessInline starts and processes one queued job synchronously, the same way the
// background workers do.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, id int64, logger *slog.Logger) (domain.ExportJob, error) {
	if logger == nil {
		logger = slog.Default()
	}
	job, err := repo.StartJob(ctx, id)
	if err != nil {
		return job, err
	}
	finish(ctx, repo, processor, job, logger.With("component", "exportrunner", "inline", true))
	return repo.Get(context.WithoutCancel(ctx), id)
}

func finish(ctx context.Context, repo ports.JobRepository, processor Processor, job domain.ExportJob, logger *slog.Logger) {
	logger = logger.With("job", job.ID, "format", job.Format)
	started := time.Now()

	path, err := processor.Process(ctx, job)
	// the outcome is recorded even when the caller has gone away
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		logger.Warn("export failed", "error", err)
		if err := repo.MarkFailed(ctx, job.ID, err.Error()); err != nil {
			logger.Error("mark failed", "error", err)
		}
		return
	}
	if err := repo.MarkCompleted(ctx, job.ID, path); err != nil {
		logger.Error("mark completed", "error", err)
		return
	}
	logger.Info("export completed", "path", path, "elapsed", time.Since(started))
}
