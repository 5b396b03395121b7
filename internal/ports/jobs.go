package ports

import (
	"context"

	"rollcall/internal/domain"
)

// JobRepository supports queueing, claiming and updating export jobs.
type JobRepository interface {
	Enqueue(ctx context.Context, format domain.ExportFormat) (id int64, err error)
	Get(ctx context.Context, id int64) (domain.ExportJob, error)
	ClaimNext(ctx context.Context) (job domain.ExportJob, found bool, err error)
	StartJob(ctx context.Context, id int64) (domain.ExportJob, error)
	UpdateProgress(ctx context.Context, id int64, progress float64) error
	MarkCompleted(ctx context.Context, id int64, resultPath string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}
