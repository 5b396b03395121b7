// Package memory holds in-process repositories used when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rollcall/internal/domain"
)

// Jobs is a FIFO export queue. Jobs are lost on restart.
type Jobs struct {
	mu    sync.Mutex
	next  int64
	jobs  map[int64]*domain.ExportJob
	queue []int64
	now   func() time.Time
}

func NewJobs() *Jobs {
	return &Jobs{jobs: map[int64]*domain.ExportJob{}, now: time.Now}
}

func (j *Jobs) Enqueue(_ context.Context, format domain.ExportFormat) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.next++
	j.jobs[j.next] = &domain.ExportJob{
		ID:       j.next,
		Format:   format,
		Status:   domain.JobQueued,
		QueuedAt: j.now(),
	}
	j.queue = append(j.queue, j.next)
	return j.next, nil
}

func (j *Jobs) Get(_ context.Context, id int64) (domain.ExportJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return domain.ExportJob{}, domain.ErrNotFound
	}
	return *job, nil
}

// ClaimNext pops the oldest queued job and marks it running.
func (j *Jobs) ClaimNext(_ context.Context) (domain.ExportJob, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for len(j.queue) > 0 {
		id := j.queue[0]
		j.queue = j.queue[1:]
		job := j.jobs[id]
		if job.Status != domain.JobQueued {
			continue
		}
		j.start(job)
		return *job, true, nil
	}
	return domain.ExportJob{}, false, nil
}

// StartJob marks a specific queued job running. Claimed jobs are refused.
func (j *Jobs) StartJob(_ context.Context, id int64) (domain.ExportJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return domain.ExportJob{}, domain.ErrNotFound
	}
	if job.Status != domain.JobQueued {
		return domain.ExportJob{}, fmt.Errorf("job %d is %s: %w", id, job.Status, domain.ErrNotQueued)
	}
	j.start(job)
	return *job, nil
}

func (j *Jobs) start(job *domain.ExportJob) {
	now := j.now()
	job.Status = domain.JobRunning
	job.StartedAt = &now
	job.Attempts++
}

func (j *Jobs) UpdateProgress(_ context.Context, id int64, progress float64) error {
	return j.update(id, func(job *domain.ExportJob) {
		job.Progress = domain.ClampProgress(progress)
	})
}

func (j *Jobs) MarkCompleted(_ context.Context, id int64, resultPath string) error {
	return j.update(id, func(job *domain.ExportJob) {
		now := j.now()
		job.Status = domain.JobCompleted
		job.Progress = 1
		job.ResultPath = resultPath
		job.FinishedAt = &now
	})
}

func (j *Jobs) MarkFailed(_ context.Context, id int64, reason string) error {
	return j.update(id, func(job *domain.ExportJob) {
		now := j.now()
		job.Status = domain.JobFailed
		job.Error = reason
		job.FinishedAt = &now
	})
}

func (j *Jobs) update(id int64, fn func(*domain.ExportJob)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(job)
	return nil
}
