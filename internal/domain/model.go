package domain

import (
	"time"

	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/roster"
)

// Core models shared by services and adapters.

// Profile is a roster row enriched with platform data. A nil LeetCode or Badges means
// the platform had nothing to offer for this student.
type Profile struct {
	Student            roster.Student     `json:"student"`
	LeetCodeUsername   string             `json:"leetcode_username,omitempty"`
	LeetCode           *leetcode.Stats    `json:"leetcode_stats"`
	HackerRankUsername string             `json:"hackerrank_username,omitempty"`
	Badges             []hackerrank.Badge `json:"hackerrank_badges"`
}

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat defaults to XLSX for an empty value.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", ErrUnknownFormat
}

func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type ExportJob struct {
	ID         int64        `json:"id"`
	Format     ExportFormat `json:"format"`
	Status     JobStatus    `json:"status"`
	Progress   float64      `json:"progress"`
	ResultPath string       `json:"-"`
	Error      string       `json:"error,omitempty"`
	Attempts   int          `json:"attempts"`
	QueuedAt   time.Time    `json:"queued_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// ClampProgress keeps a progress fraction within [0, 1].
func ClampProgress(p float64) float64 {
	return min(max(p, 0), 1)
}

var (
	ErrNotFound      = errString("not found")
	ErrUnknownFormat = errString("unknown export format")
	ErrNotQueued     = errString("job is not queued")
)

type errString string

func (e errString) Error() string { return string(e) }
