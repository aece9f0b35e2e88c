package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aurora-dataapi/internal/exporter"
)

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// ExportJob is one statement whose result is exported to storage.
type ExportJob struct {
	// ID is a random UUID assigned at creation.
	ID  string
	SQL string
	// Format is the requested output format (csv, json, excel, pdf).
	Format string

	Submitted time.Time
	Started   time.Time
	Finished  time.Time
	Status    JobStatus
	Error     error
	Stats     *exporter.ExportResult
	// Key is the storage key of the export once the job ran.
	Key string

	// Ctx bounds the whole job, including the connection probe.
	Ctx    context.Context
	Cancel context.CancelFunc

	done chan struct{}
}

func NewExportJob(sql, format string, timeout time.Duration) *ExportJob {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	if format == "" {
		format = "csv"
	}
	return &ExportJob{
		ID:        uuid.NewString(),
		SQL:       sql,
		Format:    format,
		Submitted: time.Now(),
		Status:    StatusPending,
		Ctx:       ctx,
		Cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Done is closed once the job completed or failed.
func (j *ExportJob) Done() <-chan struct{} {
	return j.done
}
