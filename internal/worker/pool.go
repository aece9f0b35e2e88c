package worker

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"golang.org/x/sync/semaphore"

	"aurora-dataapi/internal/dataapi"
	"aurora-dataapi/internal/exporter"
	"aurora-dataapi/internal/security"
	"aurora-dataapi/internal/storage"
	"aurora-dataapi/internal/typecast"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Connector is the connection lifecycle the pool drives; *dataapi.Manager
// satisfies it.
type Connector interface {
	Connect(ctx context.Context, cfg dataapi.Config) (*dataapi.Connection, error)
	Validate(conn *dataapi.Connection) *dataapi.Connection
	Disconnect(ctx context.Context, conn *dataapi.Connection) error
	Decode(out *rdsdata.ExecuteStatementOutput, opts typecast.Options) (*dataapi.Rows, error)
}

// Options configures a Pool.
type Options struct {
	Workers int
	// MaxStatements caps concurrent Data API statements across all workers.
	MaxStatements int64
	QueueSize     int
	Dialect       string
	ConnConfig    dataapi.Config
	Decode        typecast.Options
	UseGzip       bool
}

// Pool runs export jobs on a fixed set of workers. Each worker connects once
// through the Connector, validates the connection before every job and
// disconnects when the pool stops.
type Pool struct {
	jobQueue chan *ExportJob
	opts     Options
	stmtSem  *semaphore.Weighted
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once

	connector Connector
	storage   storage.Provider

	mu   sync.Mutex
	jobs map[string]*ExportJob
}

// NewPool initializes a pool. Call Start to begin processing.
func NewPool(connector Connector, store storage.Provider, opts Options) *Pool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxStatements < 1 {
		opts.MaxStatements = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 100
	}
	return &Pool{
		jobQueue:  make(chan *ExportJob, opts.QueueSize),
		opts:      opts,
		stmtSem:   semaphore.NewWeighted(opts.MaxStatements),
		quit:      make(chan struct{}),
		connector: connector,
		storage:   store,
		jobs:      make(map[string]*ExportJob),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	slog.Info("Worker pool started", "workers", p.opts.Workers, "max_statements", p.opts.MaxStatements)
}

// Submit validates the job's statement and queues it.
func (p *Pool) Submit(job *ExportJob) error {
	if err := security.ValidateQuery(p.opts.Dialect, job.SQL); err != nil {
		return fmt.Errorf("job %s rejected: %w", job.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}

	select {
	case p.jobQueue <- job:
		p.jobs[job.ID] = job
		return nil
	default:
		return ErrQueueFull
	}
}

// Snapshot returns a copy of the job's current state.
func (p *Pool) Snapshot(id string) (ExportJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return ExportJob{}, false
	}
	return *job, true
}

// Forget drops a finished job from the pool's bookkeeping. It reports false
// for unknown jobs and for jobs that are still pending or running.
func (p *Pool) Forget(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok || (job.Status != StatusCompleted && job.Status != StatusFailed) {
		return false
	}
	delete(p.jobs, id)
	return true
}

// Stop initiates graceful shutdown; queued jobs that were not picked up are
// failed with ErrPoolStopped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		close(p.quit)
		p.mu.Unlock()

		p.wg.Wait()
		for {
			select {
			case job := <-p.jobQueue:
				p.finish(job, nil, ErrPoolStopped)
			default:
				slog.Info("Worker pool stopped")
				return
			}
		}
	})
}

func (p *Pool) workerLoop(id int) {
	defer p.wg.Done()
	slog.Debug("Worker started", "worker_id", id)

	var conn *dataapi.Connection
	defer func() {
		if err := p.connector.Disconnect(context.Background(), conn); err != nil {
			slog.Warn("Disconnect failed", "worker_id", id, "error", err)
		}
	}()

	for {
		select {
		case job := <-p.jobQueue:
			if conn == nil {
				c, err := p.connector.Connect(job.Ctx, p.opts.ConnConfig)
				if err != nil {
					p.finish(job, nil, fmt.Errorf("failed to connect: %w", err))
					continue
				}
				conn = c
			} else {
				conn = p.connector.Validate(conn)
			}
			p.processJob(id, conn, job)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) processJob(workerID int, conn *dataapi.Connection, job *ExportJob) {
	slog.Info("Processing job", "worker_id", workerID, "job_id", job.ID)

	p.mu.Lock()
	job.Started = time.Now()
	job.Status = StatusProcessing
	p.mu.Unlock()

	stats, key, err := p.executeExport(conn, job)
	if err != nil {
		p.finish(job, nil, err)
		return
	}

	p.mu.Lock()
	job.Key = key
	p.mu.Unlock()
	p.finish(job, stats, nil)
}

func (p *Pool) executeExport(conn *dataapi.Connection, job *ExportJob) (*exporter.ExportResult, string, error) {
	ext := exporter.Extension(job.Format)
	key := fmt.Sprintf("exports/%s.%s", job.ID, ext)
	if p.opts.UseGzip {
		key += ".gz"
	}

	storageWriter, errChan := p.storage.StreamToFile(job.Ctx, key, storage.ContentType(ext, p.opts.UseGzip))
	if storageWriter == nil {
		return nil, "", fmt.Errorf("storage open failed: %w", <-errChan)
	}

	var finalWriter io.Writer = storageWriter
	var gz *gzip.Writer
	if p.opts.UseGzip {
		gz = gzip.NewWriter(storageWriter)
		finalWriter = gz
	}

	encoder := exporter.NewEncoder(job.Format, finalWriter)
	streamer := exporter.NewStreamer(conn, p.connector, p.opts.Decode)

	var stats *exporter.ExportResult
	exportErr := p.stmtSem.Acquire(job.Ctx, 1)
	if exportErr == nil {
		stats, exportErr = streamer.StreamStatement(job.Ctx, job.SQL, encoder)
		p.stmtSem.Release(1)
	} else {
		exportErr = fmt.Errorf("failed to acquire statement slot: %w", exportErr)
	}

	// Close in order: encoder, gzip footer, then the storage pipe.
	encoderCloseErr := encoder.Close()
	var gzipCloseErr error
	if gz != nil {
		gzipCloseErr = gz.Close()
	}
	var storageCloseErr error
	if failed := errors.Join(exportErr, encoderCloseErr, gzipCloseErr); failed != nil {
		storageCloseErr = storage.Abort(storageWriter, failed)
	} else {
		storageCloseErr = storageWriter.Close()
	}
	uploadErr := <-errChan

	switch {
	case exportErr != nil:
		return nil, "", fmt.Errorf("export failed: %w", exportErr)
	case encoderCloseErr != nil:
		return nil, "", fmt.Errorf("encoder close failed: %w", encoderCloseErr)
	case gzipCloseErr != nil:
		return nil, "", fmt.Errorf("gzip close failed: %w", gzipCloseErr)
	case storageCloseErr != nil:
		return nil, "", fmt.Errorf("storage close failed: %w", storageCloseErr)
	case uploadErr != nil:
		return nil, "", fmt.Errorf("upload failed: %w", uploadErr)
	}
	return stats, key, nil
}

func (p *Pool) finish(job *ExportJob, stats *exporter.ExportResult, err error) {
	p.mu.Lock()
	job.Finished = time.Now()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err
	} else {
		job.Status = StatusCompleted
		job.Stats = stats
	}
	p.mu.Unlock()

	job.Cancel()
	close(job.done)

	if err != nil {
		slog.Error("Job failed", "job_id", job.ID, "error", err)
		return
	}
	slog.Info("Job completed",
		"job_id", job.ID,
		"rows", stats.RowsProcessed,
		"wait", job.Started.Sub(job.Submitted),
		"duration", job.Finished.Sub(job.Started),
		"key", job.Key,
	)
}
