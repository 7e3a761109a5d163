// Package transfer copies confirmed jobs into a destination library, locally
// or over SFTP, under a process-wide concurrency bound.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/naming"
)

// MaxConcurrent is the default number of jobs copying at the same time.
const MaxConcurrent = 2

// Config tunes a Scheduler. Zero values take the defaults.
type Config struct {
	MaxConcurrent int
	ChunkSize     int
	Dial          Dialer // SFTP dialer, DialSSH when nil
}

// Result summarizes a batch once every job has settled.
type Result struct {
	BatchID   string `json:"batch_id"`
	Queued    int    `json:"queued"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// Scheduler runs transfer batches. The concurrency bound is shared by every
// batch the scheduler runs.
type Scheduler struct {
	store     *library.Store
	sem       *semaphore.Weighted
	chunkSize int
	dial      Dialer
	bus       *events.Bus
	log       *slog.Logger
}

// NewScheduler creates a scheduler. bus may be nil.
func NewScheduler(store *library.Store, cfg Config, bus *events.Bus, log *slog.Logger) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = MaxConcurrent
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Dial == nil {
		cfg.Dial = DialSSH
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:     store,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		chunkSize: cfg.ChunkSize,
		dial:      cfg.Dial,
		bus:       bus,
		log:       log.With("component", "transfer"),
	}
}

// batch is the shared state of one Run call.
type batch struct {
	id      string
	dest    *library.Destination
	naming  naming.Settings
	backend backend
	sink    Sink
}

// Run transfers jobIDs to the destination and blocks until each job has
// completed or failed. One job failing never affects another. Cancelling
// ctx aborts every outstanding job; aborted jobs end failed.
//
// Only a missing destination, an empty batch or an unreadable settings table
// fail the whole call.
func (s *Scheduler) Run(ctx context.Context, jobIDs []int64, destinationID int64, sink Sink) (Result, error) {
	if len(jobIDs) == 0 {
		return Result{}, ErrNothingToTransfer
	}
	dest, err := s.store.GetDestination(destinationID)
	if errors.Is(err, library.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %d", ErrDestinationNotFound, destinationID)
	}
	if err != nil {
		return Result{}, err
	}
	values, err := s.store.AllSettings()
	if err != nil {
		return Result{}, err
	}

	sinks := MultiSink{sink}
	if s.bus != nil {
		sinks = append(sinks, NewBusSink(s.bus))
	}
	b := &batch{
		id:      uuid.NewString(),
		dest:    dest,
		naming:  naming.SettingsFrom(values, dest),
		backend: s.backendFor(dest),
		sink:    sinks,
	}

	log := s.log.With("batch_id", b.id, "destination", dest.Name)
	log.Info("transfer batch queued", "jobs", len(jobIDs), "type", dest.Type)
	s.publish(&events.TransferQueued{
		BaseEvent:     events.NewBaseEvent(events.EventTransferQueued, events.EntityBatch, 0),
		BatchID:       b.id,
		DestinationID: dest.ID,
		JobIDs:        jobIDs,
	})

	var completed, failed atomic.Int64
	var wg sync.WaitGroup
	for _, id := range jobIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.runJob(ctx, b, id) {
				completed.Add(1)
			} else {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	res := Result{
		BatchID:   b.id,
		Queued:    len(jobIDs),
		Completed: int(completed.Load()),
		Failed:    int(failed.Load()),
	}
	log.Info("transfer batch finished", "completed", res.Completed, "failed", res.Failed)
	s.publish(&events.TransferFinished{
		BaseEvent: events.NewBaseEvent(events.EventTransferFinished, events.EntityBatch, 0),
		BatchID:   b.id,
		Queued:    res.Queued,
		Completed: res.Completed,
		Failed:    res.Failed,
	})
	return res, nil
}

func (s *Scheduler) backendFor(dest *library.Destination) backend {
	if dest.Type == library.DestinationSSH {
		return &sftpBackend{dest: dest, dial: s.dial, chunkSize: s.chunkSize}
	}
	return &localBackend{base: dest.BasePath, chunkSize: s.chunkSize}
}

// runJob moves one job and reports whether it completed.
func (s *Scheduler) runJob(ctx context.Context, b *batch, id int64) bool {
	log := s.log.With("batch_id", b.id, "job_id", id)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.fail(b, id, 0, 0, err, log)
		return false
	}
	defer s.sem.Release(1)

	job, err := s.store.GetJob(id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			err = fmt.Errorf("%w: %d", ErrJobNotFound, id)
		}
		b.sink.Send(Progress{BatchID: b.id, JobID: id, Status: StatusFailed, Error: err.Error()})
		log.Warn("transfer skipped", "error", err)
		return false
	}
	total := job.FileSize

	if err := s.store.StartTransfer(id, b.dest.ID); err != nil {
		s.fail(b, id, 0, total, err, log)
		return false
	}
	b.sink.Send(Progress{BatchID: b.id, JobID: id, TotalBytes: total, Status: StatusTransferring})

	rel, err := s.relativePath(job, b.naming)
	if err != nil {
		s.fail(b, id, 0, total, err, log)
		return false
	}

	var sent int64
	step := 0
	report := func(n int64) {
		sent = n
		p := fraction(n, total)
		b.sink.Send(Progress{
			BatchID:          b.id,
			JobID:            id,
			BytesTransferred: n,
			TotalBytes:       total,
			Progress:         p,
			Status:           StatusTransferring,
		})
		// persist in tenths so readers of the job row see movement
		if tenth := int(p * 10); tenth > step {
			step = tenth
			if err := s.store.SetTransferProgress(id, p); err != nil {
				log.Debug("persist progress", "error", err)
			}
		}
	}

	dst, err := b.backend.transfer(ctx, job.SourcePath, rel, total, report)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		s.fail(b, id, sent, total, err, log)
		return false
	}

	if err := s.store.CompleteTransfer(id, dst); err != nil {
		s.fail(b, id, sent, total, err, log)
		return false
	}
	b.sink.Send(Progress{
		BatchID:          b.id,
		JobID:            id,
		BytesTransferred: max(sent, total),
		TotalBytes:       total,
		Progress:         1,
		Status:           StatusCompleted,
		DestinationPath:  dst,
	})
	log.Info("transfer completed", "path", dst)
	return true
}

// fail persists a failed terminal state and emits it.
func (s *Scheduler) fail(b *batch, id, sent, total int64, cause error, log *slog.Logger) {
	if err := s.store.FailTransfer(id, cause.Error()); err != nil {
		log.Error("persist transfer failure", "error", err)
	}
	b.sink.Send(Progress{
		BatchID:          b.id,
		JobID:            id,
		BytesTransferred: sent,
		TotalBytes:       total,
		Progress:         fraction(sent, total),
		Status:           StatusFailed,
		Error:            cause.Error(),
	})
	log.Warn("transfer failed", "error", cause)
}

// relativePath renders a job's library path. A job without a group is
// named from its own catalog and parse fields.
func (s *Scheduler) relativePath(job *library.Job, ns naming.Settings) (string, error) {
	var g *library.Group
	if job.GroupID != nil {
		found, err := s.store.GetGroup(*job.GroupID)
		if err != nil && !errors.Is(err, library.ErrNotFound) {
			return "", err
		}
		g = found
	}
	if g == nil {
		g = &library.Group{
			MediaType:      job.MediaType,
			TotalFileCount: 1,
			TotalFileSize:  job.FileSize,
			ParsedTitle:    job.ParsedTitle,
			ParsedYear:     job.ParsedYear,
			TMDBID:         job.TMDBID,
			TMDBTitle:      job.TMDBTitle,
			TMDBYear:       job.TMDBYear,
		}
	}

	rel := naming.FormatPath(g, job, ns)
	if err := naming.ValidateRelative(rel); err != nil {
		return "", fmt.Errorf("%w: %q", err, rel)
	}
	return rel, nil
}

func (s *Scheduler) publish(ev events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), ev); err != nil {
		s.log.Warn("publish event", "type", ev.EventType(), "error", err)
	}
}

func fraction(n, total int64) float64 {
	if total <= 0 {
		return 1
	}
	return min(float64(n)/float64(total), 1)
}
