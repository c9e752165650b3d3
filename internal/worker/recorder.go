package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/repository"
)

var (
	// ErrShutdownTimeout is returned when workers don't stop within timeout.
	ErrShutdownTimeout = errors.New("history recorder shutdown timed out")

	// ErrQueueFull is returned when a lookup is dropped because the queue is full.
	ErrQueueFull = errors.New("history queue full")

	// ErrStopped is returned when recording after Stop.
	ErrStopped = errors.New("history recorder stopped")
)

const persistTimeout = 5 * time.Second

// Config holds recorder configuration.
type Config struct {
	Workers   int
	QueueSize int
}

// Recorder is a LookupRepository that hands writes to a pool of background
// workers. Reads go straight to the wrapped repository.
type Recorder struct {
	repository.LookupRepository

	workers      int
	queue        chan *domain.Lookup
	closeTimeout time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(cfg Config, repo repository.LookupRepository, logger *slog.Logger) *Recorder {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Recorder{
		LookupRepository: repo,
		workers:          cfg.Workers,
		queue:            make(chan *domain.Lookup, cfg.QueueSize),
		closeTimeout:     persistTimeout,
		logger:           logger,
	}
}

// Start launches all workers.
func (r *Recorder) Start() {
	r.logger.Info("starting history recorder", "workers", r.workers, "queue_size", cap(r.queue))

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Record queues lookup for persistence without waiting for the store.
func (r *Recorder) Record(ctx context.Context, lookup *domain.Lookup) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrStopped
	}

	select {
	case r.queue <- lookup:
		return nil
	default:
		r.dropped.Add(1)
		return ErrQueueFull
	}
}

// Stop drains queued lookups and waits for the workers to finish.
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	r.logger.Info("stopping history recorder", "pending", len(r.queue))

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("history recorder stopped",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
			"failed", r.failed.Load(),
		)
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

// Close stops the workers and closes the wrapped repository. The repository
// stays open when workers are still writing after the stop timeout.
func (r *Recorder) Close() error {
	if err := r.Stop(r.closeTimeout); err != nil {
		r.logger.Warn("history workers still running, leaving store open", "error", err)
		return err
	}
	return r.LookupRepository.Close()
}

func (r *Recorder) worker(id int) {
	defer r.wg.Done()

	logger := r.logger.With("worker_id", id)

	for lookup := range r.queue {
		r.persist(logger, lookup)
	}
}

func (r *Recorder) persist(logger *slog.Logger, lookup *domain.Lookup) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := r.LookupRepository.Record(ctx, lookup); err != nil {
		r.failed.Add(1)
		logger.Error("failed to persist lookup", "lookup_id", lookup.ID, "error", err)
		return
	}
	r.written.Add(1)
}
