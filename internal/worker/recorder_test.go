package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLookup(i int) *domain.Lookup {
	return &domain.Lookup{
		ID:         domain.LookupID(fmt.Sprintf("lkp_%04d", i)),
		Platform:   domain.PlatformYouTube,
		ExternalID: fmt.Sprintf("ext-%d", i),
		URL:        fmt.Sprintf("https://www.youtube.com/watch?v=%d", i),
		CreatedAt:  time.Now(),
	}
}

// blockingRepo holds every Record call until release is closed.
type blockingRepo struct {
	*repository.InMemoryLookupRepository
	release chan struct{}
	calls   atomic.Int64
	closed  atomic.Bool
}

func newBlockingRepo() *blockingRepo {
	return &blockingRepo{
		InMemoryLookupRepository: repository.NewInMemoryLookupRepository(10),
		release:                  make(chan struct{}),
	}
}

func (b *blockingRepo) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *blockingRepo) Record(ctx context.Context, lookup *domain.Lookup) error {
	b.calls.Add(1)
	<-b.release
	return b.InMemoryLookupRepository.Record(ctx, lookup)
}

// failingRepo rejects every write.
type failingRepo struct {
	*repository.InMemoryLookupRepository
}

func (failingRepo) Record(context.Context, *domain.Lookup) error {
	return errors.New("disk full")
}

func TestNewRecorder_DefaultValues(t *testing.T) {
	r := NewRecorder(Config{}, repository.NewInMemoryLookupRepository(10), testLogger())

	if r.workers != 1 {
		t.Errorf("workers = %d, want 1", r.workers)
	}
	if cap(r.queue) != 256 {
		t.Errorf("queue size = %d, want 256", cap(r.queue))
	}
}

func TestRecorder_PersistsQueuedLookups(t *testing.T) {
	repo := repository.NewInMemoryLookupRepository(100)
	r := NewRecorder(Config{Workers: 3, QueueSize: 50}, repo, testLogger())
	r.Start()

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		if err := r.Record(ctx, newLookup(i)); err != nil {
			t.Fatalf("Record(%d) failed: %v", i, err)
		}
	}

	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 20 {
		t.Errorf("Total = %d, want 20", stats.Total)
	}
	if r.written.Load() != 20 {
		t.Errorf("written = %d, want 20", r.written.Load())
	}
}

func TestRecorder_ReadsDelegate(t *testing.T) {
	repo := repository.NewInMemoryLookupRepository(10)
	ctx := context.Background()
	want := newLookup(7)
	if err := repo.Record(ctx, want); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	r := NewRecorder(Config{}, repo, testLogger())

	got, err := r.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("Get ID = %q, want %q", got.ID, want.ID)
	}

	recent, err := r.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("Recent len = %d, want 1", len(recent))
	}

	if err := r.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRecorder_QueueFull(t *testing.T) {
	repo := newBlockingRepo()
	r := NewRecorder(Config{Workers: 1, QueueSize: 1}, repo, testLogger())

	ctx := context.Background()
	if err := r.Record(ctx, newLookup(1)); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}

	err := r.Record(ctx, newLookup(2))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Record error = %v, want ErrQueueFull", err)
	}
	if r.dropped.Load() != 1 {
		t.Errorf("Dropped = %d, want 1", r.dropped.Load())
	}

	close(repo.release)
	r.Start()
	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestRecorder_RecordAfterStop(t *testing.T) {
	r := NewRecorder(Config{}, repository.NewInMemoryLookupRepository(10), testLogger())
	r.Start()

	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	err := r.Record(context.Background(), newLookup(1))
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Record error = %v, want ErrStopped", err)
	}
}

func TestRecorder_StopTwice(t *testing.T) {
	r := NewRecorder(Config{}, repository.NewInMemoryLookupRepository(10), testLogger())
	r.Start()

	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := r.Stop(time.Second); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestRecorder_StopTimeout(t *testing.T) {
	repo := newBlockingRepo()
	defer close(repo.release)

	r := NewRecorder(Config{Workers: 1, QueueSize: 4}, repo, testLogger())
	r.Start()

	if err := r.Record(context.Background(), newLookup(1)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	err := r.Stop(50 * time.Millisecond)
	if !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("Stop error = %v, want ErrShutdownTimeout", err)
	}
}

func TestRecorder_FailedWritesCounted(t *testing.T) {
	repo := failingRepo{repository.NewInMemoryLookupRepository(10)}
	r := NewRecorder(Config{Workers: 2}, repo, testLogger())
	r.Start()

	for i := 0; i < 5; i++ {
		if err := r.Record(context.Background(), newLookup(i)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if r.failed.Load() != 5 {
		t.Errorf("failed = %d, want 5", r.failed.Load())
	}
	if r.written.Load() != 0 {
		t.Errorf("written = %d, want 0", r.written.Load())
	}
}

func TestRecorder_Close(t *testing.T) {
	repo := repository.NewInMemoryLookupRepository(10)
	r := NewRecorder(Config{}, repo, testLogger())
	r.Start()

	if err := r.Record(context.Background(), newLookup(1)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := repo.Get(context.Background(), "lkp_0001"); err != nil {
		t.Errorf("lookup not persisted before close: %v", err)
	}
}

func TestRecorder_CloseAfterStopTimeoutKeepsStoreOpen(t *testing.T) {
	repo := newBlockingRepo()
	defer close(repo.release)

	r := NewRecorder(Config{Workers: 1}, repo, testLogger())
	r.closeTimeout = 50 * time.Millisecond
	r.Start()

	if err := r.Record(context.Background(), newLookup(1)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := r.Close(); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("Close error = %v, want ErrShutdownTimeout", err)
	}
	if repo.closed.Load() {
		t.Error("store closed while a worker was still writing")
	}
}
