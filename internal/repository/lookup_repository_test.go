package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iconidentify/mediakit/internal/domain"
)

func newLookup(i int, platform domain.Platform) *domain.Lookup {
	return &domain.Lookup{
		ID:          domain.LookupID(fmt.Sprintf("lkp_%04d", i)),
		Platform:    platform,
		ExternalID:  fmt.Sprintf("ext-%d", i),
		URL:         fmt.Sprintf("https://example.com/%d", i),
		Title:       fmt.Sprintf("Video %d", i),
		FormatCount: i % 10,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

// repositories returns a fresh instance of every implementation.
func repositories(t *testing.T, maxEntries int) map[string]LookupRepository {
	t.Helper()

	sqliteRepo, err := NewSQLiteLookupRepository(filepath.Join(t.TempDir(), "history.db"), maxEntries)
	if err != nil {
		t.Fatalf("NewSQLiteLookupRepository failed: %v", err)
	}
	t.Cleanup(func() { sqliteRepo.Close() })

	return map[string]LookupRepository{
		"memory": NewInMemoryLookupRepository(maxEntries),
		"sqlite": sqliteRepo,
	}
}

func TestLookupRepository_RecordAndGet(t *testing.T) {
	for name, repo := range repositories(t, 10) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := newLookup(1, domain.PlatformYouTube)

			if err := repo.Record(ctx, want); err != nil {
				t.Fatalf("Record failed: %v", err)
			}

			got, err := repo.Get(ctx, want.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.ID != want.ID || got.Platform != want.Platform || got.ExternalID != want.ExternalID {
				t.Errorf("Get = %+v, want %+v", got, want)
			}
			if got.URL != want.URL || got.Title != want.Title || got.FormatCount != want.FormatCount {
				t.Errorf("Get = %+v, want %+v", got, want)
			}
			if !got.CreatedAt.Equal(want.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
			}
		})
	}
}

func TestLookupRepository_GetNotFound(t *testing.T) {
	for name, repo := range repositories(t, 10) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Get(context.Background(), "lkp_missing")
			if err != domain.ErrLookupNotFound {
				t.Errorf("expected ErrLookupNotFound, got %v", err)
			}
		})
	}
}

func TestLookupRepository_RecentOrder(t *testing.T) {
	for name, repo := range repositories(t, 10) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= 5; i++ {
				repo.Record(ctx, newLookup(i, domain.PlatformTikTok))
			}

			recent, err := repo.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(recent) != 3 {
				t.Fatalf("expected 3 lookups, got %d", len(recent))
			}
			for i, want := range []domain.LookupID{"lkp_0005", "lkp_0004", "lkp_0003"} {
				if recent[i].ID != want {
					t.Errorf("recent[%d] = %s, want %s", i, recent[i].ID, want)
				}
			}

			all, _ := repo.Recent(ctx, 0)
			if len(all) != 5 {
				t.Errorf("Recent(0) returned %d lookups, want 5", len(all))
			}
		})
	}
}

func TestLookupRepository_Empty(t *testing.T) {
	for name, repo := range repositories(t, 10) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			recent, err := repo.Recent(ctx, 5)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(recent) != 0 {
				t.Errorf("expected no lookups, got %d", len(recent))
			}

			stats, err := repo.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats failed: %v", err)
			}
			if stats.Total != 0 || len(stats.ByPlatform) != 0 {
				t.Errorf("stats = %+v, want empty", stats)
			}
		})
	}
}

func TestLookupRepository_Retention(t *testing.T) {
	for name, repo := range repositories(t, 3) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= 7; i++ {
				if err := repo.Record(ctx, newLookup(i, domain.PlatformYouTube)); err != nil {
					t.Fatalf("Record failed: %v", err)
				}
			}

			recent, _ := repo.Recent(ctx, 10)
			if len(recent) != 3 {
				t.Fatalf("expected 3 lookups after retention, got %d", len(recent))
			}
			if recent[0].ID != "lkp_0007" || recent[2].ID != "lkp_0005" {
				t.Errorf("kept %s..%s, want lkp_0007..lkp_0005", recent[0].ID, recent[2].ID)
			}

			if _, err := repo.Get(ctx, "lkp_0001"); err != domain.ErrLookupNotFound {
				t.Errorf("evicted lookup should be gone, got %v", err)
			}

			stats, _ := repo.Stats(ctx)
			if stats.Total != 3 {
				t.Errorf("Total = %d, want 3", stats.Total)
			}
		})
	}
}

func TestLookupRepository_Stats(t *testing.T) {
	for name, repo := range repositories(t, 10) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo.Record(ctx, newLookup(1, domain.PlatformYouTube))
			repo.Record(ctx, newLookup(2, domain.PlatformYouTube))
			repo.Record(ctx, newLookup(3, domain.PlatformTikTok))

			stats, err := repo.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats failed: %v", err)
			}
			if stats.Total != 3 {
				t.Errorf("Total = %d, want 3", stats.Total)
			}
			if stats.ByPlatform[domain.PlatformYouTube] != 2 {
				t.Errorf("youtube = %d, want 2", stats.ByPlatform[domain.PlatformYouTube])
			}
			if stats.ByPlatform[domain.PlatformTikTok] != 1 {
				t.Errorf("tiktok = %d, want 1", stats.ByPlatform[domain.PlatformTikTok])
			}
		})
	}
}

func TestLookupRepository_Ping(t *testing.T) {
	for name, repo := range repositories(t, 10) {
		t.Run(name, func(t *testing.T) {
			if err := repo.Ping(context.Background()); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}

func TestLookupRepository_ConcurrentRecord(t *testing.T) {
	for name, repo := range repositories(t, 100) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := repo.Record(ctx, newLookup(i, domain.PlatformInstagram)); err != nil {
						t.Errorf("Record failed: %v", err)
					}
				}(i)
			}
			wg.Wait()

			stats, _ := repo.Stats(ctx)
			if stats.Total != 50 {
				t.Errorf("Total = %d, want 50", stats.Total)
			}
		})
	}
}

func TestSQLiteLookupRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	repo, err := NewSQLiteLookupRepository(path, 10)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	repo.Record(ctx, newLookup(1, domain.PlatformTwitter))
	repo.Close()

	repo, err = NewSQLiteLookupRepository(path, 10)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer repo.Close()

	got, err := repo.Get(ctx, "lkp_0001")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.Platform != domain.PlatformTwitter {
		t.Errorf("Platform = %s, want twitter", got.Platform)
	}
}

func TestNewInMemoryLookupRepository_DefaultSize(t *testing.T) {
	repo := NewInMemoryLookupRepository(0)
	if len(repo.lookups) != DefaultMaxEntries {
		t.Errorf("capacity = %d, want %d", len(repo.lookups), DefaultMaxEntries)
	}
}
