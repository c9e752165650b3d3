package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/repository"
	"github.com/iconidentify/mediakit/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func int64p(v int64) *int64 { return &v }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 3000, BaseURL: "https://api.example.com"},
		Formats:   config.FormatsConfig{MaxResults: 10},
		Platforms: config.PlatformsConfig{Disabled: []string{"twitter"}},
	}
}

func sampleInfo() *domain.MediaInfo {
	return &domain.MediaInfo{
		ID:    "dQw4w9WgXcQ",
		Title: "Never Gonna Give You Up",
		Formats: []domain.RawFormat{
			{FormatID: "140", Ext: "m4a", VideoCodec: "none", AudioCodec: "mp4a.40.2"},
			{FormatID: "137", Ext: "mp4", VideoCodec: "avc1", Height: 1080, Width: 1920, FileSizeApprox: int64p(52428800)},
			{FormatID: "136", Ext: "mp4", VideoCodec: "avc1", Height: 720, Width: 1280},
		},
	}
}

// mockExtractor is a test implementation of extractor.Extractor.
type mockExtractor struct {
	info       *domain.MediaInfo
	extractErr error
	streamErr  error
	body       string
	selector   string
}

func (m *mockExtractor) Extract(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.info, nil
}

func (m *mockExtractor) Stream(ctx context.Context, url, selector string, w io.Writer) error {
	m.selector = selector
	if m.body != "" {
		if _, err := io.WriteString(w, m.body); err != nil {
			return err
		}
	}
	return m.streamErr
}

// mockHistory is a LookupRepository that can be made to fail.
type mockHistory struct {
	*repository.InMemoryLookupRepository
	pingErr  error
	statsErr error
}

func newMockHistory() *mockHistory {
	return &mockHistory{InMemoryLookupRepository: repository.NewInMemoryLookupRepository(10)}
}

func (m *mockHistory) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockHistory) Stats(ctx context.Context) (*repository.LookupStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.InMemoryLookupRepository.Stats(ctx)
}

func newTestMediaService(ext *mockExtractor, history repository.LookupRepository) *service.MediaService {
	return service.NewMediaService(ext, history, testConfig(), testLogger())
}

var errStoreDown = errors.New("database is locked")
