package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 3000, BaseURL: "https://api.example.com"},
		Formats:   config.FormatsConfig{MaxResults: 10},
		Platforms: config.PlatformsConfig{Disabled: []string{"twitter"}},
	}
}

// mockExtractor is a test double for extractor.Extractor.
type mockExtractor struct {
	mu sync.Mutex

	info       *domain.MediaInfo
	extractErr error
	streamErr  error
	body       string

	extractCalls int
	streamURL    string
	selector     string
}

func (m *mockExtractor) Extract(ctx context.Context, url string) (*domain.MediaInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractCalls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.info, nil
}

func (m *mockExtractor) Stream(ctx context.Context, url, selector string, w io.Writer) error {
	m.mu.Lock()
	m.streamURL = url
	m.selector = selector
	m.mu.Unlock()

	if m.streamErr != nil {
		return m.streamErr
	}
	_, err := io.WriteString(w, m.body)
	return err
}

// failingHistory is a LookupRepository whose writes always fail.
type failingHistory struct {
	err error
}

func (f *failingHistory) Record(ctx context.Context, lookup *domain.Lookup) error { return f.err }
func (f *failingHistory) Get(ctx context.Context, id domain.LookupID) (*domain.Lookup, error) {
	return nil, f.err
}
func (f *failingHistory) Recent(ctx context.Context, limit int) ([]*domain.Lookup, error) {
	return nil, f.err
}
func (f *failingHistory) Stats(ctx context.Context) (*repository.LookupStats, error) {
	return nil, f.err
}
func (f *failingHistory) Ping(ctx context.Context) error { return f.err }
func (f *failingHistory) Close() error                   { return nil }

// recordingTarget captures a download.
type recordingTarget struct {
	filename string
	begun    int
	body     []byte
}

func (r *recordingTarget) Begin(filename string) {
	r.filename = filename
	r.begun++
}

func (r *recordingTarget) Write(p []byte) (int, error) {
	r.body = append(r.body, p...)
	return len(p), nil
}
