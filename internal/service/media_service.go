package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/mediakit/internal/classify"
	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/extractor"
	"github.com/iconidentify/mediakit/internal/formats"
	"github.com/iconidentify/mediakit/internal/repository"
)

const (
	maxFilenameLength = 50
	defaultTitle      = "video"
)

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// MediaService orchestrates format lookups and downloads.
type MediaService struct {
	extractor  extractor.Extractor
	history    repository.LookupRepository
	platforms  config.PlatformsConfig
	maxFormats int
	baseURL    string
	logger     *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(
	ext extractor.Extractor,
	history repository.LookupRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *MediaService {
	maxFormats := cfg.Formats.MaxResults
	if maxFormats <= 0 {
		maxFormats = formats.DefaultMaxResults
	}

	return &MediaService{
		extractor:  ext,
		history:    history,
		platforms:  cfg.Platforms,
		maxFormats: maxFormats,
		baseURL:    cfg.Server.PublicBaseURL(),
		logger:     logger,
	}
}

// LookupResult is returned after a successful format lookup.
type LookupResult struct {
	LookupID    domain.LookupID
	Platform    domain.Platform
	VideoID     string
	Title       string
	Thumbnail   string
	Formats     []domain.SelectedFormat
	DownloadURL string
}

// DownloadTarget receives streamed media.
type DownloadTarget interface {
	io.Writer

	// Begin is called once, before any media bytes, with the attachment filename.
	Begin(filename string)
}

// Resolve classifies rawURL, optionally restricted to platform, and checks
// that downloads for its platform are enabled.
func (s *MediaService) Resolve(rawURL string, platform domain.Platform) (domain.ClassifiedURL, error) {
	if rawURL == "" {
		return domain.ClassifiedURL{}, domain.NewLookupError(platform, "", "resolve", domain.ErrUnsupportedURL)
	}

	var (
		classified domain.ClassifiedURL
		ok         bool
	)
	if platform == "" {
		classified, ok = classify.Classify(rawURL)
	} else {
		classified, ok = classify.ClassifyAs(rawURL, platform)
	}

	if !ok {
		err := domain.ErrUnsupportedURL
		if platform != "" {
			if _, other := classify.Classify(rawURL); other {
				err = domain.ErrPlatformMismatch
			}
		}
		return domain.ClassifiedURL{}, domain.NewLookupError(platform, classify.Host(rawURL), "resolve", err)
	}

	if s.platforms.IsDisabled(classified.Platform.String()) {
		return classified, domain.NewLookupError(classified.Platform, "", "resolve", domain.ErrPlatformUnavailable)
	}

	return classified, nil
}

// Lookup extracts the available formats for rawURL and records the lookup.
// An empty platform accepts any supported platform.
func (s *MediaService) Lookup(ctx context.Context, rawURL string, platform domain.Platform) (*LookupResult, error) {
	classified, err := s.Resolve(rawURL, platform)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("platform", classified.Platform, "external_id", classified.ExternalID)
	logger.Info("looking up formats")

	start := time.Now()
	info, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		logger.Warn("extraction failed", "error", err, "duration", time.Since(start))
		return nil, domain.NewLookupError(classified.Platform, "", "extract", err)
	}

	selected := formats.Select(info.Formats, s.maxFormats)

	result := &LookupResult{
		LookupID:    domain.LookupID("lkp_" + uuid.New().String()[:8]),
		Platform:    classified.Platform,
		VideoID:     classified.ExternalID,
		Title:       info.Title,
		Thumbnail:   thumbnail(classified, info.Thumbnail),
		Formats:     selected,
		DownloadURL: s.DownloadURL(classified.Platform, rawURL),
	}

	logger.Info("formats selected",
		"lookup_id", result.LookupID,
		"raw_formats", len(info.Formats),
		"selected", len(selected),
		"duration", time.Since(start),
	)

	if s.history != nil {
		err := s.history.Record(ctx, &domain.Lookup{
			ID:          result.LookupID,
			Platform:    classified.Platform,
			ExternalID:  classified.ExternalID,
			URL:         rawURL,
			Title:       info.Title,
			FormatCount: len(selected),
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("failed to record lookup", "lookup_id", result.LookupID, "error", err)
		}
	}

	return result, nil
}

// Download streams the media at rawURL to target. An empty formatID picks
// the platform's default selector.
func (s *MediaService) Download(ctx context.Context, rawURL string, platform domain.Platform, formatID string, target DownloadTarget) error {
	classified, err := s.Resolve(rawURL, platform)
	if err != nil {
		return err
	}

	selector, err := extractor.Selector(classified.Platform, formatID)
	if err != nil {
		return domain.NewLookupError(classified.Platform, "", "download", err)
	}

	info, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		return domain.NewLookupError(classified.Platform, "", "download", err)
	}

	filename := Filename(info.Title)
	s.logger.Info("starting download",
		"platform", classified.Platform,
		"external_id", classified.ExternalID,
		"selector", selector,
		"filename", filename,
	)

	target.Begin(filename)
	if err := s.extractor.Stream(ctx, rawURL, selector, target); err != nil {
		return domain.NewLookupError(classified.Platform, "", "stream", err)
	}
	return nil
}

// DownloadURL returns the streaming endpoint for rawURL.
func (s *MediaService) DownloadURL(platform domain.Platform, rawURL string) string {
	return fmt.Sprintf("%s/api/download-%s-stream?url=%s", s.baseURL, platform, url.QueryEscape(rawURL))
}

// History returns up to limit recent lookups, newest first.
func (s *MediaService) History(ctx context.Context, limit int) ([]*domain.Lookup, error) {
	if s.history == nil {
		return []*domain.Lookup{}, nil
	}
	lookups, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent lookups: %w", err)
	}
	if lookups == nil {
		lookups = []*domain.Lookup{}
	}
	return lookups, nil
}

// GetLookup returns a recorded lookup.
func (s *MediaService) GetLookup(ctx context.Context, id domain.LookupID) (*domain.Lookup, error) {
	if s.history == nil {
		return nil, domain.ErrLookupNotFound
	}
	return s.history.Get(ctx, id)
}

// Stats returns lookup history statistics.
func (s *MediaService) Stats(ctx context.Context) (*repository.LookupStats, error) {
	if s.history == nil {
		return &repository.LookupStats{ByPlatform: map[domain.Platform]int{}}, nil
	}
	stats, err := s.history.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup stats: %w", err)
	}
	return stats, nil
}

// Ping reports whether the history store is reachable.
func (s *MediaService) Ping(ctx context.Context) error {
	if s.history == nil {
		return nil
	}
	return s.history.Ping(ctx)
}

// Filename turns a media title into a safe attachment filename.
func Filename(title string) string {
	if title == "" {
		title = defaultTitle
	}
	name := filenameUnsafe.ReplaceAllString(title, "_")
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	return name + ".mp4"
}

func thumbnail(c domain.ClassifiedURL, extracted string) string {
	if extracted != "" || c.Platform != domain.PlatformYouTube {
		return extracted
	}
	return "https://img.youtube.com/vi/" + c.ExternalID + "/maxresdefault.jpg"
}

// IsClientError reports whether err was caused by the request rather than
// the extraction tool.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedURL) ||
		errors.Is(err, domain.ErrPlatformMismatch) ||
		errors.Is(err, domain.ErrInvalidFormatID)
}
