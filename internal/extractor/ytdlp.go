package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/domain"
)

// Format selectors used when the caller did not pick a format.
const (
	DefaultYouTubeSelector = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"
	DefaultSelector        = "best[ext=mp4]/best"
)

const stderrTailSize = 2048

// waitDelay bounds how long a killed subprocess may hold its pipes open.
const waitDelay = 2 * time.Second

var formatIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.=-]{1,64}$`)

// unavailableMarkers are yt-dlp error fragments that no retry will fix.
var unavailableMarkers = []string{
	"Video unavailable",
	"Private video",
	"This video is private",
	"has been removed",
	"not available in your country",
	"Sign in to confirm your age",
	"No video could be found",
}

// YTDLP runs yt-dlp as a subprocess.
type YTDLP struct {
	binary             string
	timeout            time.Duration
	noCheckCertificate bool
	retry              RetryConfig
	logger             *slog.Logger
}

// NewYTDLP creates a yt-dlp backed extractor.
func NewYTDLP(cfg config.ExtractorConfig, logger *slog.Logger) *YTDLP {
	binary := cfg.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &YTDLP{
		binary:             binary,
		timeout:            timeout,
		noCheckCertificate: cfg.NoCheckCertificate,
		retry:              RetryConfigFrom(cfg),
		logger:             logger,
	}
}

// Available reports whether the yt-dlp binary can be found.
func (y *YTDLP) Available() error {
	if _, err := exec.LookPath(y.binary); err != nil {
		return fmt.Errorf("%s not found: %w", y.binary, err)
	}
	return nil
}

// Extract runs yt-dlp in JSON dump mode and decodes its output, retrying
// transient failures.
func (y *YTDLP) Extract(ctx context.Context, url string) (*domain.MediaInfo, error) {
	attempt := 0
	return RetryWithCheck(ctx, y.retry, func() (*domain.MediaInfo, error) {
		attempt++
		info, err := y.extractOnce(ctx, url)
		if err != nil {
			y.logger.Warn("extraction attempt failed",
				"attempt", attempt,
				"max_attempts", y.retry.MaxAttempts,
				"error", err,
			)
		}
		return info, err
	}, func(err error) bool {
		return ctx.Err() == nil && IsRetryable(err)
	})
}

func (y *YTDLP) extractOnce(ctx context.Context, url string) (*domain.MediaInfo, error) {
	runCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, y.binary, y.infoArgs(url)...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, y.classifyFailure(ctx, runCtx, err, stderr.String())
	}

	return ParseInfo(stdout.Bytes())
}

func (y *YTDLP) infoArgs(url string) []string {
	args := []string{"--dump-single-json", "--no-warnings", "--no-playlist"}
	if y.noCheckCertificate {
		args = append(args, "--no-check-certificate")
	}
	return append(args, "--", url)
}

func (y *YTDLP) classifyFailure(parent, run context.Context, err error, stderr string) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", domain.ErrExtractionTimeout, y.timeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s is not installed: %w", domain.ErrExtractionFailed, y.binary, err)
	}

	msg := truncate(strings.TrimSpace(stderr), 200)
	for _, marker := range unavailableMarkers {
		if strings.Contains(stderr, marker) {
			return fmt.Errorf("%w: %s", domain.ErrMediaUnavailable, msg)
		}
	}
	if msg == "" {
		return fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrExtractionFailed, msg)
}

// IsRetryable reports whether another extraction attempt could succeed.
func IsRetryable(err error) bool {
	if errors.Is(err, domain.ErrMediaUnavailable) ||
		errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, domain.ErrExtractionFailed) || errors.Is(err, domain.ErrExtractionTimeout)
}

// ParseInfo decodes yt-dlp's --dump-single-json output.
func ParseInfo(data []byte) (*domain.MediaInfo, error) {
	var info domain.MediaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: decode output: %w", domain.ErrExtractionFailed, err)
	}
	return &info, nil
}

// Stream runs yt-dlp writing the merged media to w. Cancelling ctx kills the
// subprocess.
func (y *YTDLP) Stream(ctx context.Context, url, selector string, w io.Writer) error {
	args := []string{
		"-f", selector,
		"--merge-output-format", "mp4",
		"-o", "-",
		"--add-metadata",
		"--no-warnings",
		"--no-playlist",
	}
	if y.noCheckCertificate {
		args = append(args, "--no-check-certificate")
	}
	args = append(args, "--", url)

	stderr := &stderrLogger{logger: y.logger}
	cmd := exec.CommandContext(ctx, y.binary, args...)
	cmd.WaitDelay = waitDelay
	cmd.Stdout = w
	cmd.Stderr = stderr

	y.logger.Info("streaming media", "selector", selector)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s is not installed: %w", domain.ErrExtractionFailed, y.binary, err)
		}
		return fmt.Errorf("%w: stream: %s", domain.ErrExtractionFailed, truncate(strings.TrimSpace(stderr.Tail()), 200))
	}
	return nil
}

// Selector returns the yt-dlp format selector for a download. An empty
// formatID picks the platform default.
func Selector(platform domain.Platform, formatID string) (string, error) {
	if formatID != "" {
		if !formatIDRegex.MatchString(formatID) {
			return "", domain.ErrInvalidFormatID
		}
		return formatID + "+bestaudio/best", nil
	}
	if platform == domain.PlatformYouTube {
		return DefaultYouTubeSelector, nil
	}
	return DefaultSelector, nil
}

// stderrLogger logs each line yt-dlp writes to stderr and keeps the tail
// for error messages.
type stderrLogger struct {
	logger *slog.Logger

	mu      sync.Mutex
	partial []byte
	tail    []byte
}

func (s *stderrLogger) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tail = append(s.tail, p...)
	if len(s.tail) > stderrTailSize {
		s.tail = s.tail[len(s.tail)-stderrTailSize:]
	}

	s.partial = append(s.partial, p...)
	for {
		// Progress updates end in \r rather than \n.
		i := bytes.IndexAny(s.partial, "\r\n")
		if i < 0 {
			break
		}
		if line := strings.TrimSpace(string(s.partial[:i])); line != "" {
			s.logger.Debug("yt-dlp", "stderr", line)
		}
		s.partial = s.partial[i+1:]
	}
	if len(s.partial) > stderrTailSize {
		s.partial = s.partial[len(s.partial)-stderrTailSize:]
	}
	return len(p), nil
}

// Tail returns the last bytes written.
func (s *stderrLogger) Tail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.tail)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
