package extractor

import (
	"context"
	"io"

	"github.com/iconidentify/mediakit/internal/domain"
)

// Extractor obtains media metadata and content from an external tool.
type Extractor interface {
	// Extract returns metadata, including the raw format list, for url.
	Extract(ctx context.Context, url string) (*domain.MediaInfo, error)

	// Stream writes the media selected by the tool's format selector to w.
	Stream(ctx context.Context, url, selector string, w io.Writer) error
}
