package domain

import "errors"

// Domain errors.
var (
	// ErrUnsupportedURL is returned when a URL matches none of the supported platforms.
	ErrUnsupportedURL = errors.New("unsupported URL")

	// ErrPlatformMismatch is returned when a URL belongs to a different platform than the endpoint.
	ErrPlatformMismatch = errors.New("URL does not belong to this platform")

	// ErrPlatformUnavailable is returned when downloads for a platform are disabled.
	ErrPlatformUnavailable = errors.New("platform temporarily unavailable")

	// ErrExtractionFailed is returned when the extraction tool fails.
	ErrExtractionFailed = errors.New("media extraction failed")

	// ErrExtractionTimeout is returned when the extraction tool runs out of time.
	ErrExtractionTimeout = errors.New("media extraction timed out")

	// ErrMediaUnavailable is returned when the media is private, removed or geo-blocked.
	ErrMediaUnavailable = errors.New("media unavailable")

	// ErrInvalidFormatID is returned when a requested format ID is malformed.
	ErrInvalidFormatID = errors.New("invalid format ID")

	// ErrLookupNotFound is returned when a recorded lookup does not exist.
	ErrLookupNotFound = errors.New("lookup not found")
)

// LookupError wraps an error with the URL it concerns.
type LookupError struct {
	Platform Platform
	Host     string
	Op       string
	Err      error
}

func (e *LookupError) Error() string {
	if e.Platform != "" {
		return e.Op + " [" + e.Platform.String() + "]: " + e.Err.Error()
	}
	if e.Host != "" {
		return e.Op + " [" + e.Host + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError creates a new LookupError.
func NewLookupError(platform Platform, host, op string, err error) *LookupError {
	return &LookupError{
		Platform: platform,
		Host:     host,
		Op:       op,
		Err:      err,
	}
}
