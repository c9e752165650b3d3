package domain

import "time"

// RawFormat is a single format entry as reported by the extraction tool.
// Missing or null fields decode to their zero value and are treated as absent.
type RawFormat struct {
	FormatID       string   `json:"format_id"`
	Height         int      `json:"height"`
	Width          int      `json:"width"`
	VideoCodec     string   `json:"vcodec"`
	AudioCodec     string   `json:"acodec"`
	Ext            string   `json:"ext"`
	FileSize       *int64   `json:"filesize"`
	FileSizeApprox *int64   `json:"filesize_approx"`
	FPS            *float64 `json:"fps"`
	FormatNote     string   `json:"format_note"`
}

// HasVideo reports whether the entry carries a video stream.
func (f RawFormat) HasVideo() bool {
	return f.VideoCodec != "" && f.VideoCodec != "none"
}

// SelectedFormat is a format offered to the user after filtering and dedup.
type SelectedFormat struct {
	FormatID   string `json:"formatId"`
	Quality    string `json:"quality"`
	Container  string `json:"container"`
	Resolution string `json:"resolution"`
	FileSize   string `json:"filesize"`
	FPS        *int   `json:"fps"`
	VideoCodec string `json:"vcodec,omitempty"`
	AudioCodec string `json:"acodec,omitempty"`

	// Source dimensions and sizes; not part of the wire format.
	Height          int    `json:"-"`
	Width           int    `json:"-"`
	SizeBytes       *int64 `json:"-"`
	ApproxSizeBytes *int64 `json:"-"`
}

// MediaInfo is the subset of the extraction tool's metadata the service uses.
type MediaInfo struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Thumbnail string      `json:"thumbnail"`
	Uploader  string      `json:"uploader"`
	Duration  float64     `json:"duration"`
	Formats   []RawFormat `json:"formats"`
}

// LookupID is a unique identifier for a recorded lookup.
type LookupID string

// String returns the string representation of the LookupID.
func (id LookupID) String() string {
	return string(id)
}

// Lookup records a successful format lookup.
type Lookup struct {
	ID          LookupID  `json:"id"`
	Platform    Platform  `json:"platform"`
	ExternalID  string    `json:"externalId"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	FormatCount int       `json:"formatCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
