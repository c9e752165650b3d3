// Package formats turns the extraction tool's raw format list into the short,
// ordered list of downloadable resolutions shown to users.
package formats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/iconidentify/mediakit/internal/domain"
)

// DefaultMaxResults is the number of formats offered per video.
const DefaultMaxResults = 10

// UnknownSizeLabel is shown when neither an exact nor an approximate size is known.
const UnknownSizeLabel = "Calculating..."

// MergedAudio is reported as the audio codec: audio is always muxed in on download.
const MergedAudio = "merged"

var acceptedContainers = map[string]bool{
	"mp4":  true,
	"webm": true,
}

// Select filters raw to video formats in accepted containers, orders them by
// height (descending, stable), keeps the first entry per height and returns
// at most maxResults entries.
func Select(raw []domain.RawFormat, maxResults int) []domain.SelectedFormat {
	if maxResults <= 0 {
		return []domain.SelectedFormat{}
	}

	candidates := lo.Filter(raw, func(f domain.RawFormat, _ int) bool {
		return Acceptable(f)
	})

	// Stable: among equal heights the first listed variant must win the dedup.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Height > candidates[j].Height
	})

	unique := lo.UniqBy(candidates, func(f domain.RawFormat) int {
		return f.Height
	})
	if len(unique) > maxResults {
		unique = unique[:maxResults]
	}

	return lo.Map(unique, func(f domain.RawFormat, _ int) domain.SelectedFormat {
		return toSelected(f)
	})
}

// Acceptable reports whether f survives the filter step.
func Acceptable(f domain.RawFormat) bool {
	return f.HasVideo() && f.Height > 0 && acceptedContainers[strings.ToLower(f.Ext)]
}

func toSelected(f domain.RawFormat) domain.SelectedFormat {
	quality := f.FormatNote
	if quality == "" {
		quality = strconv.Itoa(f.Height) + "p"
	}

	return domain.SelectedFormat{
		FormatID:        f.FormatID,
		Quality:         quality,
		Container:       f.Ext,
		Resolution:      fmt.Sprintf("%dx%d", f.Width, f.Height),
		FileSize:        SizeLabel(f.FileSize, f.FileSizeApprox),
		FPS:             roundFPS(f.FPS),
		VideoCodec:      f.VideoCodec,
		AudioCodec:      MergedAudio,
		Height:          f.Height,
		Width:           f.Width,
		SizeBytes:       f.FileSize,
		ApproxSizeBytes: f.FileSizeApprox,
	}
}

// SizeLabel formats a byte size for display: the exact size in megabytes with
// one decimal, else the approximate size prefixed with "~", else a placeholder.
func SizeLabel(exact, approx *int64) string {
	if exact != nil && *exact > 0 {
		return fmt.Sprintf("%.1f MB", megabytes(*exact))
	}
	if approx != nil && *approx > 0 {
		return fmt.Sprintf("~%.1f MB", megabytes(*approx))
	}
	return UnknownSizeLabel
}

func megabytes(b int64) float64 {
	return float64(b) / 1024 / 1024
}

func roundFPS(fps *float64) *int {
	if fps == nil || *fps <= 0 || math.IsNaN(*fps) || math.IsInf(*fps, 0) {
		return nil
	}
	v := int(math.Round(*fps))
	return &v
}

// FromSelected rebuilds a raw descriptor from a selected format, so that a
// selection can be fed back through Select.
func FromSelected(s domain.SelectedFormat) domain.RawFormat {
	f := domain.RawFormat{
		FormatID:       s.FormatID,
		Height:         s.Height,
		Width:          s.Width,
		VideoCodec:     s.VideoCodec,
		Ext:            s.Container,
		FileSize:       s.SizeBytes,
		FileSizeApprox: s.ApproxSizeBytes,
		FormatNote:     s.Quality,
	}
	if s.FPS != nil {
		fps := float64(*s.FPS)
		f.FPS = &fps
	}
	return f
}
