package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediakit/internal/classify"
	"github.com/iconidentify/mediakit/internal/domain"
)

// classifyResult is one line of classify output.
type classifyResult struct {
	URL        string          `json:"url"`
	Platform   domain.Platform `json:"platform,omitempty"`
	ExternalID string          `json:"externalId,omitempty"`
	Host       string          `json:"host,omitempty"`
	Recognized bool            `json:"recognized"`
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify URL...",
		Short: "Identify the platform and video ID of links",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]classifyResult, 0, len(args))
			unrecognized := 0

			for _, raw := range args {
				c, ok := classify.Classify(raw)
				r := classifyResult{URL: raw, Recognized: ok}
				if ok {
					r.Platform = c.Platform
					r.ExternalID = c.ExternalID
				} else {
					r.Host = classify.Host(raw)
					unrecognized++
				}
				results = append(results, r)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Recognized {
						fmt.Fprintf(out, "%s\t%s\t%s\n", r.Platform, r.ExternalID, r.URL)
					} else {
						fmt.Fprintf(out, "unsupported\t-\t%s\n", r.URL)
					}
				}
			}

			if unrecognized > 0 {
				return fmt.Errorf("%d of %d links not recognized: %w", unrecognized, len(args), domain.ErrUnsupportedURL)
			}
			return nil
		},
	}
}
