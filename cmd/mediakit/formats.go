package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iconidentify/mediakit/internal/classify"
	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/extractor"
	"github.com/iconidentify/mediakit/internal/formats"
)

var errNoInput = errors.New("no input: pass a URL or FILE, or pipe yt-dlp JSON on stdin")

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newFormatsCmd(opts *rootOptions) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "formats [URL | FILE | -]",
		Short: "List the selectable video formats",
		Long: `List the selectable video formats of a link, or of yt-dlp --dump-single-json
output read from FILE or standard input ("-" or no argument).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}

			info, err := loadInfo(cmd, opts, source)
			if err != nil {
				return err
			}

			selected := formats.Select(info.Formats, maxResults)

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(selected)
			}

			if info.Title != "" {
				fmt.Fprintln(out, info.Title)
			}
			if len(selected) == 0 {
				fmt.Fprintln(out, "No selectable video formats.")
				return nil
			}
			fmt.Fprintln(out, renderFormats(selected))
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max", "n", formats.DefaultMaxResults, "Maximum number of formats to list")

	return cmd
}

// loadInfo reads media metadata from a link (via yt-dlp), a file, or stdin.
func loadInfo(cmd *cobra.Command, opts *rootOptions, source string) (*domain.MediaInfo, error) {
	if _, ok := classify.Classify(source); ok {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		ytdlp := extractor.NewYTDLP(cfg.Extractor, opts.logger(cmd))
		return ytdlp.Extract(cmd.Context(), source)
	}
	if strings.Contains(source, "://") {
		return nil, fmt.Errorf("%s: %w", source, domain.ErrUnsupportedURL)
	}

	var r io.Reader
	if source == "-" {
		r = cmd.InOrStdin()
		if interactive(r) {
			return nil, errNoInput
		}
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return extractor.ParseInfo(data)
}

// interactive reports whether r is a terminal rather than a pipe or file.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderFormats(selected []domain.SelectedFormat) string {
	rows := make([][]string, 0, len(selected))
	for _, f := range selected {
		fps := "-"
		if f.FPS != nil {
			fps = strconv.Itoa(*f.FPS)
		}
		rows = append(rows, []string{f.FormatID, f.Quality, f.Resolution, f.Container, fps, f.FileSize})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "QUALITY", "RESOLUTION", "CONTAINER", "FPS", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}
