package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	jsonOutput bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mediakit",
		Short: "Classify video links and pick download formats",
		Long: `mediakit recognizes YouTube, TikTok, Twitter/X and Instagram links and
reduces yt-dlp's format list to a short, deduplicated list of video qualities.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	root.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Print results as JSON")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "x", false, "Debug logging to stderr")

	root.AddCommand(newClassifyCmd(opts))
	root.AddCommand(newFormatsCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// logger returns a text logger on the command's stderr.
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
