package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprocketaudio/mctelemetry/internal/watch"
)

const minInterval = 100 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var opts watch.Options
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a telemetry endpoint and display it",
		Long:  "watch polls /telemetry at an interval and renders a live view, or plain lines when output is not a terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			opts.Out = cmd.OutOrStdout()
			if opts.Interval < minInterval {
				opts.Interval = minInterval
			}
			return watch.Run(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "http://127.0.0.1:8765", "Endpoint base URL")
	cmd.Flags().DurationVar(&opts.Interval, "interval", watch.DefaultInterval, "Polling interval")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", watch.DefaultTimeout, "Per-request timeout")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Print one summary line and exit")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Print lines instead of the interactive view")
	return cmd
}
