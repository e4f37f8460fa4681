package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/sprocketaudio/mctelemetry/internal/logging"
)

// Options control a watch session.
type Options struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
	Once     bool
	// Plain forces line output even on a terminal.
	Plain bool
	Out   io.Writer
}

// Run polls until ctx is done. It uses the TUI when Out is a terminal and
// plain summary lines otherwise.
func Run(ctx context.Context, opts Options) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	c := NewClient(opts.URL, opts.Timeout)

	if opts.Once {
		fetchCtx, cancel := context.WithTimeout(ctx, c.http.Timeout)
		defer cancel()
		p, err := c.Fetch(fetchCtx)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", c.URL(), err)
		}
		fmt.Fprintln(opts.Out, Summary(p, isTerminal(opts.Out)))
		return nil
	}

	if !opts.Plain && isTerminal(opts.Out) {
		p := tea.NewProgram(newTUIModel(c, opts.Interval), tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(opts.Out))
		_, err := p.Run()
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return runPlain(ctx, c, opts.Interval, opts.Out)
}

func runPlain(ctx context.Context, c *Client, interval time.Duration, out io.Writer) error {
	log := logging.FromContext(ctx)
	color := isTerminal(out)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, c.http.Timeout)
		p, err := c.Fetch(fetchCtx)
		cancel()
		if err != nil {
			log.Warn("poll failed", "url", c.URL(), "err", err)
		} else {
			fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), Summary(p, color))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
