// Package command implements the in-process console surface. The only
// command is "telemetry json <nonce>", which prints a one-shot payload
// without touching the service cache.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

// RequiredPermission is the minimum sender level for the telemetry command.
const RequiredPermission = 2

// OperatorPermission is the level of the server console.
const OperatorPermission = 4

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidNonce     = errors.New("nonce must be a single word")
)

var nonceRe = regexp.MustCompile(`^[0-9A-Za-z_.+-]+$`)

// Sender is whoever issued a command.
type Sender interface {
	PermissionLevel() int
	SendMessage(msg string)
}

// Dispatcher runs console commands against a live source.
type Dispatcher struct {
	Source  telemetry.Source
	Version string
	Loader  string
	Log     *slog.Logger
	Verbose func() bool
}

// Execute parses and runs one command line. A leading slash is accepted.
func (d *Dispatcher) Execute(sender Sender, line string) error {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 || fields[0] != "telemetry" {
		return ErrUnknownCommand
	}
	if sender.PermissionLevel() < RequiredPermission {
		return ErrPermissionDenied
	}
	if len(fields) < 2 || fields[1] != "json" {
		return fmt.Errorf("%w: usage: telemetry json <nonce>", ErrUnknownCommand)
	}
	if len(fields) != 3 || !nonceRe.MatchString(fields[2]) {
		return ErrInvalidNonce
	}
	nonce := fields[2]

	payload, err := d.TelemetryJSON()
	if err != nil {
		return err
	}
	out := "TELEMETRY " + nonce + " " + payload
	d.logger().Info(out)
	sender.SendMessage(out)
	return nil
}

// TelemetryJSON collects and encodes one payload directly.
func (d *Dispatcher) TelemetryJSON() (string, error) {
	verbose := d.Verbose != nil && d.Verbose()
	c := telemetry.Collector{Log: d.logger(), Verbose: verbose}
	return telemetry.Encode(c.Collect(d.Source, d.Version, d.Loader))
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// Console is the operator console: full permissions, replies go to W.
type Console struct {
	W io.Writer
}

func (c Console) PermissionLevel() int { return OperatorPermission }

func (c Console) SendMessage(msg string) {
	fmt.Fprintln(c.W, msg)
}

// ServeConsole reads command lines from r until EOF or ctx is done.
// Errors are reported back to the console and never end the loop.
func (d *Dispatcher) ServeConsole(ctx context.Context, r io.Reader, sender Sender) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := d.Execute(sender, line); err != nil {
				sender.SendMessage("error: " + err.Error())
			}
		}
	}
}
