package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sprocketaudio/mctelemetry/internal/logging"
)

var errNilParticipant = errors.New("telemetry: nil participant")

// Collector turns live host state into a Snapshot. Each field is read
// independently: a failing roster never blanks the timing metrics and vice
// versa. Failures are reported through the detail log only.
type Collector struct {
	Log     *slog.Logger
	Verbose bool
}

// Collect never fails. Errors and panics from src degrade the affected
// field to its empty representation.
func (c Collector) Collect(src Source, version, loader string) Snapshot {
	if src == nil {
		c.detail("no telemetry source; payload will carry identity only")
		return NewSnapshot(version, loader, nil, TickMetrics{})
	}
	players := c.safePlayers(src)
	metrics := c.readTickMetrics(src)
	return NewSnapshot(version, loader, players, metrics)
}

func (c Collector) safePlayers(src Roster) (players []PlayerSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			c.detail("failed to fetch online players; proceeding with empty list", "panic", r)
			players = nil
		}
	}()

	online, err := src.OnlinePlayers()
	if err != nil {
		c.detail("failed to fetch online players; proceeding with empty list", "err", err)
		return nil
	}
	if len(online) == 0 {
		c.detail("no online players detected; payload will contain an empty player list")
		return nil
	}

	c.detail("snapshotting online players", "count", len(online))
	players = make([]PlayerSnapshot, 0, len(online))
	for i, p := range online {
		snap, err := toSnapshot(p)
		if err != nil {
			c.detail("failed to snapshot player", "index", i, "err", err)
			continue
		}
		players = append(players, snap)
	}
	return players
}

func toSnapshot(p Participant) (snap PlayerSnapshot, err error) {
	if p == nil {
		return PlayerSnapshot{}, errNilParticipant
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("telemetry: participant conversion panicked: %v", r)
		}
	}()

	name, err := p.DisplayName()
	if err != nil {
		return PlayerSnapshot{}, fmt.Errorf("display name: %w", err)
	}
	id, ok := p.UniqueID()
	if !ok {
		id = ""
	}
	return PlayerSnapshot{Name: name, UUID: CanonicalID(id)}, nil
}

func (c Collector) readTickMetrics(src TickTimer) (m TickMetrics) {
	defer func() {
		if r := recover(); r != nil {
			c.detail("failed reading tick timing data", "panic", r)
			m = TickMetrics{}
		}
	}()

	avg, ok := src.AverageTickTimeMs()
	if !ok || math.IsNaN(avg) || math.IsInf(avg, 0) || avg < 0 {
		c.detail("average tick time unavailable or invalid; mspt/tps will be null")
		return TickMetrics{}
	}
	return DeriveMetrics(avg)
}

// DeriveMetrics rounds avgMs to one decimal and derives TPS from it, capped
// at MaxTPS. A rounded average of zero means an idle host and reports MaxTPS.
func DeriveMetrics(avgMs float64) TickMetrics {
	mspt := RoundToTenth(avgMs)
	tps := MaxTPS
	if mspt > 0 {
		tps = RoundToTenth(math.Min(MaxTPS, 1000.0/mspt))
	}
	return TickMetrics{MSPT: mspt, TPS: tps, Available: true}
}

// RoundToTenth rounds half up at one decimal digit.
func RoundToTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func (c Collector) detail(msg string, args ...any) {
	logging.Detail(c.Log, c.Verbose, msg, args...)
}
