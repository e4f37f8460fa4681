package watch

import (
	"fmt"
	"strings"

	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorGray   = "\x1b[90m"
)

// Level buckets server health by ticks per second.
type Level int

const (
	LevelUnknown Level = iota
	LevelGood
	LevelStrained
	LevelLagging
)

// LevelOf grades a TPS value; nil is unknown.
func LevelOf(tps *float64) Level {
	switch {
	case tps == nil:
		return LevelUnknown
	case *tps >= 19.5:
		return LevelGood
	case *tps >= 15:
		return LevelStrained
	default:
		return LevelLagging
	}
}

func (l Level) ansi() string {
	switch l {
	case LevelGood:
		return colorGreen
	case LevelStrained:
		return colorYellow
	case LevelLagging:
		return colorRed
	default:
		return colorGray
	}
}

func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}

// Summary renders one line describing p. Colour is ANSI when color is set.
func Summary(p telemetry.Payload, color bool) string {
	names := make([]string, len(p.Players))
	for i, pl := range p.Players {
		names[i] = pl.Name
	}
	tps := "tps=" + formatMetric(p.TPS)
	if color {
		tps = LevelOf(p.TPS).ansi() + tps + colorReset
	}
	return fmt.Sprintf("mc=%s loader=%s mspt=%s %s players=%d [%s]",
		p.MC, p.Loader, formatMetric(p.MSPT), tps, len(p.Players), strings.Join(names, ", "))
}
