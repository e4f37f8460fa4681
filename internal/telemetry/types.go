// Telemetry model shared by the collector, encoder and HTTP endpoint
package telemetry

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// MaxTPS is the host's nominal step rate; derived TPS never exceeds it.
const MaxTPS = 20.0

// PlayerSnapshot carries one participant's identity at collection time.
type PlayerSnapshot struct {
	Name string
	UUID string // canonical form, separators stripped
}

// TickMetrics holds step timing derived from the host's average tick time.
// MSPT and TPS are only meaningful when Available is set; they are never
// reported one without the other.
type TickMetrics struct {
	MSPT      float64
	TPS       float64
	Available bool
}

// Snapshot is one observation of the host. Build it with NewSnapshot and
// treat it as read-only afterwards.
type Snapshot struct {
	MinecraftVersion string
	Loader           string
	Players          []PlayerSnapshot
	Metrics          TickMetrics
}

// NewSnapshot copies players so later changes to the caller's slice do not
// leak into the snapshot. A nil roster becomes an empty one.
func NewSnapshot(version, loader string, players []PlayerSnapshot, metrics TickMetrics) Snapshot {
	cp := make([]PlayerSnapshot, len(players))
	copy(cp, players)
	return Snapshot{
		MinecraftVersion: version,
		Loader:           loader,
		Players:          cp,
		Metrics:          metrics,
	}
}

// Participant is an identity record as reported by the host. The host
// integration layer adapts whatever its API shape is into this.
type Participant interface {
	// DisplayName fails when the underlying profile is malformed.
	DisplayName() (string, error)
	// UniqueID returns the raw identifier; ok is false when the host has none.
	UniqueID() (id string, ok bool)
}

// Roster supplies the participants currently connected.
type Roster interface {
	OnlinePlayers() ([]Participant, error)
}

// TickTimer supplies the host's average step duration in milliseconds.
// ok is false while nothing has been measured yet.
type TickTimer interface {
	AverageTickTimeMs() (ms float64, ok bool)
}

// Source is everything the collector reads from the host.
type Source interface {
	Roster
	TickTimer
}

// ErrMissingName is returned by Profile when the display name is empty.
var ErrMissingName = errors.New("telemetry: profile has no display name")

// Profile is a plain Participant implementation.
type Profile struct {
	Name string
	ID   string
}

// DisplayName implements Participant.
func (p Profile) DisplayName() (string, error) {
	if p.Name == "" {
		return "", ErrMissingName
	}
	return p.Name, nil
}

// UniqueID implements Participant.
func (p Profile) UniqueID() (string, bool) {
	return p.ID, p.ID != ""
}

// CanonicalID strips separators from a participant identifier. UUIDs in any
// form accepted by uuid.Parse come out as 32 lower-case hex digits; anything
// else just loses its dashes.
func CanonicalID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := uuid.Parse(raw); err == nil {
		return strings.ReplaceAll(u.String(), "-", "")
	}
	return strings.ReplaceAll(raw, "-", "")
}
