package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrIncompletePayload is returned by Decode when a mandatory key is missing.
var ErrIncompletePayload = errors.New("telemetry: incomplete payload")

// Payload is the wire form served on /telemetry. Field order matches the
// documented key order; nil metrics encode as JSON null.
type Payload struct {
	MC      string          `json:"mc"`
	Loader  string          `json:"loader"`
	MSPT    *float64        `json:"mspt"`
	TPS     *float64        `json:"tps"`
	Players []PayloadPlayer `json:"players"`
}

// PayloadPlayer is one entry of the players array.
type PayloadPlayer struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

var payloadKeys = []string{"mc", "loader", "mspt", "tps", "players"}

// Encode serializes a snapshot. Unavailable or non-finite metrics become null.
func Encode(s Snapshot) (string, error) {
	var mspt, tps *float64
	if s.Metrics.Available {
		mspt = finite(s.Metrics.MSPT)
		tps = finite(s.Metrics.TPS)
	}
	return build(s.MinecraftVersion, s.Loader, s.Players, mspt, tps)
}

// EncodeIdentity serializes identity and roster only, with both metric keys
// set to null. It backs the fallback payload when a full refresh fails.
func EncodeIdentity(version, loader string, players []PlayerSnapshot) (string, error) {
	return build(version, loader, players, nil, nil)
}

func build(version, loader string, players []PlayerSnapshot, mspt, tps *float64) (string, error) {
	p := Payload{
		MC:      version,
		Loader:  loader,
		MSPT:    mspt,
		TPS:     tps,
		Players: make([]PayloadPlayer, 0, len(players)),
	}
	for _, pl := range players {
		p.Players = append(p.Players, PayloadPlayer{Name: pl.Name, UUID: pl.UUID})
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode telemetry payload: %w", err)
	}
	return string(data), nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Decode parses a payload and checks every mandatory key is present.
func Decode(data []byte) (Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("decode telemetry payload: %w", err)
	}
	for _, k := range payloadKeys {
		if _, ok := raw[k]; !ok {
			return Payload{}, fmt.Errorf("%w: missing %q", ErrIncompletePayload, k)
		}
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode telemetry payload: %w", err)
	}
	if p.Players == nil {
		return Payload{}, fmt.Errorf("%w: players is null", ErrIncompletePayload)
	}
	return p, nil
}

// Snapshot converts a decoded payload back into the model.
func (p Payload) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, 0, len(p.Players))
	for _, pl := range p.Players {
		players = append(players, PlayerSnapshot{Name: pl.Name, UUID: pl.UUID})
	}
	var m TickMetrics
	if p.MSPT != nil && p.TPS != nil {
		m = TickMetrics{MSPT: *p.MSPT, TPS: *p.TPS, Available: true}
	}
	return NewSnapshot(p.MC, p.Loader, players, m)
}
