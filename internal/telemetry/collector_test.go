package telemetry

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sprocketaudio/mctelemetry/internal/logging"
)

type fakeSource struct {
	players    []Participant
	rosterErr  error
	rosterBoom bool
	avg        float64
	avgOK      bool
	timerBoom  bool
}

func (f *fakeSource) OnlinePlayers() ([]Participant, error) {
	if f.rosterBoom {
		panic("player list not ready")
	}
	return f.players, f.rosterErr
}

func (f *fakeSource) AverageTickTimeMs() (float64, bool) {
	if f.timerBoom {
		panic("tick times missing")
	}
	return f.avg, f.avgOK
}

type panickyParticipant struct{}

func (panickyParticipant) DisplayName() (string, error) { panic("profile unavailable") }
func (panickyParticipant) UniqueID() (string, bool)     { return "", false }

const ariID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func quietCollector() Collector {
	return Collector{Log: logging.Discard()}
}

func TestCollectSinglePlayerWithTiming(t *testing.T) {
	src := &fakeSource{
		players: []Participant{Profile{Name: "Ari", ID: ariID}},
		avg:     25.0,
		avgOK:   true,
	}
	snap := quietCollector().Collect(src, "1.20.1", "forge")

	if snap.MinecraftVersion != "1.20.1" || snap.Loader != "forge" {
		t.Fatalf("unexpected identity: %+v", snap)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(snap.Players))
	}
	if got := snap.Players[0]; got.Name != "Ari" || got.UUID != "0f8fad5bd9cb469fa16570867728950e" {
		t.Errorf("unexpected player snapshot: %+v", got)
	}
	if !snap.Metrics.Available || snap.Metrics.MSPT != 25.0 || snap.Metrics.TPS != 20.0 {
		t.Errorf("unexpected metrics: %+v", snap.Metrics)
	}
}

func TestCollectZeroAverageDefaultsTPS(t *testing.T) {
	snap := quietCollector().Collect(&fakeSource{avg: 0, avgOK: true}, "1.20.1", "forge")
	if !snap.Metrics.Available {
		t.Fatalf("expected metrics for a zero reading")
	}
	if snap.Metrics.MSPT != 0 || snap.Metrics.TPS != 20.0 {
		t.Errorf("expected mspt=0 tps=20, got %+v", snap.Metrics)
	}
}

func TestCollectUnavailableTiming(t *testing.T) {
	cases := map[string]*fakeSource{
		"absent":   {avg: 12, avgOK: false},
		"nan":      {avg: math.NaN(), avgOK: true},
		"negative": {avg: -3, avgOK: true},
		"inf":      {avg: math.Inf(1), avgOK: true},
	}
	for name, src := range cases {
		snap := quietCollector().Collect(src, "1.20.1", "forge")
		if snap.Metrics.Available {
			t.Errorf("%s: expected unavailable metrics, got %+v", name, snap.Metrics)
		}
	}
}

func TestDeriveMetrics(t *testing.T) {
	cases := []struct {
		avg, mspt, tps float64
	}{
		{avg: 62.46, mspt: 62.5, tps: 16.0},
		{avg: 100, mspt: 100, tps: 10},
		{avg: 33.33, mspt: 33.3, tps: 20},
		{avg: 0.04, mspt: 0, tps: 20},
		{avg: 0.05, mspt: 0.1, tps: 20},
		{avg: 75, mspt: 75, tps: 13.3},
	}
	for _, tc := range cases {
		m := DeriveMetrics(tc.avg)
		if m.MSPT != tc.mspt || m.TPS != tc.tps || !m.Available {
			t.Errorf("DeriveMetrics(%v)=%+v, want mspt=%v tps=%v", tc.avg, m, tc.mspt, tc.tps)
		}
	}
}

func TestRoundToTenth(t *testing.T) {
	cases := map[float64]float64{
		1.25:  1.3,
		1.24:  1.2,
		49.95: 50.0,
		0:     0,
	}
	for in, want := range cases {
		if got := RoundToTenth(in); got != want {
			t.Errorf("RoundToTenth(%v)=%v, want %v", in, got, want)
		}
	}
}

func TestCollectRosterFailureKeepsMetrics(t *testing.T) {
	for name, src := range map[string]*fakeSource{
		"error": {rosterErr: errors.New("boom"), avg: 50, avgOK: true},
		"panic": {rosterBoom: true, avg: 50, avgOK: true},
	} {
		snap := quietCollector().Collect(src, "1.20.1", "forge")
		if snap.Players == nil || len(snap.Players) != 0 {
			t.Errorf("%s: expected empty non-nil roster, got %#v", name, snap.Players)
		}
		if !snap.Metrics.Available || snap.Metrics.MSPT != 50 || snap.Metrics.TPS != 20 {
			t.Errorf("%s: expected metrics to survive roster failure, got %+v", name, snap.Metrics)
		}
	}
}

func TestCollectTimingFailureKeepsPlayers(t *testing.T) {
	src := &fakeSource{
		players:   []Participant{Profile{Name: "Ari", ID: ariID}, Profile{Name: "Bo", ID: "b0"}},
		timerBoom: true,
	}
	snap := quietCollector().Collect(src, "1.20.1", "forge")
	if snap.Metrics.Available {
		t.Errorf("expected unavailable metrics after timing panic")
	}
	if len(snap.Players) != 2 || snap.Players[0].Name != "Ari" || snap.Players[1].Name != "Bo" {
		t.Errorf("expected full roster, got %+v", snap.Players)
	}
}

func TestCollectSkipsOnlyMalformedParticipants(t *testing.T) {
	src := &fakeSource{players: []Participant{
		Profile{Name: "Ari", ID: ariID},
		Profile{ID: "no-name"},
		panickyParticipant{},
		nil,
		Profile{Name: "Cy", ID: "c-y"},
	}}
	snap := quietCollector().Collect(src, "1.20.1", "forge")
	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 converted players, got %+v", snap.Players)
	}
	if snap.Players[0].Name != "Ari" || snap.Players[1].Name != "Cy" || snap.Players[1].UUID != "cy" {
		t.Errorf("unexpected players: %+v", snap.Players)
	}
}

func TestCollectMissingIDBecomesEmpty(t *testing.T) {
	snap := quietCollector().Collect(&fakeSource{players: []Participant{Profile{Name: "Bo"}}}, "1.20.1", "forge")
	if len(snap.Players) != 1 || snap.Players[0].UUID != "" {
		t.Fatalf("expected empty uuid substitute, got %+v", snap.Players)
	}
}

func TestCollectNilSource(t *testing.T) {
	snap := quietCollector().Collect(nil, "1.20.1", "forge")
	if len(snap.Players) != 0 || snap.Metrics.Available {
		t.Fatalf("expected identity-only snapshot, got %+v", snap)
	}
}

func TestCollectDetailLoggingOnlyWhenVerbose(t *testing.T) {
	src := &fakeSource{rosterErr: errors.New("offline")}

	buf := &bytes.Buffer{}
	Collector{Log: logging.New(buf, false), Verbose: false}.Collect(src, "1.20.1", "forge")
	if buf.Len() != 0 {
		t.Fatalf("expected silence without verbose, got %q", buf.String())
	}

	Collector{Log: logging.New(buf, false), Verbose: true}.Collect(src, "1.20.1", "forge")
	if !strings.Contains(buf.String(), "failed to fetch online players") {
		t.Fatalf("expected roster failure detail, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "mspt/tps will be null") {
		t.Fatalf("expected timing detail, got %q", buf.String())
	}
}

func TestCanonicalID(t *testing.T) {
	cases := map[string]string{
		ariID:                                    "0f8fad5bd9cb469fa16570867728950e",
		"0F8FAD5B-D9CB-469F-A165-70867728950E":   "0f8fad5bd9cb469fa16570867728950e",
		"{0f8fad5b-d9cb-469f-a165-70867728950e}": "0f8fad5bd9cb469fa16570867728950e",
		"abcd-ef01":                              "abcdef01",
		"  ":                                     "",
		"":                                       "",
	}
	for in, want := range cases {
		if got := CanonicalID(in); got != want {
			t.Errorf("CanonicalID(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestNewSnapshotCopiesPlayers(t *testing.T) {
	players := []PlayerSnapshot{{Name: "Ari", UUID: "a"}}
	snap := NewSnapshot("1.20.1", "forge", players, TickMetrics{})
	players[0].Name = "changed"
	if snap.Players[0].Name != "Ari" {
		t.Fatalf("snapshot shares caller's slice")
	}
	if NewSnapshot("v", "l", nil, TickMetrics{}).Players == nil {
		t.Fatalf("expected empty non-nil roster")
	}
}
