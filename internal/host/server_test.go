package host

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sprocketaudio/mctelemetry/internal/logging"
	"github.com/sprocketaudio/mctelemetry/internal/scenario"
	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

type recordingListener struct {
	events []string
}

func (r *recordingListener) ServerStarted(*Server)  { r.events = append(r.events, "started") }
func (r *recordingListener) ServerStopping(*Server) { r.events = append(r.events, "stopping") }
func (r *recordingListener) ServerTick(_ *Server, phase TickPhase) {
	if phase == TickStart {
		r.events = append(r.events, "start")
	} else {
		r.events = append(r.events, "end")
	}
}

func steady(loadMs float64, join ...string) *scenario.Scenario {
	return &scenario.Scenario{Phases: []scenario.Phase{{Name: "steady", LoadMs: loadMs, Join: join}}}
}

func newQuietServer(sc *scenario.Scenario) *Server {
	return NewServer("1.20.1", true, sc, WithSeed(1), WithSleep(nil))
}

func TestAverageTickTimeUnavailableBeforeFirstStep(t *testing.T) {
	s := newQuietServer(steady(25))
	if _, ok := s.AverageTickTimeMs(); ok {
		t.Fatalf("expected no average before any step")
	}
	s.Step()
	avg, ok := s.AverageTickTimeMs()
	if !ok || math.Abs(avg-25) > 1e-9 {
		t.Fatalf("expected 25ms average, got %v %v", avg, ok)
	}
}

func TestAverageUsesRecentWindow(t *testing.T) {
	sc := &scenario.Scenario{Phases: []scenario.Phase{
		{Name: "light", Ticks: SampleWindow, LoadMs: 10},
		{Name: "heavy", LoadMs: 30},
	}}
	s := newQuietServer(sc)
	for i := 0; i < SampleWindow+SampleWindow/2; i++ {
		s.Step()
	}
	avg, _ := s.AverageTickTimeMs()
	if math.Abs(avg-20) > 1e-9 {
		t.Fatalf("expected half-and-half average of 20ms, got %v", avg)
	}
	for i := 0; i < SampleWindow; i++ {
		s.Step()
	}
	avg, _ = s.AverageTickTimeMs()
	if math.Abs(avg-30) > 1e-9 {
		t.Fatalf("expected window to hold only heavy steps, got %v", avg)
	}
	if s.Phase() != "heavy" || s.Ticks() != 2*SampleWindow+SampleWindow/2 {
		t.Fatalf("unexpected phase %s ticks %d", s.Phase(), s.Ticks())
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	sc := &scenario.Scenario{Phases: []scenario.Phase{{Name: "noisy", LoadMs: 20, JitterMs: 5}}}
	var loads []time.Duration
	s := NewServer("1.20.1", true, sc, WithSeed(7), WithSleep(func(d time.Duration) { loads = append(loads, d) }))
	for i := 0; i < 50; i++ {
		s.Step()
	}
	if len(loads) != 50 {
		t.Fatalf("expected sleep per step, got %d", len(loads))
	}
	for _, d := range loads {
		if d < 15*time.Millisecond || d > 25*time.Millisecond {
			t.Fatalf("load %v outside jitter bounds", d)
		}
	}
}

func TestScenarioJoinsAndLeaves(t *testing.T) {
	sc := &scenario.Scenario{Phases: []scenario.Phase{
		{Name: "arrive", Ticks: 2, LoadMs: 5, Join: []string{"Ari", "Bo", "Cyd"}},
		{Name: "depart", LoadMs: 5, Leave: []string{"Bo"}},
	}}
	s := newQuietServer(sc)
	s.Step()
	if names := rosterNames(t, s); len(names) != 3 || names[0] != "Ari" || names[2] != "Cyd" {
		t.Fatalf("unexpected roster after arrivals: %v", names)
	}
	s.Step()
	s.Step()
	if names := rosterNames(t, s); len(names) != 2 || names[0] != "Ari" || names[1] != "Cyd" {
		t.Fatalf("unexpected roster after departures: %v", names)
	}
}

func TestJoinIsIdempotentAndIDsAreDistinct(t *testing.T) {
	s := newQuietServer(steady(1))
	a := s.Join("Ari")
	if again := s.Join("Ari"); again.ID != a.ID {
		t.Fatalf("rejoin should keep the same player")
	}
	b := s.Join("Bo")
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids")
	}
	if !s.Leave("Bo") || s.Leave("Bo") {
		t.Fatalf("leave should succeed once")
	}
}

func TestPlayersCollectAsCanonicalIDs(t *testing.T) {
	s := newQuietServer(steady(25, "Ari"))
	s.Step()
	snap := telemetry.Collector{}.Collect(s, s.Version(), "forge")
	if len(snap.Players) != 1 || snap.Players[0].Name != "Ari" || len(snap.Players[0].UUID) != 32 {
		t.Fatalf("unexpected players %+v", snap.Players)
	}
	if !snap.Metrics.Available || snap.Metrics.MSPT != 25 || snap.Metrics.TPS != 20 {
		t.Fatalf("unexpected metrics %+v", snap.Metrics)
	}
}

func TestOnlinePlayersReturnsCopy(t *testing.T) {
	s := newQuietServer(steady(1, "Ari"))
	s.Step()
	got, _ := s.OnlinePlayers()
	s.Leave("Ari")
	if len(got) != 1 {
		t.Fatalf("earlier roster snapshot changed")
	}
}

func TestStepEventOrder(t *testing.T) {
	s := newQuietServer(steady(1))
	l := &recordingListener{}
	s.AddListener(l)
	s.Step()
	s.Step()
	want := []string{"start", "end", "start", "end"}
	if len(l.events) != len(want) {
		t.Fatalf("unexpected events %v", l.events)
	}
	for i := range want {
		if l.events[i] != want[i] {
			t.Fatalf("unexpected events %v", l.events)
		}
	}
}

func TestRunAnnouncesLifecycle(t *testing.T) {
	s := newQuietServer(steady(0))
	l := &recordingListener{}
	s.AddListener(l)

	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logging.Discard()))
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(3 * TickInterval)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run did not stop")
	}
	if l.events[0] != "started" || l.events[len(l.events)-1] != "stopping" {
		t.Fatalf("unexpected lifecycle events %v", l.events)
	}
}

func TestPlayerIdentity(t *testing.T) {
	if _, err := (Player{}).DisplayName(); err == nil {
		t.Fatalf("expected error for nameless player")
	}
	if _, ok := (Player{Name: "x"}).UniqueID(); ok {
		t.Fatalf("nil uuid should be unavailable")
	}
}

func rosterNames(t *testing.T, s *Server) []string {
	t.Helper()
	ps, err := s.OnlinePlayers()
	if err != nil {
		t.Fatalf("online players: %v", err)
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i], _ = p.DisplayName()
	}
	return names
}
