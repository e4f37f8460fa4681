// Package host simulates a dedicated game server: a fixed-rate step loop
// whose per-step cost and online roster follow a scenario.
package host

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sprocketaudio/mctelemetry/internal/logging"
	"github.com/sprocketaudio/mctelemetry/internal/scenario"
	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

const (
	TicksPerSecond = 20
	TickInterval   = time.Second / TicksPerSecond

	// SampleWindow is how many recent step durations feed the average.
	SampleWindow = 100
)

// TickPhase marks which end of a step a tick event belongs to.
type TickPhase int

const (
	TickStart TickPhase = iota
	TickEnd
)

// Listener receives server lifecycle events. Events are delivered on the
// step loop goroutine, outside the server's lock.
type Listener interface {
	ServerStarted(s *Server)
	ServerTick(s *Server, phase TickPhase)
	ServerStopping(s *Server)
}

// Player is one online participant.
type Player struct {
	Name string
	ID   uuid.UUID
}

func (p Player) DisplayName() (string, error) {
	if p.Name == "" {
		return "", telemetry.ErrMissingName
	}
	return p.Name, nil
}

func (p Player) UniqueID() (string, bool) {
	if p.ID == uuid.Nil {
		return "", false
	}
	return p.ID.String(), true
}

// Server is a simulated dedicated server. It implements telemetry.Source.
type Server struct {
	version   string
	dedicated bool
	cursor    *scenario.Cursor
	rng       *rand.Rand
	sleep     func(time.Duration)
	listeners []Listener

	mu      sync.Mutex
	players []Player
	samples [SampleWindow]time.Duration
	count   int
	next    int
	ticks   int
	phase   string
}

// Option configures a Server.
type Option func(*Server)

// WithSeed makes participant ids and load jitter reproducible.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithSleep replaces the function used to spend each step's simulated load.
// nil skips waiting entirely.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Server) { s.sleep = fn }
}

// NewServer builds a server that follows sc, or scenario.Default() if sc is nil.
func NewServer(version string, dedicated bool, sc *scenario.Scenario, opts ...Option) *Server {
	if sc == nil {
		sc = scenario.Default()
	}
	s := &Server{
		version:   version,
		dedicated: dedicated,
		cursor:    scenario.NewCursor(sc),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     time.Sleep,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddListener registers l for lifecycle events. Call before Run.
func (s *Server) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Server) Version() string   { return s.version }
func (s *Server) IsDedicated() bool { return s.dedicated }

// OnlinePlayers returns a copy of the roster in join order.
func (s *Server) OnlinePlayers() ([]telemetry.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]telemetry.Participant, len(s.players))
	for i, p := range s.players {
		out[i] = p
	}
	return out, nil
}

// AverageTickTimeMs is the mean of the last SampleWindow step durations.
// It is unavailable until the first step completes.
func (s *Server) AverageTickTimeMs() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0, false
	}
	var sum time.Duration
	for i := 0; i < s.count; i++ {
		sum += s.samples[i]
	}
	return float64(sum) / float64(s.count) / float64(time.Millisecond), true
}

// Join adds a player unless one with the same name is already online.
func (s *Server) Join(name string) Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.join(name)
}

// Leave removes the named player and reports whether it was online.
func (s *Server) Leave(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leave(name)
}

// Ticks returns the number of completed steps.
func (s *Server) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Phase returns the name of the scenario phase of the last step.
func (s *Server) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Run announces startup, steps at TicksPerSecond until ctx is done, then
// announces shutdown.
func (s *Server) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulated server", "version", s.version, "dedicated", s.dedicated)
	for _, l := range s.listeners {
		l.ServerStarted(s)
	}

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Step()
		case <-ctx.Done():
			log.Info("stopping simulated server", "ticks", s.Ticks())
			for _, l := range s.listeners {
				l.ServerStopping(s)
			}
			return
		}
	}
}

// Step runs one server step synchronously.
func (s *Server) Step() {
	s.fire(TickStart)

	s.mu.Lock()
	load := s.advance()
	s.mu.Unlock()

	if s.sleep != nil && load > 0 {
		s.sleep(load)
	}

	s.mu.Lock()
	s.record(load)
	s.ticks++
	s.mu.Unlock()

	s.fire(TickEnd)
}

func (s *Server) fire(phase TickPhase) {
	for _, l := range s.listeners {
		l.ServerTick(s, phase)
	}
}

// advance moves the scenario forward one step and returns the step's load.
func (s *Server) advance() time.Duration {
	p, entered := s.cursor.Next()
	s.phase = p.Name
	if entered {
		for _, name := range p.Leave {
			s.leave(name)
		}
		for _, name := range p.Join {
			s.join(name)
		}
	}
	ms := p.LoadMs
	if p.JitterMs > 0 {
		ms += (s.rng.Float64()*2 - 1) * p.JitterMs
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func (s *Server) record(d time.Duration) {
	s.samples[s.next] = d
	s.next = (s.next + 1) % SampleWindow
	if s.count < SampleWindow {
		s.count++
	}
}

func (s *Server) join(name string) Player {
	for _, p := range s.players {
		if p.Name == name {
			return p
		}
	}
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}
	p := Player{Name: name, ID: id}
	s.players = append(s.players, p)
	return p
}

func (s *Server) leave(name string) bool {
	for i, p := range s.players {
		if p.Name == name {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return true
		}
	}
	return false
}
