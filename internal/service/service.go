// Package service owns the telemetry lifecycle: it seeds and refreshes the
// payload cache on host ticks and runs the HTTP endpoint that serves it.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sprocketaudio/mctelemetry/internal/endpoint"
	"github.com/sprocketaudio/mctelemetry/internal/logging"
	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

// ErrAlreadyRunning is returned by Start when the service is not stopped.
var ErrAlreadyRunning = errors.New("telemetry service already running")

// State of the service lifecycle.
type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

// Options are the already-resolved inputs for one Start call. Overrides of
// zero value mean "not set".
type Options struct {
	MinecraftVersion     string
	DetailedLogging      bool
	RefreshIntervalTicks int

	Port         int
	PortOverride int
	BindAddress  string
	BindOverride string
}

// Endpoint describes where the running service is reachable.
type Endpoint struct {
	Address      string
	Port         int
	RefreshTicks int
}

// Service ties payload refresh cadence to host ticks. Tick is expected to be
// called from the host's step loop; Start and Stop may come from elsewhere.
type Service struct {
	loader string
	log    *slog.Logger

	encode         func(telemetry.Snapshot) (string, error)
	encodeIdentity func(version, loader string, players []telemetry.PlayerSnapshot) (string, error)

	mu        sync.Mutex
	state     State
	cache     *endpoint.Cache
	server    *endpoint.Server
	version   string
	verbose   bool
	interval  int
	countdown int
}

// New returns a stopped service publishing payloads for the given loader id.
func New(loader string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		loader:         loader,
		log:            log,
		encode:         telemetry.Encode,
		encodeIdentity: telemetry.EncodeIdentity,
	}
}

// Start seeds the cache from src and brings up the HTTP endpoint. If the
// endpoint cannot be bound the service stays stopped and nothing is retained.
func (s *Service) Start(src telemetry.Source, opts Options) (Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Stopped {
		return Endpoint{}, ErrAlreadyRunning
	}
	s.state = Starting

	s.version = opts.MinecraftVersion
	s.verbose = opts.DetailedLogging
	s.interval = max(1, opts.RefreshIntervalTicks)
	cache := endpoint.NewCache(s.buildPayload(src))

	fail := func(err error) (Endpoint, error) {
		s.state = Stopped
		s.log.Error("failed to start telemetry http endpoint", "err", err)
		return Endpoint{}, err
	}

	port := endpoint.ResolvePort(opts.PortOverride, opts.Port)
	bind, err := endpoint.ResolveBindAddress(opts.BindOverride, opts.BindAddress)
	if err != nil {
		return fail(err)
	}
	server := endpoint.NewServer(s.log, cache, bind, port)
	if err := server.Start(); err != nil {
		return fail(fmt.Errorf("bind %s: %w", server.Addr(), err))
	}

	s.cache, s.server = cache, server
	s.countdown = s.interval
	s.state = Running

	ep := Endpoint{Address: server.BindAddress(), Port: server.Port(), RefreshTicks: s.interval}
	s.log.Info("telemetry endpoint active", "address", ep.Address, "port", ep.Port, "refresh_ticks", ep.RefreshTicks)
	return ep, nil
}

// Tick counts down one host step and refreshes the cache every
// RefreshIntervalTicks calls. It is a no-op unless the service is running.
func (s *Service) Tick(src telemetry.Source, detailedLogging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}
	s.verbose = detailedLogging
	s.countdown--
	if s.countdown > 0 {
		return
	}
	s.countdown = s.interval
	s.cache.Store(s.buildPayload(src))
}

// Stop tears down the endpoint and discards the cache. Safe to call when
// already stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		s.server.Stop()
	}
	s.server, s.cache = nil, nil
	s.countdown = 0
	s.state = Stopped
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Payload returns the currently cached payload, or "" when stopped.
func (s *Service) Payload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return ""
	}
	return s.cache.Load()
}

// buildPayload never panics. It returns "" only when even the identity
// fallback cannot be encoded, which leaves the cache untouched.
func (s *Service) buildPayload(src telemetry.Source) (payload string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("failed to build telemetry payload; publishing fallback", "panic", r)
			payload = s.fallback()
		}
	}()

	c := telemetry.Collector{Log: s.log, Verbose: s.verbose}
	out, err := s.encode(c.Collect(src, s.version, s.loader))
	if err != nil {
		s.log.Warn("failed to build telemetry payload; publishing fallback", "err", err)
		return s.fallback()
	}
	logging.Detail(s.log, s.verbose, "cached telemetry JSON refreshed", "chars", len(out))
	return out
}

func (s *Service) fallback() (payload string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("fallback telemetry payload failed; keeping previous value", "panic", r)
			payload = ""
		}
	}()
	out, err := s.encodeIdentity(s.version, s.loader, nil)
	if err != nil {
		s.log.Warn("fallback telemetry payload failed; keeping previous value", "err", err)
		return ""
	}
	return out
}
