package endpoint

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
)

// Server exposes the cached payload on /telemetry and a liveness probe on
// /health. Nothing else is routed.
type Server struct {
	cache *Cache
	log   *slog.Logger
	bind  net.IP
	port  int

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// NewServer prepares a server; nothing is bound until Start.
func NewServer(log *slog.Logger, cache *Cache, bind net.IP, port int) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cache: cache, log: log, bind: bind, port: port}
}

// Handler returns the routed handler, wrapped so a panicking request only
// drops its own connection.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	mux.HandleFunc("/health", s.handleHealth)
	return s.recoverer(mux)
}

// Start binds the listener and serves in the background. Calling Start on
// a running server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.bind.String(), strconv.Itoa(s.port)))
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler()}
	s.srv, s.ln = srv, ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("telemetry http endpoint stopped unexpectedly", "err", err)
		}
	}()
	return nil
}

// Stop closes the listener and all connections immediately. In-flight
// requests are abandoned. Safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return
	}
	if err := s.srv.Close(); err != nil {
		s.log.Warn("error closing telemetry http endpoint", "err", err)
	}
	s.srv, s.ln = nil, nil
	s.log.Info("stopped telemetry http endpoint")
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return net.JoinHostPort(s.bind.String(), strconv.Itoa(s.port))
}

// Port returns the bound port, or the configured one before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		if a, ok := s.ln.Addr().(*net.TCPAddr); ok {
			return a.Port
		}
	}
	return s.port
}

// BindAddress returns the textual bind IP.
func (s *Server) BindAddress() string {
	return s.bind.String()
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	payload := s.cache.Load()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", "2")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error("telemetry handler panicked; closing connection", "path", r.URL.Path, "panic", rec)
				panic(http.ErrAbortHandler)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
