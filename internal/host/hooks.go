package host

import (
	"log/slog"

	"github.com/sprocketaudio/mctelemetry/internal/config"
	"github.com/sprocketaudio/mctelemetry/internal/service"
)

// Hooks glues server lifecycle events to the telemetry service. Config is
// read on every event so a reload takes effect without a restart; the
// refresh interval and endpoint only change on the next start.
type Hooks struct {
	Service *service.Service
	Config  *config.Provider
	Log     *slog.Logger

	PortOverride int
	BindOverride string
}

var _ Listener = (*Hooks)(nil)

func (h *Hooks) ServerStarted(s *Server) {
	if !s.IsDedicated() {
		h.logger().Info("skipping telemetry http endpoint; server is not dedicated")
		return
	}
	cfg := h.Config.Current()
	// Start logs its own failures; the server keeps running either way.
	_, _ = h.Service.Start(s, service.Options{
		MinecraftVersion:     s.Version(),
		DetailedLogging:      cfg.DetailedLogging,
		RefreshIntervalTicks: cfg.TelemetryRefreshTicks,
		Port:                 cfg.HTTPPort,
		PortOverride:         h.PortOverride,
		BindAddress:          cfg.HTTPBindAddress,
		BindOverride:         h.BindOverride,
	})
}

func (h *Hooks) ServerTick(s *Server, phase TickPhase) {
	if phase != TickEnd {
		return
	}
	h.Service.Tick(s, h.Config.Current().DetailedLogging)
}

func (h *Hooks) ServerStopping(*Server) {
	h.Service.Stop()
}

func (h *Hooks) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}
