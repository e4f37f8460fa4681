package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sprocketaudio/mctelemetry/internal/config"
	"github.com/sprocketaudio/mctelemetry/internal/host"
	"github.com/sprocketaudio/mctelemetry/internal/scenario"
	"github.com/sprocketaudio/mctelemetry/internal/service"
)

// loadScenario resolves a built-in scenario name or a YAML file path.
// An empty ref selects the default scenario.
func loadScenario(ref string) (*scenario.Scenario, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return scenario.Default(), nil
	}
	if sc, ok := scenario.BuiltIn()[ref]; ok {
		return &sc, nil
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("scenario %q is neither built in nor a readable file: %w", ref, err)
	}
	return scenario.Load(ref)
}

type hostOptions struct {
	scenario     string
	dedicated    *bool
	portOverride int
	bindOverride string
	hostOpts     []host.Option
}

// newHost builds the simulated server from config and wires telemetry
// lifecycle hooks into it.
func newHost(provider *config.Provider, svcLog *slog.Logger, o hostOptions) (*host.Server, *host.Hooks, error) {
	cfg := provider.Current()
	ref := o.scenario
	if ref == "" {
		ref = cfg.Scenario
	}
	sc, err := loadScenario(ref)
	if err != nil {
		return nil, nil, err
	}
	dedicated := cfg.Dedicated
	if o.dedicated != nil {
		dedicated = *o.dedicated
	}

	srv := host.NewServer(cfg.MinecraftVersion, dedicated, sc, o.hostOpts...)
	hooks := &host.Hooks{
		Service:      service.New(loaderID, svcLog),
		Config:       provider,
		Log:          svcLog,
		PortOverride: o.portOverride,
		BindOverride: o.bindOverride,
	}
	srv.AddListener(hooks)
	return srv, hooks, nil
}
