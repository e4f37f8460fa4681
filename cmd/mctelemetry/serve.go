package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprocketaudio/mctelemetry/internal/command"
	"github.com/sprocketaudio/mctelemetry/internal/config"
	"github.com/sprocketaudio/mctelemetry/internal/logging"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port      int
		bind      string
		scen      string
		console   bool
		dedicated bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulated dedicated server with the telemetry endpoint",
		Long: "serve runs a 20 TPS simulated server driven by a load scenario and publishes its telemetry on " +
			"http://<bind>:<port>/telemetry. SIGHUP reloads the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logging.FromContext(ctx)

			provider, err := config.NewProvider(config.ResolvePath(root.configPath), log)
			if err != nil {
				return err
			}
			o := hostOptions{scenario: scen, portOverride: port, bindOverride: bind}
			if cmd.Flags().Changed("dedicated") {
				o.dedicated = &dedicated
			}
			srv, _, err := newHost(provider, log, o)
			if err != nil {
				return err
			}

			go reloadOnHangup(ctx, provider, log)

			if console {
				d := &command.Dispatcher{
					Source:  srv,
					Version: srv.Version(),
					Loader:  loaderID,
					Log:     log,
					Verbose: func() bool { return provider.Current().DetailedLogging },
				}
				go func() {
					if err := d.ServeConsole(ctx, cmd.InOrStdin(), command.Console{W: cmd.OutOrStdout()}); err != nil {
						log.Warn("console closed", "err", err)
					}
				}()
			}

			srv.Run(ctx)
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Endpoint port; overrides $MCTELEMETRY_PORT and config")
	cmd.Flags().StringVar(&bind, "bind", "", "Endpoint bind address; overrides $MCTELEMETRY_BIND and config")
	cmd.Flags().StringVar(&scen, "scenario", "", "Built-in scenario name or scenario YAML path")
	cmd.Flags().BoolVar(&console, "console", false, "Read operator commands from stdin")
	cmd.Flags().BoolVar(&dedicated, "dedicated", true, "Run as a dedicated server (telemetry only starts when dedicated)")
	return cmd
}

func reloadOnHangup(ctx context.Context, p *config.Provider, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := p.Reload(); err != nil {
				log.Warn("config reload failed; keeping previous config", "err", err)
				continue
			}
			log.Info("config reloaded", "detailed_logging", p.Current().DetailedLogging)
		}
	}
}
