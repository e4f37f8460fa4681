package main

import (
	"github.com/spf13/cobra"

	"github.com/sprocketaudio/mctelemetry/internal/command"
	"github.com/sprocketaudio/mctelemetry/internal/config"
	"github.com/sprocketaudio/mctelemetry/internal/host"
	"github.com/sprocketaudio/mctelemetry/internal/logging"
)

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	var (
		warmup int
		scen   string
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "snapshot <nonce>",
		Short: "Print one telemetry line from a simulated server",
		Long: "snapshot steps a simulated server through --warmup ticks without waiting, then runs " +
			"\"telemetry json <nonce>\" as the operator and prints the TELEMETRY line.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.FromContext(cmd.Context())
			provider, err := config.NewProvider(config.ResolvePath(root.configPath), log)
			if err != nil {
				return err
			}
			cfg := provider.Current()
			ref := scen
			if ref == "" {
				ref = cfg.Scenario
			}
			sc, err := loadScenario(ref)
			if err != nil {
				return err
			}
			opts := []host.Option{host.WithSleep(nil)}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, host.WithSeed(seed))
			}
			srv := host.NewServer(cfg.MinecraftVersion, true, sc, opts...)
			for i := 0; i < warmup; i++ {
				srv.Step()
			}

			d := &command.Dispatcher{
				Source:  srv,
				Version: srv.Version(),
				Loader:  loaderID,
				Log:     log,
				Verbose: func() bool { return provider.Current().DetailedLogging },
			}
			return d.Execute(command.Console{W: cmd.OutOrStdout()}, "telemetry json "+args[0])
		},
	}
	cmd.Flags().IntVar(&warmup, "warmup", 300, "Simulated ticks to run before sampling")
	cmd.Flags().StringVar(&scen, "scenario", "", "Built-in scenario name or scenario YAML path")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for reproducible ids and jitter")
	return cmd
}
