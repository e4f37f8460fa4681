package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprocketaudio/mctelemetry/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "mctelemetry",
		Short:         "Game server telemetry endpoint",
		Long:          "mctelemetry publishes player and tick-timing telemetry of a dedicated server on a loopback HTTP endpoint.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log := logging.New(cmd.ErrOrStderr(), opts.verbose)
			cmd.SetContext(logging.NewContext(cmd.Context(), log))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config YAML (defaults to $MCTELEMETRY_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSnapshotCmd(opts))
	cmd.AddCommand(newWatchCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
