package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/logging"
)

// @title Firewatch Worker API
// @version 1.0.0
// @description Supervises fire detection worker processes and manages the resulting alerts
// @BasePath /
func main() {
	os.Exit(run(os.Args[1:], &log.Logger))
}

// run executes the CLI and returns the process exit code. Errors are reported
// through logger since cobra's own error output is silenced.
func run(args []string, logger *zerolog.Logger) int {
	cmd := rootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		return 1
	}
	return 0
}

func rootCommand() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "worker",
		Short:         "Firewatch detection worker supervisor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if url := logging.Setup(cfg); url != "" {
				log.Info().Str("url", url).Msg("Logdy UI available")
			}
			return cfg.Validate()
		},
	}

	root.PersistentFlags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP API port")
	root.PersistentFlags().StringVar(&cfg.WorkerID, "worker-id", cfg.WorkerID, "Worker ID")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	serve := serveCommand(cfg)
	root.AddCommand(serve, migrateCommand(cfg), seedCamerasCommand(cfg), camerasCommand(cfg))

	// serve is the default when no subcommand is given
	root.RunE = serve.RunE

	root.SetErr(os.Stderr)
	return root
}
