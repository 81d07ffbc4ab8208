package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"firewatch-worker-go/internal/api"
	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/services"
)

func serveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and detection supervisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("database", cfg.DatabaseDriver).
		Msg("Starting Firewatch Worker")

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}

	server := api.NewServer(cfg, container)
	server.Setup()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if container.Health != nil {
		g.Go(func() error { return container.Health.ListenAndServe(cfg.GRPCHealthPort) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return container.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker stopped with error")
		return err
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}
