package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/models"
	"firewatch-worker-go/internal/services/storage"
)

func migrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the alert and camera tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(cfg, logging.NewServiceLogger(cfg, "storage"))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(); err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DatabaseDriver).Msg("Migration complete")
			return nil
		},
	}
}

func seedCamerasCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-cameras <file>",
		Short: "Load the camera directory from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(cfg, logging.NewServiceLogger(cfg, "storage"))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(); err != nil {
				return err
			}
			n, err := store.SeedCameras(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("seed cameras from %s: %w", args[0], err)
			}
			log.Info().Int("cameras", n).Str("file", args[0]).Msg("Cameras seeded")
			return nil
		},
	}
}

// camerasCommand prints the camera directory in the seed-cameras format
func camerasCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "Print the camera directory as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(cfg, logging.NewServiceLogger(cfg, "storage"))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(); err != nil {
				return err
			}
			cameras, err := store.ListCameras(cmd.Context())
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(struct {
				Cameras []models.CameraContext `yaml:"cameras"`
			}{Cameras: cameras})
		},
	}
}
