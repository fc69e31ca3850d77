package main

import (
	"context"
	"os"

	"cohort-tools-api/config"
	"cohort-tools-api/db"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/send"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "cohort-tools",
		Short:         "Cohort and student records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")
	root.AddCommand(newServeCmd(), newSeedCmd(), newImportCmd())

	if err := root.Execute(); err != nil {
		grip.Critical(message.WrapError(err, message.Fields{"message": "command failed"}))
		os.Exit(1)
	}
}

// setup loads the configuration and points grip at it
func setup() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err = configureLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogging names the global grip sender and sets its threshold
func configureLogging(cfg config.LogConfig) error {
	grip.SetName(cfg.Name)
	err := grip.SetLevel(send.LevelInfo{
		Default:   level.Info,
		Threshold: level.FromString(cfg.Level),
	})
	return errors.Wrapf(err, "setting log level '%s'", cfg.Level)
}

// withStore opens the configured store for the duration of fn
func withStore(ctx context.Context, cfg *config.Config, fn func(db.Store) error) error {
	store, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}

	catcher := grip.NewBasicCatcher()
	catcher.Add(fn(store))
	catcher.Add(store.Close(context.Background()))
	return catcher.Resolve()
}
