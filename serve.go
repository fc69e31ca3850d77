package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cohort-tools-api/db"
	"cohort-tools-api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var seedCohorts, seedStudents string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			gin.SetMode(cfg.Server.Mode)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := db.Open(ctx, cfg)
			if err != nil {
				return err
			}

			if seedCohorts != "" || seedStudents != "" {
				if err = seedStore(ctx, store, seedCohorts, seedStudents); err != nil {
					catcher := grip.NewBasicCatcher()
					catcher.Add(err)
					catcher.Wrap(store.Close(context.Background()), "closing store")
					return catcher.Resolve()
				}
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handlers.NewRouter(handlers.NewAPIHandler(store), cfg.Server.CORSOrigin),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				grip.Info(message.Fields{
					"message": "starting server",
					"addr":    cfg.Server.Addr,
					"driver":  cfg.Store.Driver,
				})
				serveErr <- srv.ListenAndServe()
			}()

			catcher := grip.NewBasicCatcher()
			select {
			case err = <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					catcher.Wrap(err, "running server")
				}
			case <-ctx.Done():
				grip.Info("shutting down server")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			catcher.Wrap(srv.Shutdown(shutdownCtx), "shutting down server")
			catcher.Wrap(store.Close(shutdownCtx), "closing store")
			return catcher.Resolve()
		},
	}

	cmd.Flags().StringVar(&seedCohorts, "seed-cohorts", "", "JSON file of cohorts to load into an empty store")
	cmd.Flags().StringVar(&seedStudents, "seed-students", "", "JSON file of students to load into an empty store")
	return cmd
}

func seedStore(ctx context.Context, store db.Store, cohortsPath, studentsPath string) error {
	data, err := db.LoadSeedFiles(cohortsPath, studentsPath)
	if err != nil {
		return errors.Wrap(err, "loading seed data")
	}
	_, err = db.Seed(ctx, store, data)
	return errors.Wrap(err, "seeding store")
}
