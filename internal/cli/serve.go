package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reviewsched/internal/api"
	"github.com/example/reviewsched/internal/database"
	"github.com/example/reviewsched/internal/review"
	"github.com/example/reviewsched/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the session sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			progress := database.NewProgressRepository(db)
			selector := review.NewSelector(progress)
			sessions := review.NewSessionManager(selector, database.NewSessionRepository(db), log.With("session"))

			srv := api.NewServer(&api.Options{
				Address:  cfg.HTTPAddr,
				Debug:    cfg.Debug,
				Ratings:  review.NewRatingService(progress, log.With("rating")),
				Selector: selector,
				Sessions: sessions,
				Logger:   log.With("api"),
			})

			if cfg.SweeperEnabled {
				sweeper := scheduler.New(sessions, cfg.SessionTTL, cfg.SweepInterval, log.With("sweeper"))
				if err := sweeper.Start(); err != nil {
					return err
				}
				defer sweeper.Stop()
			}

			errc := make(chan error, 1)
			go func() {
				errc <- srv.Start()
			}()
			log.Infof("listening on %s (%s)", cfg.HTTPAddr, cfg.DBDriver)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errc:
				return err
			case sig := <-sigChan:
				log.Infof("received signal: %v", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				log.Errorf("error during shutdown: %v", err)
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
}
