// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/caresync/caresync-api/config"
	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/router"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "caresync",
		Short:         "CareSync patient and doctor API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return closeDB(db)
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of stored rows per entity kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)

			store := storage.New(db, log)
			kinds := storage.Kinds()
			sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
			for _, kind := range kinds {
				rows, err := store.All(kind)
				if err != nil {
					return fmt.Errorf("count %s: %w", kind, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d\n", kind, len(rows))
			}
			return nil
		},
	}
}

// bootstrap loads the configuration, opens the database and migrates it.
func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("load config: %w", err)
	}
	log := config.NewLogger(cfg)

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return nil, log, nil, err
	}
	if err := model.Migrate(db); err != nil {
		_ = closeDB(db)
		return nil, log, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, log, db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func runServer(ctx context.Context) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB(db)

	rdb, err := config.ConnectRedis(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	geo, err := util.OpenGeoLocator(cfg.GeoIPDBPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip database unavailable")
	}
	defer geo.Close()

	r, err := router.NewRouter(router.Deps{
		Config:   cfg,
		Store:    storage.New(db, log),
		Redis:    rdb,
		Logger:   log,
		Security: util.NewSecurityLogger(log, db, geo),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	hits, misses, size := geo.Metrics()
	log.Info().Int64("geoip_hits", hits).Int64("geoip_misses", misses).Int("geoip_cached", size).Msg("server stopped")
	return nil
}
