package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	rediscache "pet-health/internal/adapters/cache/redis"
	"pet-health/internal/adapters/auth/odin"
	pg "pet-health/internal/adapters/storage/postgres"
	"pet-health/internal/platform/config"
	"pet-health/internal/platform/logger"
	"pet-health/internal/ports/auth"
	"pet-health/internal/router"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// @title Pet Health API
// @version 1.0
// @description Historial de salud, vacunas, recordatorios y health score por mascota.
// @BasePath /
func main() {
	rootCmd := &cobra.Command{
		Use:   "pet-health",
		Short: "Pet health API: registros clínicos, vacunas, recordatorios y health score",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log := newLogger(cfg)
			if zl, ok := log.(*logger.ZapLogger); ok {
				defer func() { _ = zl.Sync() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema en Postgres (DB_DSN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Database.DSN == "" {
				return errors.New("DB_DSN is required for migrate")
			}
			log := newLogger(cfg)

			db, err := pg.Open(cmd.Context(), cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			if err := pg.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema applied", nil)
			return nil
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log logger.Logger) error {
	opts := router.Options{Logger: log, Config: &cfg}

	if cfg.Database.DSN != "" {
		db, err := pg.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := pg.Migrate(ctx, db); err != nil {
			return err
		}
		opts.DB = db
	}

	if cfg.Redis.URL != "" {
		client, err := rediscache.Open(ctx, cfg.Redis.URL)
		if err != nil {
			// Sin cache las stats se calculan en cada request.
			log.Warn("redis unavailable, stats cache disabled", map[string]any{"err": err})
		} else {
			defer func(c *goredis.Client) { _ = c.Close() }(client)
			opts.Redis = client
		}
	}

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		return err
	}
	opts.AuthVerifier = verifier

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.App.Port),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newVerifier: sin ODIN_BASE_URL/ODIN_API_KEY queda modo dev (header X-Debug-User-ID).
func newVerifier(cfg config.Config, log logger.Logger) (auth.AuthVerifier, error) {
	client, err := odin.NewClient(odin.Config{BaseURL: cfg.Odin.BaseURL, APIKey: cfg.Odin.APIKey}, log)
	if err != nil {
		return nil, fmt.Errorf("odin client: %w", err)
	}
	if !client.IsConfigured() {
		log.Warn("odin not configured, accepting debug user header", nil)
		return nil, nil
	}
	return odin.NewVerifier(client), nil
}

func newLogger(cfg config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
}
