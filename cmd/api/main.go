package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/pkg/logger"
	"clinicbook/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicbook",
		Short: "Appointment booking API",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Connect(cfg.DatabaseURL, database.Options{MaxOpenConns: cfg.DBMaxOpenConns, Log: log})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if autoMigrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}

			if logger.IsProdLike(cfg.AppEnv) {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := server.New(server.Deps{Config: cfg, DB: db, Log: log})
			if err != nil {
				return err
			}
			defer srv.Close()

			httpServer := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           srv.Engine,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server", zap.String("addr", cfg.HTTPAddr), zap.String("lock_backend", cfg.LockBackend))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			}

			log.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply migrations before serving")
	return cmd
}
