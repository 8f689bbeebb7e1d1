// Package app initializes and runs the service: configuration, logging,
// storage selection, authentication and routing, plus graceful shutdown
// of the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Verkylen/projeto17-shortly/internal/auth"
	"github.com/Verkylen/projeto17-shortly/internal/config"
	"github.com/Verkylen/projeto17-shortly/internal/db/memorystorage"
	"github.com/Verkylen/projeto17-shortly/internal/db/postgresdb"
	"github.com/Verkylen/projeto17-shortly/internal/db/storage"
	"github.com/Verkylen/projeto17-shortly/internal/logger"
	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/router"
	"github.com/Verkylen/projeto17-shortly/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App bundles the configuration, storage backend and HTTP handler of a
// fully wired service instance.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New builds an App by:
//   - loading configuration
//   - initializing the logger
//   - selecting and setting up storage
//   - wiring authentication, service and router
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(app.cfg.LogLevel); err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	theAuth := auth.New(app.db)

	svc, err := service.New(app.db, theAuth)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(svc, theAuth)

	return app, nil
}

// Run starts the HTTP server and blocks until a termination signal
// arrives or the server fails, closing the storage on the way out.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("received shutdown signal, closing storage and exiting")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypePostgresql:
		db, err := postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)
		if err != nil {
			return nil, err
		}
		return db, nil

	case models.StorageTypeMemory:
		db, err := memorystorage.New()
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	return nil, errors.New("unknown storage type")
}
