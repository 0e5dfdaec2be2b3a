// Package server initializes and runs the filedrop server.
// It wires the metadata index, object storage, user accounts and the HTTP
// endpoint together, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/filedrop/filedrop/internal/logging"
	"github.com/filedrop/filedrop/internal/server/config"
	"github.com/filedrop/filedrop/internal/server/files"
	"github.com/filedrop/filedrop/internal/server/httpapi"
	"github.com/filedrop/filedrop/internal/server/shared/db"
	"github.com/filedrop/filedrop/internal/server/storage"
	"github.com/filedrop/filedrop/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	fileService *files.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	database, err := db.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := users.NewService(users.NewPostgresRepository(database), cfg)

	objects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	fs := files.NewService(files.NewStore(), objects, logger, cfg.PresignTTL, cfg.MaxUploadSizeBytes)

	return &App{config: cfg, logger: logger, userService: us, fileService: fs}, nil
}

func newObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		return storage.NewMemoryStorage(), nil
	case config.StorageBackendS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config, app.logger, app.userService, app.fileService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	// Rebuild the metadata index from the bucket before accepting traffic.
	// A failed scan is logged but does not prevent startup.
	if err := app.fileService.Reconcile(ctx); err != nil {
		app.logger.Error(ctx, fmt.Sprintf("metadata reconciliation failed: %v", err))
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
