// Package server initializes and runs the credential-store server: database
// and migrations, business services, the upstream paymaster client, and the
// HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/paymaster"
	"invisiblewallet/internal/server/config"
	"invisiblewallet/internal/server/httpapi"
	"invisiblewallet/internal/server/repositories"
	"invisiblewallet/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repositories.OpenDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repositories.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	pm := paymaster.New(c.PaymasterBaseURL, c.PaymasterAPIKey, logger)

	var backuper services.Backuper
	if b := services.NewBackupService(c); b != nil {
		backuper = b
	}

	us := services.NewUserService(db, c)
	ws := services.NewWalletService(db, c, pm, backuper, logger)

	server := httpapi.NewServer(c.EndpointAddr, us, ws, logger)

	return &App{config: c, logger: logger, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
