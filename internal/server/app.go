// Package server initializes and runs the application server: it wires the
// connection pool, repositories and services together, waits for the store
// to become reachable, and starts the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cristobal22/comanda/internal/logging"
	"github.com/cristobal22/comanda/internal/server/config"
	"github.com/cristobal22/comanda/internal/server/httpapi"
	"github.com/cristobal22/comanda/internal/server/repositories/repomanager"
	"github.com/cristobal22/comanda/internal/server/services"
	"github.com/cristobal22/comanda/internal/server/shared/db"
)

// dbReadyMaxRetries bounds the startup wait for the database.
const dbReadyMaxRetries = 5

type App struct {
	config      *config.Config
	logger      logging.Logger
	conn        *sql.DB
	userService *services.UserService
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	us := services.NewUserService(conn, rm, cfg)

	return &App{config: cfg, logger: logger, conn: conn, userService: us}, nil
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

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.userService, app.conn, app.config.CORSOrigin)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := db.WaitReady(ctx, app.conn, dbReadyMaxRetries); err != nil {
		app.logger.Error(ctx, "database not reachable", "error", err.Error())
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.conn.Close(); err != nil {
		app.logger.Error(ctx, "closing db connection", "error", err.Error())
	}
}
