// Package server wires the gophauth components together and runs them until
// the process receives a termination signal.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/audit"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/web"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const closeTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	recorder *audit.Recorder
	http     *web.HTTPServer
	grpc     *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(c.LogFormat, c.LogLevel, os.Stdout)

	db, err := dbx.Open(ctx, repomanager.DriverName, c.DatabaseDSN, dbx.DefaultPoolOptions)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	if err := app.build(ctx); err != nil {
		_ = app.close(ctx)
		return nil, err
	}

	return app, nil
}

func (app *App) build(ctx context.Context) error {
	c := app.config

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(c.SecretKey, c.TokenValidityDuration)
	if err != nil {
		return err
	}

	m := metrics.New()

	sink, err := app.auditSink(ctx, rm)
	if err != nil {
		return err
	}
	app.recorder = audit.NewRecorder(sink, app.logger, m)

	sessions := services.NewSessionController(app.db, rm, cryptox.NewArgon2idHasher(), tokens, app.recorder, app.logger)

	gin.SetMode(c.GinMode)
	handler := web.NewHandler(sessions, tokens, web.CookieOptions{Name: c.CookieName, Secure: c.CookieSecure}, m, app.logger)
	router, err := web.NewRouter(handler, c.CORSAllowedOrigins)
	if err != nil {
		return err
	}

	app.http = web.NewHTTPServer(c.EndpointAddrHTTP, router, app.logger)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger)

	return nil
}

func (app *App) auditSink(ctx context.Context, rm repomanager.RepositoryManager) (audit.Sink, error) {
	switch app.config.AuditSink {
	case config.AuditSinkPostgres:
		return audit.NewPostgresSink(app.db, rm), nil
	case config.AuditSinkRedis:
		client, err := audit.NewRedisClient(ctx, app.config.RedisAddr, app.config.RedisPassword)
		if err != nil {
			return nil, err
		}
		app.redis = client
		return audit.NewRedisSink(client, app.config.RedisStream), nil
	default:
		return audit.NopSink{}, nil
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

func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or one of the servers fails, then
// releases every resource the app holds.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()

	wg.Wait()

	app.logger.Info(ctx, "Stopping app...")

	return app.close(context.WithoutCancel(ctx))
}

func (app *App) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	var errs []error

	if app.recorder != nil {
		errs = append(errs, app.recorder.Close(ctx))
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}

	return errors.Join(errs...)
}
