// Package server wires the credkeeper components together and runs them.
// It opens the database, applies migrations, builds the notification
// pipeline and serves the HTTP and gRPC APIs until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/health"
	"github.com/dmitrijs2005/credkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credkeeper/internal/server/secrets"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/credkeeper/internal/server/grpc"
)

const healthCheckTimeout = 2 * time.Second

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	redis      *health.RedisPinger
	dispatcher *notify.Dispatcher
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	hasher, err := secrets.New(c.PasswordHasher, c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier, err := buildNotifier(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("notifier init error: %w", err)
	}
	dispatcher := notify.NewDispatcher(notifier, logger, c.NotifyQueueSize, c.NotifyTimeout)

	auth := services.NewAuthService(db, m, hasher, dispatcher, logger, c)

	app := &App{config: c, logger: logger, db: db, dispatcher: dispatcher}

	var cache health.Pinger
	if c.RedisURL != "" {
		p, err := health.NewRedisPinger(c.RedisURL)
		if err != nil {
			dispatcher.Close(ctx)
			db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = p
		cache = p
	}
	checker := health.NewChecker(db, cache, healthCheckTimeout)

	h := httpapi.NewHandler(auth, logger, c.Production(), c.RefreshTokenValidityDuration)
	router := httpapi.NewRouter(h, checker, logger, c.CORSOrigins)
	app.httpServer = httpapi.NewServer(c.HTTPAddr, router, logger, c.ShutdownTimeout)
	app.grpcServer = gs.NewGRPCServer(c.GRPCAddr, logger, auth)

	return app, nil
}

// buildNotifier logs messages when no SMTP relay is configured. Otherwise
// templates are looked up in S3, then the local directory, then the copies
// compiled into the binary.
func buildNotifier(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Notifier, error) {
	if c.SMTPHost == "" {
		return notify.NewLogNotifier(logger), nil
	}

	var chain notify.ChainSource
	if c.S3TemplatesBucket != "" {
		src, err := notify.NewS3Source(ctx, notify.S3Config{
			Bucket:       c.S3TemplatesBucket,
			Prefix:       c.S3TemplatesPrefix,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, src)
	}
	if c.TemplatesDir != "" {
		chain = append(chain, notify.NewDirSource(c.TemplatesDir))
	}
	chain = append(chain, notify.NewEmbeddedSource())

	renderer := notify.NewRenderer(chain)
	return notify.NewSMTPNotifier(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom, renderer), nil
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

type runner interface {
	Run(ctx context.Context) error
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves both APIs until ctx is cancelled, a signal arrives or either
// server fails, then drains queued mail and releases the connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "http", app.config.HTTPAddr, "grpc", app.config.GRPCAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.httpServer)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpcServer)
	}()

	wg.Wait()

	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.dispatcher.Close(ctx); err != nil {
		app.logger.Warn(ctx, "pending notifications dropped", "error", err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
