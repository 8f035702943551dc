// Package app wires the gateway, journal, mirror, store and HTTP surface
// together and runs them until the process is asked to stop.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/api"
	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/config"
	"github.com/dmitrijs2005/guildstore/internal/gateway"
	"github.com/dmitrijs2005/guildstore/internal/journal"
	"github.com/dmitrijs2005/guildstore/internal/logging"
	"github.com/dmitrijs2005/guildstore/internal/mirror"
	"github.com/dmitrijs2005/guildstore/internal/store"
)

const sweepInterval = 10 * time.Minute

type App struct {
	config  *config.Config
	logger  logging.Logger
	journal *journal.SQLiteJournal
	store   *store.Store
	server  *HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.BotToken == "" {
		return nil, fmt.Errorf("%w: bot token is not set", common.ErrValidation)
	}
	if c.GroupID == "" {
		return nil, fmt.Errorf("%w: group id is not set", common.ErrValidation)
	}

	gw := gateway.New(gateway.Config{
		BaseURL:        c.APIBaseURL,
		Token:          c.BotToken,
		MaxConcurrency: c.MaxConcurrency,
		MaxRetries:     c.MaxRetries,
		BaseBackoff:    c.BaseBackoff,
		MaxJitter:      c.MaxJitter,
		RequestTimeout: c.RequestTimeout,
	}, logger)

	j, err := journal.Open(ctx, c.JournalDSN)
	if err != nil {
		return nil, fmt.Errorf("journal init error: %w", err)
	}

	opts := []store.Option{store.WithJournal(j), store.WithPartLimit(c.FileSizeLimit)}
	if c.MirrorEnabled() {
		m, err := mirror.New(ctx, mirror.Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		}, logger)
		if err != nil {
			_ = j.Close()
			return nil, fmt.Errorf("mirror init error: %w", err)
		}
		opts = append(opts, store.WithMirror(m))
	}

	s := store.New(gw, c.GroupID, logger, opts...)
	h := api.NewHandler(s, logger)

	return &App{
		config:  c,
		logger:  logger,
		journal: j,
		store:   s,
		server:  NewHTTPServer(c.ListenAddr, h.Routes(), logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// sweep settles leftovers of interrupted writes now and then every interval.
func (app *App) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if removed, err := app.store.Sweep(ctx); err != nil && ctx.Err() == nil {
			app.logger.Error(ctx, "sweep failed", "error", err)
		} else if removed > 0 {
			app.logger.Info(ctx, "sweep removed orphaned parts", "count", removed)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or the
// HTTP server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "group", app.config.GroupID, "mirror", app.config.MirrorEnabled())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.sweep(ctx, sweepInterval)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "Stopping app...")
	return app.journal.Close()
}
