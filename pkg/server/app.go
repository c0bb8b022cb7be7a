package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mid "CryptoCompass/internal/middleware"
	"CryptoCompass/internal/scheduler"
	"CryptoCompass/internal/service/stream"
	"CryptoCompass/internal/usecase"
	"CryptoCompass/pkg/cache"
	"CryptoCompass/pkg/config"
	xhttp "CryptoCompass/pkg/http"
	applogger "CryptoCompass/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	pipeline   *mid.SnapshotPipeline
	hub        *stream.Hub
	cache      cache.Service
	boards     []*usecase.Board
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	pipeline *mid.SnapshotPipeline,
	hub *stream.Hub,
	c cache.Service,
	boards ...*usecase.Board,
) *App {
	return &App{
		cfg:        cfg,
		log:        l.Component("app"),
		httpServer: httpServer,
		scheduler:  sched,
		pipeline:   pipeline,
		hub:        hub,
		cache:      c,
		boards:     boards,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(ctx)

	// First refresh fires immediately so the dashboard is not empty until the
	// first tick.
	a.scheduler.Start(true)
	a.log.Info("refresh jobs scheduled",
		applogger.Duration("markets_interval_ms", a.cfg.Refresh.Markets.Interval),
		applogger.Duration("prices_interval_ms", a.cfg.Refresh.Prices.Interval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.scheduler.Stop()
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services. Boards are closed right after the
// scheduler so a fetch still in flight cannot publish into a closing pipeline.
func (a *App) shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	for _, b := range a.boards {
		b.Close()
	}
	// Hijacked websocket connections are not tracked by the HTTP server.
	if a.hub != nil {
		_ = a.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Closes the Kafka producer as well.
	if err := a.pipeline.Stop(); err != nil {
		a.log.Warn("pipeline stop error", applogger.Error(err))
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
