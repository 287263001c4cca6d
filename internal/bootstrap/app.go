// Package bootstrap wires configuration, logging, the job registry,
// the acquisition pipeline, and the HTTP server into a runnable app.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"audiototxt/internal/acquire"
	"audiototxt/internal/config"
	"audiototxt/internal/jobs"
	"audiototxt/internal/server"
	"audiototxt/internal/storage"
	"audiototxt/internal/transcribe"
)

// App holds the assembled service.
type App struct {
	cfg     config.Config
	log     *logrus.Logger
	store   *storage.Store
	cleaner *storage.Cleaner
	srv     *server.Server
}

// New builds the application from loaded configuration.
func New(cfg config.Config) (*App, error) {
	log := newLogger(cfg.LogLevel)

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	pipeline := acquire.NewPipeline(cfg.YtdlpPath, cfg.FfmpegPath, acquire.NewTikSaveResolver())
	registry := jobs.NewRegistry()
	runner := jobs.NewRunner(pipeline, transcribe.NewGemini(), store, store.Dir(), log)

	app := &App{
		cfg:   cfg,
		log:   log,
		store: store,
		srv:   server.New(cfg, registry, runner, store, log),
	}

	if cfg.CleanupHours > 0 {
		maxAge := time.Duration(cfg.CleanupHours * float64(time.Hour))
		app.cleaner = storage.NewCleaner(store, maxAge, maxAge, log)
	}

	return app, nil
}

// Run starts the cleanup timer and the HTTP server, blocking until the
// process receives an interrupt and shutdown completes.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cleaner != nil {
		a.log.WithField("interval_hours", a.cfg.CleanupHours).Info("starting artifact cleanup timer")
		go a.cleaner.Run(ctx)
	}

	httpSrv := a.srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.cfg.Addr).Info("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
