package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carewell/medtrack/internal/config"
	"github.com/carewell/medtrack/internal/httpapi"
	"github.com/carewell/medtrack/internal/hub"
	"github.com/carewell/medtrack/internal/reset"
	"github.com/carewell/medtrack/internal/scheduler"
	"github.com/carewell/medtrack/internal/store"
)

// App wires the store, the engines and the HTTP surface together and owns
// their lifecycles: constructed at process start, torn down at shutdown.
type App struct {
	cfg config.Config
	log *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// Run blocks until a shutdown signal arrives or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting medtrack",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("db", a.cfg.DBPath),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready")

	events := hub.New(a.log)
	defer events.Close()

	engine := reset.New(repo, a.log)
	sched := scheduler.New(repo, events, a.log)
	defer sched.Close()

	// Arm every active reminder before accepting traffic so a restart does
	// not silently drop chains.
	if err := sched.LoadAll(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           httpapi.New(a.log, repo, engine, sched, events),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	return g.Wait()
}
