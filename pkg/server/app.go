package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/internal/provider/adapters"
	"github.com/javiersolana/crypto-swarm/internal/usecase"
	"github.com/javiersolana/crypto-swarm/pkg/cache"
	pkgch "github.com/javiersolana/crypto-swarm/pkg/clickhouse"
	"github.com/javiersolana/crypto-swarm/pkg/config"
	xhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	applogger "github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Resources are the long-lived infrastructure handles the app owns and
// must release on shutdown.
type Resources struct {
	Cache      *cache.RedisCache
	ClickHouse *pkgch.Client
	Ledger     repository.Ledger
	Publisher  repository.Publisher
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	monitor    *usecase.Monitor
	httpServer *xhttp.Server
	stream     *adapters.HeliusStream
	res        Resources
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	monitor *usecase.Monitor,
	httpServer *xhttp.Server,
	stream *adapters.HeliusStream,
	res Resources,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		monitor:    monitor,
		httpServer: httpServer,
		stream:     stream,
		res:        res,
	}
}

// Run starts the scan loop and the ops server, then blocks until
// interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.stream != nil {
		a.stream.Start(ctx)
		a.log.Info("streaming source started")
	}

	go func() {
		if err := a.monitor.Run(ctx); err != nil {
			a.log.Error("monitor stopped", applogger.Error(err))
		}
	}()
	a.log.Info("monitor started",
		applogger.Duration("interval", a.cfg.Scan.Interval),
		applogger.Int("workers", a.cfg.Scan.Workers),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("ops server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// RunOnce executes a single scan cycle and releases all resources. Used
// for cron-style deployments and smoke checks.
func (a *App) RunOnce(ctx context.Context) error {
	if a.stream != nil {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		a.stream.Start(streamCtx)
	}

	summary, err := a.monitor.RunOnce(ctx)
	if err != nil {
		a.closeResources()
		return err
	}
	a.log.Info("cycle complete",
		applogger.String("cycle_id", summary.CycleID),
		applogger.Int("alerts", len(summary.Alerts)),
	)
	a.closeResources()
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.closeResources()
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.res.Publisher != nil {
		if err := a.res.Publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.res.Ledger != nil {
		if err := a.res.Ledger.Close(); err != nil {
			a.log.Warn("ledger close error", applogger.Error(err))
		}
	}
	if a.res.ClickHouse != nil {
		if err := a.res.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.res.Cache != nil {
		if err := a.res.Cache.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}
}
