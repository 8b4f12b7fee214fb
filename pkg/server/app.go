package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/handler/ws"
	mid "github.com/Shillmaster/JJcbjee/internal/middleware"
	"github.com/Shillmaster/JJcbjee/internal/service/ratelimit"
	"github.com/Shillmaster/JJcbjee/pkg/config"
	xhttp "github.com/Shillmaster/JJcbjee/pkg/http"
	pkgkafka "github.com/Shillmaster/JJcbjee/pkg/kafka"
	applogger "github.com/Shillmaster/JJcbjee/pkg/logger"
)

const limiterSweepEvery = time.Minute

// Closer is a named resource released on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// Deps are the long-running parts of the service. Consumer and
// FocusHandler are nil when Kafka is not configured.
type Deps struct {
	HTTP         *xhttp.Server
	Hub          *ws.Hub
	Pipeline     *mid.SignalPipeline
	Consumer     *pkgkafka.Consumer
	FocusHandler pkgkafka.MessageHandler
	Limiter      *ratelimit.Limiter
	Closers      []Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg    *config.Config
	log    *applogger.Logger
	deps   Deps
	cancel context.CancelFunc
}

func New(cfg *config.Config, log *applogger.Logger, deps Deps) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, deps: deps}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start launches every component and returns once they are running.
func (a *App) Start(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	a.cancel = cancel

	if a.deps.Hub != nil {
		go a.deps.Hub.Run(ctx)
	}
	if a.deps.Pipeline != nil {
		a.deps.Pipeline.Start(ctx)
	}
	if a.deps.Limiter != nil {
		go a.sweepLimiter(ctx)
	}

	if a.deps.Consumer != nil && a.deps.FocusHandler != nil {
		a.deps.Consumer.RegisterHandler(a.deps.FocusHandler)
		if err := a.deps.Consumer.Start(); err != nil {
			cancel()
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.deps.FocusHandler.Topic()))
	}

	if a.deps.HTTP != nil {
		if err := a.deps.HTTP.Start(); err != nil {
			cancel()
			return err
		}
	}
	a.log.Info("forecast service started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
	)
	return nil
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.deps.Limiter.Sweep(); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("keys", n))
			}
		}
	}
}

// Shutdown stops intake first, then background workers, then releases
// resources. Every step runs; errors are joined.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")
	var errs []error

	if a.deps.HTTP != nil {
		if err := a.deps.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.deps.Consumer != nil {
		if err := a.deps.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.deps.Pipeline != nil {
		a.deps.Pipeline.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}

	for _, c := range a.deps.Closers {
		if c.Close == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
