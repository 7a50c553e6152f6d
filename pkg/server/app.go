package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	domrepo "MacroPull/internal/domain/repository"
	mid "MacroPull/internal/middleware"
	"MacroPull/internal/service/notify"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/cache"
	"MacroPull/pkg/config"
	xhttp "MacroPull/pkg/http"
	pkgkafka "MacroPull/pkg/kafka"
	applogger "MacroPull/pkg/logger"
)

// Infra groups the optional infrastructure clients the app owns and closes.
type Infra struct {
	Cache    cache.Service
	Archive  domrepo.ObservationArchive
	Producer *pkgkafka.Producer
	Hub      *notify.Hub
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handlers   []xhttp.Handler
	httpServer *xhttp.Server
	pipeline   *mid.AlertPipeline
	scheduler  *usecase.RefreshScheduler
	infra      Infra
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handlers []xhttp.Handler,
	pipeline *mid.AlertPipeline,
	scheduler *usecase.RefreshScheduler,
	infra Infra,
) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	a := &App{
		cfg:       cfg,
		l:         l,
		pipeline:  pipeline,
		scheduler: scheduler,
		infra:     infra,
	}
	a.handlers = append(append([]xhttp.Handler{}, handlers...), healthHandler{app: a})
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// Start launches the alert worker, the refresh schedule and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handlers,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithLogger(a.l),
	)

	a.pipeline.Start(ctx)
	a.l.Info("alert pipeline started", applogger.Int("buffer", a.cfg.Alerts.BufferSize))

	if err := a.scheduler.Start(a.cfg.Loader.Schedule); err != nil {
		a.l.Error("refresh scheduler start error", applogger.Error(err))
		return err
	}
	if a.cfg.Loader.OnStartup {
		a.scheduler.RunNow()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	a.scheduler.Stop(shutdownCtx)
	// drain queued alerts before the notifiers' clients go away
	a.pipeline.Stop(shutdownCtx)

	if a.infra.Hub != nil {
		a.infra.Hub.Close()
	}
	if a.infra.Producer != nil {
		if err := a.infra.Producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.infra.Archive != nil {
		if err := a.infra.Archive.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.infra.Cache != nil {
		if err := a.infra.Cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}

// healthHandler checks infrastructure dependencies.
type healthHandler struct {
	app *App
}

func (h healthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
}

func (h healthHandler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"pipeline": "ok"}
	status := http.StatusOK
	if h.app.infra.Archive != nil {
		if err := h.app.infra.Archive.Health(ctx); err != nil {
			checks["clickhouse"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["clickhouse"] = "ok"
		}
	}
	if h.app.pipeline != nil {
		checks["pending_alerts"] = strconv.Itoa(h.app.pipeline.Pending())
	}
	return xhttp.DataResponse(c, status, checks)
}
