// Package httpapi exposes the pipeline triggers, the activity intake and the
// alert actions over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/version"
)

const (
	// BatchSecretHeader carries the shared secret of the scheduled batch endpoint.
	BatchSecretHeader = "X-Batch-Secret"
	// VersionHeader is set on every response to the server's short commit.
	VersionHeader = "X-Plantcare-Version"
)

// Services are the primary ports the handlers drive.
type Services struct {
	Pipeline   primary.PipelineService
	Activities primary.ActivityService
	Alerts     primary.AlertService
	Query      primary.QueryService
}

// Options configure a Server.
type Options struct {
	// BatchSecret guards POST /api/batch/daily. Empty rejects every call.
	BatchSecret string
	// ManualRatePerMinute limits POST /api/batch/run. Values below 1 mean 1.
	ManualRatePerMinute int
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Ping checks storage for GET /healthz. Nil reports storage as unchecked.
	Ping func(ctx context.Context) error
	Log  *logger.Logger
}

// Server is the HTTP front of the pipeline.
type Server struct {
	echo     *echo.Echo
	services Services
	secret   string
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
	ping     func(ctx context.Context) error
	log      *logger.Logger

	// batches tracks batch runs started by the scheduled trigger.
	batches   sync.WaitGroup
	startTime time.Time
}

// New creates a Server with its routes registered.
func New(services Services, opts Options) *Server {
	perMinute := opts.ManualRatePerMinute
	if perMinute < 1 {
		perMinute = 1
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		services:  services,
		secret:    opts.BatchSecret,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		gatherer:  opts.Gatherer,
		ping:      opts.Ping,
		log:       opts.Log,
		startTime: time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(versionMiddleware)
	e.Use(s.loggingMiddleware())
	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	s.echo.GET("/healthz", s.HealthCheck)
	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api")
	api.POST("/new-activity", s.NewActivity)

	batch := api.Group("/batch")
	batch.POST("/daily", s.DailyBatch, s.requireBatchSecret)
	batch.POST("/run", s.ManualBatch, s.rateLimit)

	alerts := api.Group("/alerts")
	alerts.GET("", s.ListAlerts)
	alerts.POST("/:id/snooze", s.SnoozeAlert)
	alerts.POST("/:id/dismiss", s.DismissAlert)
	alerts.POST("/:id/done", s.MarkAlertDone)

	api.GET("/plants/:id/status", s.GetPlantStatus)
	api.GET("/schedule", s.ListSchedule)
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("HTTP server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight batch runs
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return s.WaitForBatches(ctx)
}

// WaitForBatches blocks until every batch started by the scheduled trigger
// has finished, or ctx expires.
func (s *Server) WaitForBatches(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.batches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("batch runs still in flight: %w", ctx.Err())
	}
}

func versionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(VersionHeader, version.Short())
		return next(c)
	}
}

func (s *Server) loggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			s.log.Debug("HTTP request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"ip", c.RealIP(),
			)
			return nil
		}
	}
}
