// Package wire builds the plantcare object graph. A Container is created once
// per process and owns the database handle.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cliadapter "github.com/example/plantcare/internal/adapters/cli"
	"github.com/example/plantcare/internal/adapters/cache"
	"github.com/example/plantcare/internal/adapters/httpapi"
	"github.com/example/plantcare/internal/adapters/sqlite"
	"github.com/example/plantcare/internal/app"
	"github.com/example/plantcare/internal/config"
	"github.com/example/plantcare/internal/db"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/metrics"
)

// Mode selects how activity and alert writes trigger recomputes.
type Mode int

const (
	// ModeInline recomputes before the write call returns. Used by one-shot
	// CLI commands, which exit before a worker could run.
	ModeInline Mode = iota
	// ModeDispatch queues recomputes on the Dispatcher. Used by serve.
	ModeDispatch
)

// Container holds the wired services of one process.
type Container struct {
	Config   *config.Config
	Log      *logger.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	Metrics  *metrics.PipelineMetrics
	Lookups  *cache.LookupRepository
	Stores   app.Stores
	Clock    app.Clock

	Pipeline   *app.PipelineServiceImpl
	Dispatcher *app.Dispatcher // nil in ModeInline
	Activities *app.ActivityServiceImpl
	Alerts     *app.AlertServiceImpl
	Plants     *app.PlantServiceImpl
	Query      *app.QueryServiceImpl
}

// New opens the database and wires every service.
func New(cfg *config.Config, log *logger.Logger, mode Mode) (*Container, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	database, err := db.Open(cfg.Database.Path, log.Info)
	if err != nil {
		return nil, err
	}

	if err := db.SeedLookups(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to seed lookups: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	lookups := cache.NewLookupRepository(sqlite.NewLookupRepository(database), cfg.Lookup.CacheTTL, m)
	stores := app.Stores{
		Tx:            sqlite.NewTransactor(database),
		Plants:        sqlite.NewPlantRepository(database),
		Lookups:       lookups,
		Activities:    sqlite.NewActivityRepository(database),
		Factors:       sqlite.NewFactorRepository(database),
		Contributions: sqlite.NewContributionRepository(database),
		Statuses:      sqlite.NewStatusRepository(database),
		Schedule:      sqlite.NewScheduleRepository(database),
		Alerts:        sqlite.NewAlertRepository(database),
		Runs:          sqlite.NewRunRepository(database),
	}
	clock := app.SystemClock(loc)

	c := &Container{
		Config:   cfg,
		Log:      log,
		DB:       database,
		Registry: registry,
		Metrics:  m,
		Lookups:  lookups,
		Stores:   stores,
		Clock:    clock,
	}

	c.Pipeline = app.NewPipelineService(stores, nil, clock, m, log.With("component", "pipeline"))

	var scheduler app.RecomputeScheduler = app.InlineScheduler{Pipeline: c.Pipeline}
	if mode == ModeDispatch {
		c.Dispatcher = app.NewDispatcher(c.Pipeline, cfg.Dispatcher.Workers, cfg.Dispatcher.QueueSize, m, log.With("component", "dispatcher"))
		scheduler = c.Dispatcher
	}

	c.Activities = app.NewActivityService(stores, scheduler, clock, log.With("component", "activity"))
	c.Alerts = app.NewAlertService(stores, scheduler, clock, log.With("component", "alert"))
	c.Plants = app.NewPlantService(stores, scheduler, clock, log.With("component", "plant"))
	c.Query = app.NewQueryService(stores)
	return c, nil
}

// Close releases the database handle.
func (c *Container) Close() error {
	return c.DB.Close()
}

// HTTPServer returns the HTTP front wired to the container's services.
func (c *Container) HTTPServer() *httpapi.Server {
	return httpapi.New(httpapi.Services{
		Pipeline:   c.Pipeline,
		Activities: c.Activities,
		Alerts:     c.Alerts,
		Query:      c.Query,
	}, httpapi.Options{
		BatchSecret:         c.Config.Batch.Secret,
		ManualRatePerMinute: c.Config.Batch.ManualRatePerMinute,
		Gatherer:            c.Registry,
		Ping:                func(ctx context.Context) error { return c.DB.PingContext(ctx) },
		Log:                 c.Log.With("component", "http"),
	})
}

// PlantAdapter returns a new PlantAdapter writing to out, or stdout when out is nil.
func (c *Container) PlantAdapter(out io.Writer) *cliadapter.PlantAdapter {
	return cliadapter.NewPlantAdapter(c.Plants, orStdout(out))
}

// CareAdapter returns a new CareAdapter writing to out, or stdout when out is nil.
func (c *Container) CareAdapter(out io.Writer) *cliadapter.CareAdapter {
	return cliadapter.NewCareAdapter(c.Activities, c.Alerts, orStdout(out))
}

// ReportAdapter returns a new ReportAdapter writing to out, or stdout when out is nil.
func (c *Container) ReportAdapter(out io.Writer) *cliadapter.ReportAdapter {
	return cliadapter.NewReportAdapter(c.Query, c.Pipeline, orStdout(out))
}

func orStdout(out io.Writer) io.Writer {
	if out == nil {
		return os.Stdout
	}
	return out
}
