package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/wire"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background recomputes",
		Long: `Serve the HTTP API. Activity and alert writes return at once and
their recomputes run on background workers. When batch.schedule is set the
daily batch also runs in-process on that cron spec.

Examples:
  plantcare serve
  PLANTCARE_BATCH_SECRET=... plantcare serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			c, err := wire.New(cfg, log, wire.ModeDispatch)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(gocontext.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")

	return cmd
}

// serve runs the dispatcher, the HTTP server and the optional batch cron
// until ctx is cancelled or the server fails, then shuts them down in order.
func serve(ctx gocontext.Context, c *wire.Container) error {
	log := c.Log
	c.Dispatcher.Start(ctx)
	server := c.HTTPServer()

	batches := &scheduledBatches{pipeline: c.Pipeline, log: log.With("component", "cron")}
	var scheduler *cron.Cron
	if spec := c.Config.Batch.Schedule; spec != "" {
		scheduler = cron.NewWithLocation(c.Clock.Location)
		if err := scheduler.AddFunc(spec, func() { batches.run(ctx) }); err != nil {
			return fmt.Errorf("invalid batch.schedule %q: %w", spec, err)
		}
		scheduler.Start()
		log.Info("Scheduled daily batch", "schedule", spec, "timezone", c.Clock.Location.String())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(c.Config.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := gocontext.WithTimeout(gocontext.Background(), shutdownTimeout)
		defer cancel()

		if scheduler != nil {
			scheduler.Stop()
		}
		return errors.Join(
			server.Shutdown(shutdownCtx),
			batches.wait(shutdownCtx),
			c.Dispatcher.Stop(shutdownCtx),
		)
	})
	return g.Wait()
}

// scheduledBatches runs cron-triggered batches and tracks them for shutdown.
type scheduledBatches struct {
	pipeline primary.PipelineService
	log      *logger.Logger
	wg       sync.WaitGroup
}

func (b *scheduledBatches) run(ctx gocontext.Context) {
	b.wg.Add(1)
	defer b.wg.Done()

	result, err := b.pipeline.RunBatch(ctx, run.TriggerDaily)
	switch {
	case errors.Is(err, primary.ErrBatchInProgress):
		b.log.Warn("Skipped scheduled batch, another batch is running")
	case err != nil:
		b.log.Error("Scheduled batch failed", "error", err)
	default:
		b.log.Info("Scheduled batch finished", "run_id", result.RunID, "changes", result.Changes)
	}
}

func (b *scheduledBatches) wait(ctx gocontext.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduled batch still running: %w", ctx.Err())
	}
}
