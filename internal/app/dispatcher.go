package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/metrics"
	"github.com/example/plantcare/internal/ports/primary"
)

// Dispatcher errors.
var (
	ErrQueueFull         = apperr.New(apperr.KindConflict, "recompute queue is full")
	ErrDispatcherStopped = apperr.New(apperr.KindInternal, "recompute dispatcher is not running")
)

// RecomputeScheduler defers an incremental recompute.
type RecomputeScheduler interface {
	Schedule(ctx context.Context, req primary.RecomputeRequest) error
}

// Dispatcher runs deferred recomputes on a fixed pool of workers. A request
// for a plant and activity kind that is already queued and not yet started is
// folded into the queued one.
type Dispatcher struct {
	pipeline primary.PipelineService
	workers  int
	metrics  *metrics.PipelineMetrics
	log      *logger.Logger

	mu      sync.Mutex
	queue   chan primary.RecomputeRequest
	pending map[string]bool
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given worker count and queue size.
func NewDispatcher(pipeline primary.PipelineService, workers, queueSize int, m *metrics.PipelineMetrics, log *logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		pipeline: pipeline,
		workers:  workers,
		metrics:  m,
		log:      log,
		queue:    make(chan primary.RecomputeRequest, queueSize),
		pending:  make(map[string]bool),
	}
}

// Start launches the workers. Recomputes run under a context derived from ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.queue = make(chan primary.RecomputeRequest, cap(d.queue))

	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	queue := d.queue
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(workCtx, queue)
	}
	d.log.Info("recompute dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Schedule queues req without blocking.
func (d *Dispatcher) Schedule(_ context.Context, req primary.RecomputeRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ErrDispatcherStopped
	}

	key := dispatchKey(req)
	if d.pending[key] {
		d.log.Debug("recompute coalesced", "plant_id", req.PlantID, "activity_kind", req.ActivityKind)
		return nil
	}

	select {
	case d.queue <- req:
		d.pending[key] = true
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		return fmt.Errorf("%w: plant %s", ErrQueueFull, req.PlantID)
	}
}

// Stop stops accepting requests and waits for queued recomputes to finish.
// When ctx ends first, running recomputes are cancelled and ctx's error is
// returned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.queue)
	cancel := d.cancel
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		d.log.Info("recompute dispatcher stopped")
		return nil
	case <-ctx.Done():
		cancel()
		<-done
		return fmt.Errorf("timed out draining recompute queue: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(ctx context.Context, queue <-chan primary.RecomputeRequest) {
	defer d.wg.Done()
	for req := range queue {
		d.mu.Lock()
		delete(d.pending, dispatchKey(req))
		d.metrics.SetQueueDepth(len(queue))
		d.mu.Unlock()

		if ctx.Err() != nil {
			continue
		}
		d.run(ctx, req)
	}
}

func (d *Dispatcher) run(ctx context.Context, req primary.RecomputeRequest) {
	_, err := d.pipeline.RecomputePlant(ctx, req)
	switch {
	case err == nil:
	case IsSkip(err):
		d.log.Debug("recompute skipped", "plant_id", req.PlantID, "reason", err)
	default:
		d.log.Error("recompute failed", "plant_id", req.PlantID, "activity_kind", req.ActivityKind, "error", err)
	}
}

func dispatchKey(req primary.RecomputeRequest) string {
	return req.PlantID + "|" + req.ActivityKind
}

// InlineScheduler runs recomputes synchronously on the caller's goroutine.
// Skips are not errors.
type InlineScheduler struct {
	Pipeline primary.PipelineService
}

// Schedule runs req now.
func (s InlineScheduler) Schedule(ctx context.Context, req primary.RecomputeRequest) error {
	if _, err := s.Pipeline.RecomputePlant(ctx, req); err != nil && !IsSkip(err) {
		return err
	}
	return nil
}
