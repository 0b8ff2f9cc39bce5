// Package workers fulfils pending clip requests in the background.
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/clips"
)

// Fulfiller is the part of the clip manager workers drive
type Fulfiller interface {
	ListPending(ctx context.Context, limit int) ([]*models.ClipRequest, error)
	Fulfil(ctx context.Context, id string, padding *float64) (*clips.FulfilResult, error)
}

// Worker represents a background worker that fulfils clip requests
type Worker struct {
	id           string
	fulfiller    Fulfiller
	queue        <-chan string
	batch        int
	stopChan     chan struct{}
	wg           sync.WaitGroup
	pollInterval time.Duration
	log          *logrus.Entry
}

// NewWorker creates a new worker instance. Ids sent on queue are fulfilled
// ahead of the next poll.
func NewWorker(id string, fulfiller Fulfiller, queue <-chan string, pollInterval time.Duration, batch int) *Worker {
	if batch <= 0 {
		batch = 1
	}
	return &Worker{
		id:           id,
		fulfiller:    fulfiller,
		queue:        queue,
		batch:        batch,
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
		log:          logging.Component("worker").WithField("worker_id", id),
	}
}

// Start starts the worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker gracefully, waiting for an in-flight request
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.log.Debug("worker starting")
	defer w.log.Debug("worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case id := <-w.queue:
			w.fulfil(ctx, id)
		case <-ticker.C:
			if err := w.processNext(ctx); err != nil {
				w.log.WithError(err).Warn("error processing pending clip requests")
			}
		}
	}
}

// processNext fulfils the first pending request this worker manages to claim.
// Losing a claim to another worker moves on to the next candidate.
func (w *Worker) processNext(ctx context.Context) error {
	pending, err := w.fulfiller.ListPending(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("listing pending clip requests: %w", err)
	}

	for _, req := range pending {
		if w.fulfil(ctx, req.ID) {
			return nil
		}
	}
	return nil
}

// fulfil reports whether this worker claimed the request
func (w *Worker) fulfil(ctx context.Context, id string) bool {
	result, err := w.fulfiller.Fulfil(ctx, id, nil)
	switch {
	case errors.Is(err, clips.ErrInvalidState), errors.Is(err, clips.ErrNotFound):
		return false
	case err != nil:
		w.log.WithError(err).WithField("clip_id", id).Error("fulfilment error")
		return true
	}

	entry := w.log.WithFields(logrus.Fields{"clip_id": id, "status": result.Status})
	if result.Success {
		entry.Info("clip request fulfilled")
	} else {
		entry.WithField("error", result.Error).Warn("clip request failed")
	}
	return true
}

// Summary counts the outcome of one pass over the pending queue
type Summary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers   []*Worker
	fulfiller Fulfiller
	queue     chan string
	mu        sync.RWMutex
	started   bool
	jobs      sync.WaitGroup
	log       *logrus.Entry
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(fulfiller Fulfiller, workerCount int, pollInterval time.Duration) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	pool := &WorkerPool{
		fulfiller: fulfiller,
		queue:     make(chan string, 256),
		workers:   make([]*Worker, workerCount),
		log:       logging.Component("workers"),
	}

	for i := 0; i < workerCount; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		pool.workers[i] = NewWorker(workerID, fulfiller, pool.queue, pollInterval, workerCount)
	}

	return pool
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// Enqueue asks the pool to fulfil id soon. It reports false when the queue is
// full; the request is still picked up by a later poll.
func (p *WorkerPool) Enqueue(id string) bool {
	select {
	case p.queue <- id:
		return true
	default:
		return false
	}
}

// Submit arranges for id to be fulfilled without blocking the caller. Started
// workers take it from the queue; a padding override, a full queue or a pool
// whose workers are not running falls back to a background goroutine.
func (p *WorkerPool) Submit(ctx context.Context, id string, padding *float64) {
	p.mu.RLock()
	started := p.started
	p.mu.RUnlock()

	if started && padding == nil && p.Enqueue(id) {
		return
	}
	p.Go(ctx, func(ctx context.Context) {
		result, err := p.fulfiller.Fulfil(ctx, id, padding)
		entry := p.log.WithField("clip_id", id)
		switch {
		case err != nil:
			entry.WithError(err).Warn("background fulfilment not run")
		case result.Success:
			entry.Info("clip request fulfilled")
		default:
			entry.WithField("error", result.Error).Warn("clip request failed")
		}
	})
}

// Go runs fn on its own goroutine with a context that keeps ctx's values but
// not its cancellation, so work started by a request outlives the request.
// Stop waits for it.
func (p *WorkerPool) Go(ctx context.Context, fn func(ctx context.Context)) {
	p.jobs.Add(1)
	go func() {
		defer p.jobs.Done()
		fn(context.WithoutCancel(ctx))
	}()
}

// ProcessPending fulfils every currently pending request once, using up to
// one goroutine per worker, and returns when all of them are done
func (p *WorkerPool) ProcessPending(ctx context.Context) (*Summary, error) {
	pending, err := p.fulfiller.ListPending(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing pending clip requests: %w", err)
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(p.workers))

	for _, req := range pending {
		g.Go(func() error {
			result, err := p.fulfiller.Fulfil(gctx, req.ID, nil)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, clips.ErrInvalidState), errors.Is(err, clips.ErrNotFound):
				summary.Skipped++
				return nil
			case err != nil:
				return err
			}
			summary.Processed++
			if result.Success {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &summary, err
	}

	p.log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("processed pending clip requests")
	return &summary, nil
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	p.log.WithField("workers", len(p.workers)).Info("starting worker pool")

	for _, worker := range p.workers {
		worker.Start(ctx)
	}

	p.started = true
	return nil
}

// Stop stops all workers gracefully and waits for background jobs
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.started {
		p.log.Info("stopping worker pool")
		for _, worker := range p.workers {
			worker.Stop()
		}
		p.started = false
	}
	p.mu.Unlock()

	p.jobs.Wait()
}
