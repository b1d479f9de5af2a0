// Package cleanup runs the background sweep of expired cached sessions
package cleanup

import (
	"sync"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
)

// Worker periodically removes expired session state from every project cache
type Worker struct {
	cache    *manager.Manager
	logger   *logging.ChanneledLogger
	interval time.Duration

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a cleanup worker using the configured sweep interval
func NewWorker(cache *manager.Manager, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:    cache,
		logger:   logger,
		interval: config.SessionSweepEvery,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine
func (w *Worker) Start() {
	w.logger.Cache().Info("Session cleanup worker starting", "interval", w.interval)
	go w.run()
}

// Stop signals the loop to exit and waits for it to finish
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	w.logger.Cache().Info("Session cleanup worker stopped")
}

func (w *Worker) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) sweep() {
	start := time.Now()
	total := 0
	for _, projectID := range w.cache.ProjectIDs() {
		total += w.cache.SweepExpired(projectID)
	}
	if total > 0 {
		w.logger.Cache().Info("Session sweep complete", "removed", total, "duration", time.Since(start))
	}
}
