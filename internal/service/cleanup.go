package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bookcatalog/internal/metrics"
	"bookcatalog/internal/storage"
)

const (
	cleanupQueueSize = 100
	cleanupTimeout   = 30 * time.Second
)

// ImageCleaner removes stored cover images once the write replacing them has committed.
type ImageCleaner interface {
	Enqueue(url string)
}

// CleanupWorker deletes stored images on a background goroutine. Failures are
// logged and counted, never surfaced to the request that scheduled them.
type CleanupWorker struct {
	store   storage.ImageStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	mu     sync.Mutex
	closed bool
	queue  chan string
	wg     sync.WaitGroup
}

var _ ImageCleaner = (*CleanupWorker)(nil)

// NewCleanupWorker starts the worker. Call Close to drain it.
func NewCleanupWorker(store storage.ImageStore, log logrus.FieldLogger, m *metrics.Metrics) *CleanupWorker {
	w := &CleanupWorker{
		store:   store,
		log:     log,
		metrics: m,
		queue:   make(chan string, cleanupQueueSize),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

// Enqueue schedules removal of url. URLs the store does not own, such as the
// default cover, are skipped.
func (w *CleanupWorker) Enqueue(url string) {
	if url == "" || !w.store.Owns(url) {
		w.count("skipped")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.remove(url)
		return
	}

	select {
	case w.queue <- url:
	default:
		// Queue full, delete synchronously as fallback
		w.remove(url)
	}
}

// Close stops accepting work and waits for queued deletions to finish.
func (w *CleanupWorker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *CleanupWorker) run() {
	defer w.wg.Done()
	for url := range w.queue {
		w.remove(url)
	}
}

func (w *CleanupWorker) remove(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := w.store.Delete(ctx, url); err != nil {
		w.log.WithError(err).WithField("image", url).Warn("remove stored image")
		w.count("failed")
		return
	}
	w.log.WithField("image", url).Debug("removed stored image")
	w.count("deleted")
}

func (w *CleanupWorker) count(result string) {
	if w.metrics == nil {
		return
	}
	w.metrics.ImageCleanups.WithLabelValues(result).Inc()
}
