// internal/usage/recorder.go
package usage

import (
	"context"
	"sync"
	"time"

	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/metrics"
	"capability-explorer/internal/models"

	"github.com/google/uuid"
)

// Recorder delivers usage events to a Sink in the background. Delivery is
// at most once: Record never blocks and events are dropped when the queue is
// full, the recorder is closed, or the sink fails.
type Recorder struct {
	sink         Sink
	queue        chan models.UsageEvent
	workers      int
	writeTimeout time.Duration
	logger       logger.Logger
	now          func() time.Time

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

type Config struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

func NewRecorder(cfg Config, sink Sink, log logger.Logger) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	return &Recorder{
		sink:         sink,
		queue:        make(chan models.UsageEvent, cfg.QueueSize),
		workers:      cfg.Workers,
		writeTimeout: cfg.WriteTimeout,
		logger:       log.WithFields(map[string]interface{}{"component": "usage-recorder"}),
		now:          time.Now,
	}
}

// Start launches the worker goroutines. Calling it twice is a no-op.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.run()
	}
	r.logger.Info("usage recorder started", map[string]interface{}{"workers": r.workers})
}

// Record enqueues event and returns immediately. It reports whether the
// event was accepted.
func (r *Recorder) Record(event models.UsageEvent) bool {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}
	if event.Category == "" {
		event.Category = models.CategoryAPI
	}
	if event.Metadata == nil {
		event.Metadata = map[string]interface{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		metrics.UsageEventsDropped.WithLabelValues("closed").Inc()
		return false
	}

	select {
	case r.queue <- event:
		metrics.UsageQueueDepth.Set(float64(len(r.queue)))
		return true
	default:
		metrics.UsageEventsDropped.WithLabelValues("queue_full").Inc()
		r.logger.Debug("usage queue full, dropping event", map[string]interface{}{"eventName": event.EventName})
		return false
	}
}

// Close stops intake and waits for queued events to drain or ctx to expire.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("usage recorder drained", nil)
		return nil
	case <-ctx.Done():
		r.logger.Warn("usage recorder close timed out", map[string]interface{}{"pending": len(r.queue)})
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for event := range r.queue {
		metrics.UsageQueueDepth.Set(float64(len(r.queue)))
		r.write(event)
	}
}

func (r *Recorder) write(event models.UsageEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			metrics.UsageEventsDropped.WithLabelValues("panic").Inc()
			r.logger.Error("usage sink panicked", map[string]interface{}{"panic": p, "eventName": event.EventName})
		}
	}()

	if err := r.sink.Write(ctx, event); err != nil {
		metrics.UsageEventsDropped.WithLabelValues("sink_error").Inc()
		r.logger.Warn("failed to record usage event", map[string]interface{}{
			"eventName": event.EventName,
			"error":     err,
		})
		return
	}
	metrics.UsageEventsWritten.WithLabelValues(string(event.Category)).Inc()
}
