package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
)

// Recorder writes predictions in the background so request latency never depends on disk.
// When the queue is full the prediction is dropped and reported through onError.
type Recorder struct {
	repo    *Repository
	queue   chan *Prediction
	onError func(error)

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// ErrQueueFull is passed to onError when a prediction is dropped
var ErrQueueFull = errors.New("history queue full")

// NewRecorder starts the background writer. onError may be nil.
func NewRecorder(repo *Repository, buffer int, onError func(error)) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	if onError == nil {
		onError = func(error) {}
	}

	r := &Recorder{
		repo:    repo,
		queue:   make(chan *Prediction, buffer),
		onError: onError,
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)

	for p := range r.queue {
		apperrors.SafeExecute(func() { r.write(p) }, func(rec interface{}) {
			slog.Error("Panic while recording prediction", "endpoint", p.Endpoint, "panic", rec)
			r.onError(fmt.Errorf("record prediction: panic: %v", rec))
		})
	}
}

func (r *Recorder) write(p *Prediction) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.repo.Insert(ctx, p); err != nil {
		slog.Warn("Failed to record prediction", "endpoint", p.Endpoint, "error", err)
		r.onError(err)
	}
}

// Record queues p without blocking. It reports whether p was accepted.
func (r *Recorder) Record(p *Prediction) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}

	select {
	case r.queue <- p:
		return true
	default:
		r.onError(ErrQueueFull)
		return false
	}
}

// Close stops accepting predictions and waits for queued ones to be written
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}
