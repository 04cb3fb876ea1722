package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// RuntimeSampler periodically copies Go runtime statistics into Metrics
type RuntimeSampler struct {
	metrics  *Metrics
	logger   *Logger
	interval time.Duration
	// heapWarn logs a system event when the heap grows past it (bytes, 0 disables)
	heapWarn uint64
}

// NewRuntimeSampler creates a sampler
func NewRuntimeSampler(metrics *Metrics, logger *Logger, interval time.Duration, heapWarn uint64) *RuntimeSampler {
	return &RuntimeSampler{
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		heapWarn: heapWarn,
	}
}

// Run samples until ctx is cancelled
func (s *RuntimeSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *RuntimeSampler) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s.metrics.RecordRuntimeMetrics(
		int64(ms.NumGC),
		int64(ms.PauseTotalNs),
		int64(ms.HeapAlloc),
		int64(ms.HeapSys),
		int64(runtime.NumGoroutine()),
	)

	if s.heapWarn > 0 && ms.HeapAlloc > s.heapWarn {
		s.logger.SystemLogger("memory_pressure", fmt.Sprintf(
			"heap_alloc:%dMB threshold:%dMB goroutines:%d",
			ms.HeapAlloc/(1024*1024),
			s.heapWarn/(1024*1024),
			runtime.NumGoroutine(),
		))
	}
}
