package transfer

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// monitorRetention is how many samples the dashboard keeps.
const monitorRetention = 50

// MonitorSample is one content-free throughput reading. Unlike Sample it is
// tied to no real file, it only animates the ambient dashboard.
type MonitorSample struct {
	Timestamp    time.Time `json:"timestamp"`
	UploadKBps   float64   `json:"upload_kbps"`
	DownloadKBps float64   `json:"download_kbps"`
}

// Monitor produces one random throughput sample per interval while running,
// retaining the most recent 50. Stop is the single owner of the sampling
// goroutine's lifetime; stopping always tears the goroutine down.
type Monitor struct {
	Interval time.Duration

	mu      sync.Mutex
	samples []MonitorSample
	cancel  context.CancelFunc
}

func NewMonitor() *Monitor {
	return &Monitor{Interval: time.Second}
}

// Start begins sampling. Starting an already-running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go m.loop(ctx)
}

// Stop cancels the sampling goroutine. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return
	}

	m.cancel()
	m.cancel = nil
}

// Running reports whether the monitor is currently sampling.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cancel != nil
}

// Samples returns a copy of the retained window, oldest first.
func (m *Monitor) Samples() []MonitorSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MonitorSample, len(m.samples))
	copy(out, m.samples)

	return out
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.record(MonitorSample{
				Timestamp:    time.Now(),
				UploadKBps:   100 + rand.Float64()*500,
				DownloadKBps: 200 + rand.Float64()*800,
			})
		}
	}
}

func (m *Monitor) record(s MonitorSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, s)
	if len(m.samples) > monitorRetention {
		m.samples = m.samples[len(m.samples)-monitorRetention:]
	}
}
