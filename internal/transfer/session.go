// Package transfer models simulated chunked file transfers: each upload gets
// a Session whose metric samples animate progress while the real write
// happens exactly once when the simulation completes. An ambient Monitor
// built on the same scheduling primitive produces content-free throughput
// samples for the dashboard.
package transfer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sample is one synthetic measurement point of a running transfer.
type Sample struct {
	Timestamp        time.Time `json:"timestamp"`
	SpeedKBps        float64   `json:"speed_kbps"`
	Packets          int64     `json:"packets"`
	BytesTransferred int64     `json:"bytes_transferred"`
	TotalBytes       int64     `json:"total_bytes"`
	Progress         float64   `json:"progress"`
}

// Session is the lifecycle record of one simulated transfer. Samples are
// appended in time order by the simulator goroutine; readers get copies.
type Session struct {
	ID        string
	Owner     string
	FileName  string
	FileSize  int64
	StartedAt time.Time

	mu         sync.Mutex
	samples    []Sample
	completed  bool
	succeeded  bool
	err        error
	finishedAt time.Time

	done chan struct{}
}

func NewSession(fileName string, fileSize int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		FileName:  fileName,
		FileSize:  fileSize,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func (s *Session) append(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)
}

func (s *Session) finish(succeeded bool, err error) {
	s.mu.Lock()
	s.completed = true
	s.succeeded = succeeded
	s.err = err
	s.finishedAt = time.Now()
	s.mu.Unlock()

	close(s.done)
}

// Samples returns a copy of the accumulated metric history.
func (s *Session) Samples() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Sample, len(s.samples))
	copy(out, s.samples)

	return out
}

// Latest returns the most recent sample, or a zero Sample if none exist yet.
func (s *Session) Latest() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return Sample{}, false
	}

	return s.samples[len(s.samples)-1], true
}

// Done is closed when the transfer has been finalized.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Status reports the completed/succeeded flags and the commit error, if any.
func (s *Session) Status() (completed, succeeded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.completed, s.succeeded, s.err
}

// finishedBefore reports whether the session completed before the cutoff.
// Running sessions never qualify.
func (s *Session) finishedBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.completed && s.finishedAt.Before(cutoff)
}

// Wait blocks until the transfer is finalized and returns the commit error.
func (s *Session) Wait() error {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}
