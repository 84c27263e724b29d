package transfer

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	// mtuBytes is the fixed packet size the packet estimate assumes.
	mtuBytes = 1500

	// minChunkSize keeps tiny files from producing hundreds of no-op steps.
	minChunkSize = 1024

	targetChunks = 100
)

// CommitFunc performs the real write once the simulated transfer reaches
// 100%. Its error decides whether the session counts as succeeded.
type CommitFunc func() error

// Simulator drives sessions through their chunk schedule. Delay bounds are
// configurable so tests don't have to wait out the production pacing.
type Simulator struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

func NewSimulator() *Simulator {
	return &Simulator{
		MinDelay: 50 * time.Millisecond,
		MaxDelay: 150 * time.Millisecond,
	}
}

// Run advances the session chunk by chunk until all bytes are "transferred",
// then invokes commit and finalizes the session. The context is checked
// before every step; cancellation finalizes the session as failed without
// calling commit. Run blocks, callers wanting fire-and-forget start it in a
// goroutine and use Session.Done.
func (sim *Simulator) Run(ctx context.Context, s *Session, commit CommitFunc) error {
	chunkSize := s.FileSize / targetChunks
	if chunkSize < minChunkSize {
		chunkSize = minChunkSize
	}

	var transferred int64
	lastTime := time.Now()
	var lastBytes int64

	for transferred < s.FileSize {
		transferred += chunkSize
		if transferred > s.FileSize {
			transferred = s.FileSize
		}

		now := time.Now()
		elapsed := now.Sub(lastTime).Seconds()
		if elapsed <= 0 {
			elapsed = 0.001
		}

		deltaKB := float64(transferred-lastBytes) / 1024

		s.append(Sample{
			Timestamp:        now,
			SpeedKBps:        deltaKB / elapsed,
			Packets:          int64(math.Ceil(float64(transferred) / mtuBytes)),
			BytesTransferred: transferred,
			TotalBytes:       s.FileSize,
			Progress:         100 * float64(transferred) / float64(s.FileSize),
		})

		lastTime = now
		lastBytes = transferred

		if transferred == s.FileSize {
			break
		}

		delay := sim.MinDelay
		if sim.MaxDelay > sim.MinDelay {
			delay += time.Duration(rand.Int63n(int64(sim.MaxDelay - sim.MinDelay)))
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finish(false, ctx.Err())

			zap.L().Debug("Transfer cancelled",
				zap.String("transferID", s.ID),
				zap.Int64("transferred", transferred),
			)

			return ctx.Err()
		case <-timer.C:
		}
	}

	err := commit()
	s.finish(err == nil, err)

	if err != nil {
		zap.L().Error("Transfer commit failed", zap.Error(err), zap.String("transferID", s.ID))
		return err
	}

	zap.L().Debug("Transfer completed",
		zap.String("transferID", s.ID),
		zap.Int64("bytes", s.FileSize),
		zap.Duration("took", time.Since(s.StartedAt)),
	)

	return nil
}
