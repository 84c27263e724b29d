package transfer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSimulator() *Simulator {
	return &Simulator{MinDelay: time.Microsecond, MaxDelay: 2 * time.Microsecond}
}

func TestSimulatorMonotonicCompletion(t *testing.T) {
	t.Parallel()

	const fileSize = 500_000

	s := NewSession("big.bin", fileSize)
	committed := false

	err := fastSimulator().Run(context.Background(), s, func() error {
		committed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, committed)

	completed, succeeded, serr := s.Status()
	assert.True(t, completed)
	assert.True(t, succeeded)
	assert.NoError(t, serr)

	samples := s.Samples()
	require.NotEmpty(t, samples)

	var prev int64
	for _, sample := range samples {
		assert.GreaterOrEqual(t, sample.BytesTransferred, prev)
		assert.Equal(t, int64(fileSize), sample.TotalBytes)
		assert.Equal(t, int64(math.Ceil(float64(sample.BytesTransferred)/1500)), sample.Packets)
		prev = sample.BytesTransferred
	}

	last := samples[len(samples)-1]
	assert.Equal(t, int64(fileSize), last.BytesTransferred)
	assert.Equal(t, float64(100), last.Progress)

	// ~100 chunks for a file well above the minimum chunk size
	assert.InDelta(t, 100, len(samples), 2)
}

func TestSimulatorTinyFile(t *testing.T) {
	t.Parallel()

	// Below the minimum chunk size the whole file goes in one step
	s := NewSession("tiny.txt", 10)

	err := fastSimulator().Run(context.Background(), s, func() error { return nil })
	require.NoError(t, err)

	samples := s.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, int64(10), samples[0].BytesTransferred)
	assert.Equal(t, float64(100), samples[0].Progress)
}

func TestSimulatorEmptyFile(t *testing.T) {
	t.Parallel()

	s := NewSession("empty", 0)
	committed := false

	err := fastSimulator().Run(context.Background(), s, func() error {
		committed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, committed)

	completed, succeeded, _ := s.Status()
	assert.True(t, completed)
	assert.True(t, succeeded)
}

func TestSimulatorCommitFailure(t *testing.T) {
	t.Parallel()

	s := NewSession("doomed.bin", 5000)
	wantErr := errors.New("quota exceeded")

	err := fastSimulator().Run(context.Background(), s, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	completed, succeeded, serr := s.Status()
	assert.True(t, completed)
	assert.False(t, succeeded)
	assert.ErrorIs(t, serr, wantErr)

	assert.ErrorIs(t, s.Wait(), wantErr)
}

func TestSimulatorCancellation(t *testing.T) {
	t.Parallel()

	sim := &Simulator{MinDelay: 5 * time.Millisecond, MaxDelay: 10 * time.Millisecond}
	s := NewSession("slow.bin", 50_000_000)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- sim.Run(ctx, s, func() error {
			t.Error("commit must not run for a cancelled transfer")
			return nil
		})
	}()

	// Let at least one chunk through, then pull the plug
	require.Eventually(t, func() bool {
		_, ok := s.Latest()
		return ok
	}, time.Second, time.Millisecond)

	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	completed, succeeded, serr := s.Status()
	assert.True(t, completed)
	assert.False(t, succeeded)
	assert.ErrorIs(t, serr, context.Canceled)

	// No further samples after finalization
	count := len(s.Samples())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, len(s.Samples()))
}

func TestSessionWaitDelivery(t *testing.T) {
	t.Parallel()

	s := NewSession("a.bin", 2048)

	go fastSimulator().Run(context.Background(), s, func() error { return nil })

	require.NoError(t, s.Wait())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel should be closed after Wait returns")
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	s := NewSession("x", 1)
	r.Add(s)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}
