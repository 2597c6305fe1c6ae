package meter

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func sine(channels, frames int, freq, amp, sampleRate float64) *buffer.Block {
	b := buffer.NewBlock(channels, frames)
	for ch := range channels {
		buf := b.Channel(ch)
		for i := range buf {
			buf[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		}
	}

	return b
}

func TestLevelsHoldPeakUntilTake(t *testing.T) {
	l := NewLevels()

	b := buffer.FromChannels([]float64{0.1, -0.5, 0.2}, []float64{0, 0.25, 0})
	l.Observe(b)
	l.Observe(buffer.FromChannels([]float64{0.3}, []float64{0.1}))

	assert.InDelta(t, 0.5, l.Peak(0), 1e-12)
	assert.InDelta(t, 0.25, l.Peak(1), 1e-12)
	assert.Zero(t, l.Peak(5))

	held := l.PeaksDB()
	assert.InDelta(t, -6.02, held[0], 0.2)
	assert.Equal(t, held, l.PeaksDB(), "reading must not clear the hold")

	db := l.Take()
	assert.InDelta(t, -6.02, db[0], 0.2)
	assert.InDelta(t, -12.04, db[1], 0.2)

	after := l.Take()
	assert.Equal(t, SilenceDB, after[0])
	assert.Equal(t, SilenceDB, after[1])
}

func TestLevelsIgnoreNonFinite(t *testing.T) {
	l := NewLevels()
	l.Observe(buffer.FromChannels([]float64{math.Inf(1)}))
	assert.Zero(t, l.Peak(0))
}

func TestToDB(t *testing.T) {
	assert.InDelta(t, 0, ToDB(1), 0.1)
	assert.InDelta(t, -20, ToDB(0.1), 0.2)
	assert.Equal(t, SilenceDB, ToDB(0))
	assert.Equal(t, SilenceDB, ToDB(-1))
	assert.Equal(t, SilenceDB, ToDB(1e-30))
}

func TestLevelsObserveDoesNotAllocate(t *testing.T) {
	l := NewLevels()
	b := sine(2, 512, 440, 0.5, 48000)

	allocs := testing.AllocsPerRun(100, func() { l.Observe(b) })
	assert.Zero(t, allocs)
}

func TestNewAnalyzerValidation(t *testing.T) {
	_, err := NewAnalyzer(0)
	require.Error(t, err)

	_, err = NewAnalyzer(48000, WithFFTSize(1000))
	require.ErrorIs(t, err, ErrInvalidFFTSize)

	_, err = NewAnalyzer(48000, WithFFTSize(128))
	require.ErrorIs(t, err, ErrInvalidFFTSize)

	_, err = NewAnalyzer(48000, WithSmoothing(1.5))
	require.Error(t, err)

	_, err = NewAnalyzer(48000, WithFrameQueue(0))
	require.Error(t, err)

	_, err = NewAnalyzer(48000, WithPollInterval(0))
	require.Error(t, err)
}

func TestAnalyzerFindsSinePeak(t *testing.T) {
	a, err := NewAnalyzer(48000, WithFFTSize(2048), WithSmoothing(0))
	require.NoError(t, err)
	assert.False(t, a.Ready())

	a.Observe(sine(2, 4096, 1000, 0.5, 48000))
	assert.Equal(t, 16, a.Poll())
	require.True(t, a.Ready())

	hz, db := a.Peak()
	assert.InDelta(t, 1000, hz, 2*a.BinHz())
	assert.InDelta(t, -6, db, 1.5)

	spec := a.Spectrum()
	assert.Len(t, spec, 1025)
	assert.Less(t, spec[len(spec)-1], db-60)
}

func TestAnalyzerDropsWhenQueueFull(t *testing.T) {
	a, err := NewAnalyzer(48000, WithFrameQueue(2))
	require.NoError(t, err)

	a.Observe(sine(1, FrameSize*5, 440, 0.5, 48000))

	assert.Equal(t, uint64(3), a.Dropped())
	assert.Equal(t, 2, a.Poll())
}

func TestAnalyzerObserveDoesNotAllocate(t *testing.T) {
	a, err := NewAnalyzer(48000)
	require.NoError(t, err)

	b := sine(2, 300, 440, 0.5, 48000)

	allocs := testing.AllocsPerRun(50, func() {
		a.Observe(b)
	})
	assert.Zero(t, allocs)
}

func TestAnalyzerRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := NewAnalyzer(48000, WithFFTSize(512), WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	a.Observe(sine(1, 2048, 3000, 0.5, 48000))

	require.Eventually(t, a.Ready, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestTapsFanOut(t *testing.T) {
	l1, l2 := NewLevels(), NewLevels()
	taps := Taps{l1, nil, l2}

	taps.Observe(buffer.FromChannels([]float64{0.5}))

	assert.InDelta(t, 0.5, l1.Peak(0), 1e-12)
	assert.InDelta(t, 0.5, l2.Peak(0), 1e-12)
}
