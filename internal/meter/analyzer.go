package meter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// FrameSize is the number of mono samples shipped per frame.
const FrameSize = 256

const (
	defaultFFTSize       = 2048
	defaultSmoothing     = 0.7
	defaultQueueCapacity = 32
	defaultPollInterval  = 20 * time.Millisecond
)

// ErrInvalidFFTSize is returned for FFT sizes that are not a power of two in
// [FrameSize, 16384].
var ErrInvalidFFTSize = errors.New("invalid fft size")

// Frame is a block of mono samples handed from the audio goroutine to the
// analyzer.
type Frame struct {
	Samples [FrameSize]float64
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig) error

type analyzerConfig struct {
	fftSize   int
	window    window.Type
	smoothing float64
	capacity  int
	poll      time.Duration
}

// WithFFTSize sets the transform length.
func WithFFTSize(n int) AnalyzerOption {
	return func(c *analyzerConfig) error {
		if n < FrameSize || n > 16384 || n&(n-1) != 0 {
			return fmt.Errorf("meter: %w: %d", ErrInvalidFFTSize, n)
		}

		c.fftSize = n

		return nil
	}
}

// WithWindow selects the analysis window.
func WithWindow(t window.Type) AnalyzerOption {
	return func(c *analyzerConfig) error {
		c.window = t
		return nil
	}
}

// WithSmoothing sets the per-update smoothing of the dB spectrum in [0, 0.99].
func WithSmoothing(s float64) AnalyzerOption {
	return func(c *analyzerConfig) error {
		if s < 0 || s > 0.99 || !core.IsFinite(s) {
			return fmt.Errorf("meter: smoothing must be in [0, 0.99]: %v", s)
		}

		c.smoothing = s

		return nil
	}
}

// WithFrameQueue sets how many frames may wait for the analyzer goroutine.
func WithFrameQueue(capacity int) AnalyzerOption {
	return func(c *analyzerConfig) error {
		c.capacity = capacity
		return nil
	}
}

// WithPollInterval sets how often Run drains the frame queue.
func WithPollInterval(d time.Duration) AnalyzerOption {
	return func(c *analyzerConfig) error {
		if d <= 0 {
			return fmt.Errorf("meter: poll interval must be > 0: %v", d)
		}

		c.poll = d

		return nil
	}
}

// Analyzer computes a magnitude spectrum of the chain output.
//
// Observe runs on the audio goroutine. Poll and Run consume frames and must
// not run concurrently with each other. Spectrum may be called from anywhere.
type Analyzer struct {
	frames  *effectchain.Fifo[Frame]
	pending Frame
	fill    int
	dropped atomic.Uint64

	sampleRate float64
	fftSize    int
	hop        int
	smoothing  float64
	poll       time.Duration

	plan   *algofft.Plan[complex128]
	win    []float64
	norm   float64
	work   []float64
	in     []complex128
	out    []complex128
	re, im []float64
	mags   []float64

	ring     []float64
	write    int
	filled   int
	sinceHop int

	mu       sync.RWMutex
	spectrum []float64
	ready    bool
}

var _ effectchain.Tap = (*Analyzer)(nil)

// NewAnalyzer prepares an analyzer for the given sample rate.
func NewAnalyzer(sampleRate float64, opts ...AnalyzerOption) (*Analyzer, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("meter: sample rate must be > 0 and finite: %v", sampleRate)
	}

	cfg := analyzerConfig{
		fftSize:   defaultFFTSize,
		window:    window.TypeBlackmanHarris4Term,
		smoothing: defaultSmoothing,
		capacity:  defaultQueueCapacity,
		poll:      defaultPollInterval,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	frames, err := effectchain.NewFifo[Frame](cfg.capacity)
	if err != nil {
		return nil, fmt.Errorf("meter: frame queue: %w", err)
	}

	plan, err := algofft.NewPlan64(cfg.fftSize)
	if err != nil {
		return nil, fmt.Errorf("meter: fft plan: %w", err)
	}

	win := window.Generate(cfg.window, cfg.fftSize, window.WithPeriodic())

	gain, err := window.CoherentGain(win)
	if err != nil {
		return nil, fmt.Errorf("meter: window: %w", err)
	}

	bins := cfg.fftSize/2 + 1

	a := &Analyzer{
		frames:     frames,
		sampleRate: sampleRate,
		fftSize:    cfg.fftSize,
		hop:        cfg.fftSize / 2,
		smoothing:  cfg.smoothing,
		poll:       cfg.poll,
		plan:       plan,
		win:        win,
		norm:       float64(cfg.fftSize) * gain,
		ring:       make([]float64, cfg.fftSize),
		work:       make([]float64, cfg.fftSize),
		in:         make([]complex128, cfg.fftSize),
		out:        make([]complex128, cfg.fftSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mags:       make([]float64, bins),
		spectrum:   make([]float64, bins),
	}

	for i := range a.spectrum {
		a.spectrum[i] = SilenceDB
	}

	return a, nil
}

// Observe mixes the block down to mono and queues full frames. A full queue
// drops the frame.
func (a *Analyzer) Observe(block *buffer.Block) {
	channels := block.NumChannels()
	if channels == 0 {
		return
	}

	scale := 1 / float64(channels)

	for i := range block.NumFrames() {
		sum := 0.0
		for ch := range channels {
			sum += block.Channel(ch)[i]
		}

		a.pending.Samples[a.fill] = sum * scale
		a.fill++

		if a.fill == FrameSize {
			if !a.frames.Push(a.pending) {
				a.dropped.Add(1)
			}

			a.fill = 0
		}
	}
}

// Dropped returns how many frames were lost to a full queue.
func (a *Analyzer) Dropped() uint64 {
	return a.dropped.Load()
}

// Run drains the frame queue every poll interval until ctx is done.
func (a *Analyzer) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.Poll()
		}
	}
}

// Poll consumes every queued frame and returns how many it took.
func (a *Analyzer) Poll() int {
	n := 0

	for {
		f, ok := a.frames.Pop()
		if !ok {
			return n
		}

		a.consume(&f)
		n++
	}
}

// Spectrum returns a copy of the smoothed spectrum in dBFS, one value per bin
// from DC to Nyquist.
func (a *Analyzer) Spectrum() []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]float64, len(a.spectrum))
	copy(out, a.spectrum)

	return out
}

// Ready reports whether at least one transform has completed.
func (a *Analyzer) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.ready
}

// BinHz returns the frequency spacing of the spectrum bins.
func (a *Analyzer) BinHz() float64 {
	return a.sampleRate / float64(a.fftSize)
}

// Peak returns the frequency and level of the loudest bin above DC.
func (a *Analyzer) Peak() (hz, db float64) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	best := 1
	for k := 2; k < len(a.spectrum); k++ {
		if a.spectrum[k] > a.spectrum[best] {
			best = k
		}
	}

	return float64(best) * a.BinHz(), a.spectrum[best]
}

func (a *Analyzer) consume(f *Frame) {
	for _, s := range f.Samples {
		a.ring[a.write] = s

		a.write++
		if a.write == a.fftSize {
			a.write = 0
		}
	}

	a.filled = min(a.filled+FrameSize, a.fftSize)
	a.sinceHop += FrameSize

	if a.filled < a.fftSize || a.sinceHop < a.hop {
		return
	}

	a.sinceHop = 0
	a.transform()
}

func (a *Analyzer) transform() {
	// Oldest sample first.
	n := copy(a.work, a.ring[a.write:])
	copy(a.work[n:], a.ring[:a.write])

	vecmath.MulBlockInPlace(a.work, a.win)

	for i, s := range a.work {
		a.in[i] = complex(s, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}

	vecmath.Magnitude(a.mags, a.re, a.im)

	last := len(a.mags) - 1

	a.mu.Lock()
	defer a.mu.Unlock()

	for k, m := range a.mags {
		m /= a.norm
		if k > 0 && k < last {
			m *= 2
		}

		db := ToDB(m)
		if a.ready {
			db = a.smoothing*a.spectrum[k] + (1-a.smoothing)*db
		}

		a.spectrum[k] = db
	}

	a.ready = true
}
