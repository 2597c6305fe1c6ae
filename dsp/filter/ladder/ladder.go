package ladder

import (
	"fmt"
	"math"
)

const (
	defaultCutoffHz  = 20000.0
	defaultResonance = 0.707
	defaultDrive     = 1.0

	minCutoffHz  = 1.0
	maxResonance = 1.0
	minDrive     = 1.0
	maxDrive     = 100.0

	// Resonance in [0, 1] is mapped onto this feedback range (times four).
	minScaledResonance = 0.1
	maxScaledResonance = 1.0

	// One-pole zero placement; b0 + b1 == 1 - a1 keeps unity DC gain.
	zeroWeight0 = 0.76923076923
	zeroWeight1 = 0.23076923076

	// Share of the driven input subtracted from the feedback path.
	feedbackCompensation = 0.5

	cutoffNyquistRatio = 0.49
	stateLimit         = 32.0
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	mode        Mode
	cutoffHz    float64
	resonance   float64
	drive       float64
	lightweight bool
}

func defaultConfig() config {
	return config{
		mode:      ModeLPF12,
		cutoffHz:  defaultCutoffHz,
		resonance: defaultResonance,
		drive:     defaultDrive,
	}
}

// WithMode selects the filter response.
func WithMode(mode Mode) Option {
	return func(cfg *config) error {
		if !mode.Valid() {
			return fmt.Errorf("ladder: invalid mode: %d", mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithCutoffHz sets cutoff in Hz. Must be finite and >= 1.
// Cutoffs above 0.49 * sample rate are clamped when coefficients are built.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
			return err
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithResonance sets resonance in [0, 1].
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(resonance, 0, maxResonance, "resonance"); err != nil {
			return err
		}

		cfg.resonance = resonance

		return nil
	}
}

// WithDrive sets nonlinear drive in [1, 100].
func WithDrive(drive float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(drive, minDrive, maxDrive, "drive"); err != nil {
			return err
		}

		cfg.drive = drive

		return nil
	}
}

// WithLightweight replaces tanh with a polynomial approximation.
func WithLightweight(enabled bool) Option {
	return func(cfg *config) error {
		cfg.lightweight = enabled
		return nil
	}
}

// State contains explicit ladder runtime state for save/restore workflows.
// Stage[0] is the input after feedback, Stage[1..4] the one-pole outputs.
type State struct {
	Stage [5]float64
}

// Filter is a nonlinear 4-pole ladder with selectable response.
type Filter struct {
	sampleRate float64

	mode        Mode
	cutoffHz    float64
	resonance   float64
	drive       float64
	lightweight bool

	a1              float64
	b0              float64
	b1              float64
	scaledResonance float64
	gain            float64
	drive2          float64
	gain2           float64
	taps            [5]float64

	state State
}

// New constructs a ladder filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("ladder: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{
		sampleRate:  sampleRate,
		mode:        cfg.mode,
		cutoffHz:    cfg.cutoffHz,
		resonance:   cfg.resonance,
		drive:       cfg.drive,
		lightweight: cfg.lightweight,
	}

	f.updateCutoff()
	f.updateResonance()
	f.updateDrive()
	f.taps = modeTaps[f.mode]

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Mode returns the filter response.
func (f *Filter) Mode() Mode { return f.mode }

// CutoffHz returns the requested cutoff frequency in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Resonance returns the resonance in [0, 1].
func (f *Filter) Resonance() float64 { return f.resonance }

// Drive returns nonlinear drive.
func (f *Filter) Drive() float64 { return f.drive }

// SetSampleRate updates sample rate and rebuilds the cutoff coefficient.
func (f *Filter) SetSampleRate(sampleRate float64) error {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("ladder: sample rate must be > 0 and finite: %f", sampleRate)
	}

	f.sampleRate = sampleRate
	f.updateCutoff()

	return nil
}

// SetMode switches the response without touching filter state.
func (f *Filter) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("ladder: invalid mode: %d", mode)
	}

	f.mode = mode
	f.taps = modeTaps[mode]

	return nil
}

// SetCutoffHz updates cutoff.
func (f *Filter) SetCutoffHz(cutoffHz float64) error {
	if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
		return err
	}

	f.cutoffHz = cutoffHz
	f.updateCutoff()

	return nil
}

// SetResonance updates resonance.
func (f *Filter) SetResonance(resonance float64) error {
	if err := validateFiniteRange(resonance, 0, maxResonance, "resonance"); err != nil {
		return err
	}

	f.resonance = resonance
	f.updateResonance()

	return nil
}

// SetDrive updates nonlinear drive.
func (f *Filter) SetDrive(drive float64) error {
	if err := validateFiniteRange(drive, minDrive, maxDrive, "drive"); err != nil {
		return err
	}

	f.drive = drive
	f.updateDrive()

	return nil
}

// Reset clears ladder state.
func (f *Filter) Reset() {
	f.state = State{}
}

// State returns a copy of the current processor state.
func (f *Filter) State() State {
	return f.state
}

// SetState restores an externally saved processor state.
func (f *Filter) SetState(state State) error {
	for _, v := range state.Stage {
		if !isFinite(v) {
			return fmt.Errorf("ladder: state contains NaN or Inf")
		}
	}

	f.state = state

	return nil
}

// ProcessSample processes one sample.
func (f *Filter) ProcessSample(input float64) float64 {
	if !isFinite(input) {
		input = 0
	}

	s := &f.state

	dx := f.gain * f.saturate(f.drive*input)
	a := dx + f.scaledResonance*-4*(f.gain2*f.saturate(f.drive2*s.Stage[4])-dx*feedbackCompensation)
	b := f.b1*s.Stage[0] + f.a1*s.Stage[1] + f.b0*a
	c := f.b1*s.Stage[1] + f.a1*s.Stage[2] + f.b0*b
	d := f.b1*s.Stage[2] + f.a1*s.Stage[3] + f.b0*c
	e := f.b1*s.Stage[3] + f.a1*s.Stage[4] + f.b0*d

	s.Stage[0] = clipState(a)
	s.Stage[1] = clipState(b)
	s.Stage[2] = clipState(c)
	s.Stage[3] = clipState(d)
	s.Stage[4] = clipState(e)

	t := &f.taps
	out := t[0]*a + t[1]*b + t[2]*c + t[3]*d + t[4]*e

	return sanitizeOutput(out)
}

// ProcessInPlace processes a mono buffer in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.ProcessSample(buf[i])
	}
}

func (f *Filter) saturate(x float64) float64 {
	if f.lightweight {
		return fastTanhApprox(x)
	}

	return math.Tanh(x)
}

func (f *Filter) updateCutoff() {
	cutoff := math.Min(f.cutoffHz, cutoffNyquistRatio*f.sampleRate)
	f.a1 = math.Exp(-2 * math.Pi * cutoff / f.sampleRate)
	g := 1 - f.a1
	f.b0 = g * zeroWeight0
	f.b1 = g * zeroWeight1
}

func (f *Filter) updateResonance() {
	f.scaledResonance = minScaledResonance + f.resonance*(maxScaledResonance-minScaledResonance)
}

func (f *Filter) updateDrive() {
	f.gain = driveGain(f.drive)
	f.drive2 = f.drive*0.04 + 0.96
	f.gain2 = driveGain(f.drive2)
}

// driveGain compensates the level rise of tanh(drive*x) so drive mostly
// changes timbre.
func driveGain(drive float64) float64 {
	return math.Pow(drive, -2.642)*0.6103 + 0.3903
}

func validateFiniteRange(value, min, max float64, name string) error {
	if !isFinite(value) {
		return fmt.Errorf("ladder: %s must be finite: %v", name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("ladder: %s must be in [%g, %g]: %f", name, min, max, value)
	}

	return nil
}

func sanitizeOutput(value float64) float64 {
	if !isFinite(value) {
		return 0
	}

	return value
}

func clipState(value float64) float64 {
	if value > stateLimit {
		return stateLimit
	}

	if value < -stateLimit {
		return -stateLimit
	}

	if value > -1e-30 && value < 1e-30 {
		return 0
	}

	return value
}

func fastTanhApprox(x float64) float64 {
	if x > 3 {
		return 1
	}

	if x < -3 {
		return -1
	}

	x2 := x * x

	return clamp(x*(27+x2)/(27+9*x2), -1, 1)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}

	if x > hi {
		return hi
	}

	return x
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
