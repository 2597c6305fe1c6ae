package modulation

import (
	"fmt"
	"math"
)

const (
	defaultPhaserRateHz      = 0.2
	defaultPhaserCentreHz    = 1000.0
	defaultPhaserDepth       = 0.05
	defaultPhaserStages      = 4
	defaultPhaserFeedback    = 0.0
	defaultPhaserMix         = 0.05
	maxPhaserStages          = 12
	maxPhaserSweepOctaves    = 3.0
	maxPhaserFeedback        = 0.99
	phaserNyquistSafetyRatio = 0.49
)

// PhaserOption mutates phaser construction parameters.
type PhaserOption func(*phaserConfig) error

type phaserConfig struct {
	rateHz   float64
	centreHz float64
	depth    float64
	stages   int
	feedback float64
	mix      float64
}

func defaultPhaserConfig() phaserConfig {
	return phaserConfig{
		rateHz:   defaultPhaserRateHz,
		centreHz: defaultPhaserCentreHz,
		depth:    defaultPhaserDepth,
		stages:   defaultPhaserStages,
		feedback: defaultPhaserFeedback,
		mix:      defaultPhaserMix,
	}
}

// WithPhaserRateHz sets modulation speed in Hz.
func WithPhaserRateHz(rateHz float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if err := checkPhaserRate(rateHz); err != nil {
			return err
		}

		cfg.rateHz = rateHz

		return nil
	}
}

// WithPhaserCentreHz sets the frequency the sweep is centred on.
func WithPhaserCentreHz(centreHz float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if err := checkPhaserCentre(centreHz); err != nil {
			return err
		}

		cfg.centreHz = centreHz

		return nil
	}
}

// WithPhaserDepth sets the sweep depth in [0, 1].
// Full depth sweeps three octaves either side of the centre.
func WithPhaserDepth(depth float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if err := checkUnit("phaser depth", depth); err != nil {
			return err
		}

		cfg.depth = depth

		return nil
	}
}

// WithPhaserStages sets the number of allpass stages in [1, 12].
func WithPhaserStages(stages int) PhaserOption {
	return func(cfg *phaserConfig) error {
		if stages < 1 || stages > maxPhaserStages {
			return fmt.Errorf("phaser stages must be in [1, %d]: %d", maxPhaserStages, stages)
		}

		cfg.stages = stages

		return nil
	}
}

// WithPhaserFeedback sets feedback amount in [-0.99, 0.99].
func WithPhaserFeedback(feedback float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if err := checkFeedback("phaser", feedback); err != nil {
			return err
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithPhaserMix sets wet amount in [0, 1].
func WithPhaserMix(mix float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if err := checkUnit("phaser mix", mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

type phaserAllpassStage struct {
	x1 float64
	y1 float64
}

func (s *phaserAllpassStage) reset() {
	s.x1 = 0
	s.y1 = 0
}

func (s *phaserAllpassStage) process(x, a float64) float64 {
	y := a*x + s.x1 - a*s.y1
	s.x1 = x
	s.y1 = y

	return y
}

// Phaser is a mono allpass-cascade phaser with LFO modulation.
//
// The allpass corner frequency follows
//
//	f(t) = centre * 2^(depth * 3 * sin(phase))
//
// clamped below Nyquist.
type Phaser struct {
	sampleRate float64
	rateHz     float64
	centreHz   float64
	depth      float64
	feedback   float64
	mix        float64

	lfoPhase       float64
	feedbackSample float64

	stages    [maxPhaserStages]phaserAllpassStage
	numStages int
}

// NewPhaser creates a phaser with practical defaults and optional overrides.
func NewPhaser(sampleRate float64, opts ...PhaserOption) (*Phaser, error) {
	if err := checkSampleRate("phaser", sampleRate); err != nil {
		return nil, err
	}

	cfg := defaultPhaserConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	p := &Phaser{
		sampleRate: sampleRate,
		rateHz:     cfg.rateHz,
		centreHz:   cfg.centreHz,
		depth:      cfg.depth,
		feedback:   cfg.feedback,
		mix:        cfg.mix,
		numStages:  cfg.stages,
	}

	return p, nil
}

// SetSampleRate updates sample rate.
func (p *Phaser) SetSampleRate(sampleRate float64) error {
	if err := checkSampleRate("phaser", sampleRate); err != nil {
		return err
	}

	p.sampleRate = sampleRate

	return nil
}

// SetRateHz sets modulation speed in Hz.
func (p *Phaser) SetRateHz(rateHz float64) error {
	if err := checkPhaserRate(rateHz); err != nil {
		return err
	}

	p.rateHz = rateHz

	return nil
}

// SetCentreHz sets the sweep centre frequency in Hz.
func (p *Phaser) SetCentreHz(centreHz float64) error {
	if err := checkPhaserCentre(centreHz); err != nil {
		return err
	}

	p.centreHz = centreHz

	return nil
}

// SetDepth sets the sweep depth in [0, 1].
func (p *Phaser) SetDepth(depth float64) error {
	if err := checkUnit("phaser depth", depth); err != nil {
		return err
	}

	p.depth = depth

	return nil
}

// SetStages sets the number of allpass stages in [1, 12].
// Newly enabled stages start from silence.
func (p *Phaser) SetStages(stages int) error {
	if stages < 1 || stages > maxPhaserStages {
		return fmt.Errorf("phaser stages must be in [1, %d]: %d", maxPhaserStages, stages)
	}

	for i := p.numStages; i < stages; i++ {
		p.stages[i].reset()
	}

	p.numStages = stages

	return nil
}

// SetFeedback sets feedback amount in [-0.99, 0.99].
func (p *Phaser) SetFeedback(feedback float64) error {
	if err := checkFeedback("phaser", feedback); err != nil {
		return err
	}

	p.feedback = feedback

	return nil
}

// SetMix sets wet amount in [0, 1].
func (p *Phaser) SetMix(mix float64) error {
	if err := checkUnit("phaser mix", mix); err != nil {
		return err
	}

	p.mix = mix

	return nil
}

// Reset clears allpass and modulation state.
func (p *Phaser) Reset() {
	for i := range p.stages {
		p.stages[i].reset()
	}

	p.feedbackSample = 0
	p.lfoPhase = 0
}

// Process processes one sample.
func (p *Phaser) Process(sample float64) float64 {
	x := sample + p.feedbackSample*p.feedback
	coef := phaserAllpassCoefficient(p.modulatedFrequency(), p.sampleRate)

	y := x
	for i := 0; i < p.numStages; i++ {
		y = p.stages[i].process(y, coef)
	}

	p.feedbackSample = flushDenormal(y)

	p.lfoPhase += 2 * math.Pi * p.rateHz / p.sampleRate
	if p.lfoPhase >= 2*math.Pi {
		p.lfoPhase -= 2 * math.Pi
	}

	return sample*(1-p.mix) + y*p.mix
}

// ProcessInPlace applies phasing to buf in place.
func (p *Phaser) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = p.Process(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (p *Phaser) SampleRate() float64 { return p.sampleRate }

// RateHz returns LFO speed in Hz.
func (p *Phaser) RateHz() float64 { return p.rateHz }

// CentreHz returns the sweep centre frequency in Hz.
func (p *Phaser) CentreHz() float64 { return p.centreHz }

// Depth returns the sweep depth in [0, 1].
func (p *Phaser) Depth() float64 { return p.depth }

// Stages returns number of allpass stages.
func (p *Phaser) Stages() int { return p.numStages }

// Feedback returns feedback amount in [-0.99, 0.99].
func (p *Phaser) Feedback() float64 { return p.feedback }

// Mix returns wet amount in [0, 1].
func (p *Phaser) Mix() float64 { return p.mix }

// LFOPhase returns the current modulation phase in radians.
func (p *Phaser) LFOPhase() float64 { return p.lfoPhase }

func (p *Phaser) modulatedFrequency() float64 {
	return p.centreHz * math.Exp2(p.depth*maxPhaserSweepOctaves*math.Sin(p.lfoPhase))
}

func phaserAllpassCoefficient(freqHz, sampleRate float64) float64 {
	maxFreq := phaserNyquistSafetyRatio * sampleRate
	if freqHz < 1 {
		freqHz = 1
	} else if freqHz > maxFreq {
		freqHz = maxFreq
	}

	g := math.Tan(math.Pi * freqHz / sampleRate)
	if math.IsInf(g, 0) || math.IsNaN(g) {
		return 0
	}

	return (1 - g) / (1 + g)
}

func checkPhaserRate(rateHz float64) error {
	if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return fmt.Errorf("phaser rate must be > 0 and finite: %f", rateHz)
	}

	return nil
}

func checkPhaserCentre(centreHz float64) error {
	if centreHz <= 0 || math.IsNaN(centreHz) || math.IsInf(centreHz, 0) {
		return fmt.Errorf("phaser centre frequency must be > 0 and finite: %f", centreHz)
	}

	return nil
}
