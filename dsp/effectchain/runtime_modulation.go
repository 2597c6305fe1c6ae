package effectchain

import (
	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effects/modulation"
)

const (
	maxChorusDepthSeconds  = 0.02
	maxChorusCentreSeconds = 0.1
	minChorusBaseSeconds   = 0.001
	maxFeedback            = 0.99
)

type phaserRuntime struct {
	fx      []*modulation.Phaser
	scratch []float64

	rateHz   float64
	depth    float64
	centreHz float64
	feedback float64
	mix      float64
}

func newPhaserRuntime(_ core.ProcessSpec) (Module, error) {
	return &phaserRuntime{
		rateHz:   0.2,
		depth:    0.05,
		centreHz: 1000,
		feedback: 0,
		mix:      0.05,
	}, nil
}

func (r *phaserRuntime) Prepare(spec core.ProcessSpec) error {
	r.fx = r.fx[:0]

	for range spec.NumChannels {
		fx, err := modulation.NewPhaser(spec.SampleRate, modulation.WithPhaserMix(1))
		if err != nil {
			return err
		}

		r.fx = append(r.fx, fx)
	}

	r.scratch = make([]float64, spec.MaxBlockSize)

	return r.apply()
}

func (r *phaserRuntime) UpdateParams(src ParamSource) {
	r.rateHz = core.Clamp(getNum(src, ParamPhaserRate, r.rateHz), 0.01, 2)
	r.depth = core.Clamp(getNum(src, ParamPhaserDepth, r.depth), 0, 1)
	r.centreHz = core.Clamp(getNum(src, ParamPhaserCentre, r.centreHz), 20, 20000)
	r.feedback = core.Clamp(getNum(src, ParamPhaserFeedback, r.feedback), -maxFeedback, maxFeedback)
	r.mix = core.Clamp(getNum(src, ParamPhaserMix, r.mix), 0, 1)

	_ = r.apply()
}

func (r *phaserRuntime) Process(block *buffer.Block) {
	channels := min(block.NumChannels(), len(r.fx))
	for ch := range channels {
		mixedChannel(block.Channel(ch), r.scratch, r.mix, r.fx[ch])
	}
}

func (r *phaserRuntime) apply() error {
	for _, fx := range r.fx {
		if err := configurePhaser(fx, r.rateHz, r.depth, r.centreHz, r.feedback); err != nil {
			return err
		}
	}

	return nil
}

func configurePhaser(fx *modulation.Phaser, rateHz, depth, centreHz, feedback float64) error {
	if err := fx.SetRateHz(rateHz); err != nil {
		return err
	}

	if err := fx.SetDepth(depth); err != nil {
		return err
	}

	if err := fx.SetCentreHz(centreHz); err != nil {
		return err
	}

	return fx.SetFeedback(feedback)
}

type chorusRuntime struct {
	fx      []*modulation.Chorus
	scratch []float64

	rateHz        float64
	depth         float64
	centreDelayMs float64
	feedback      float64
	mix           float64
}

func newChorusRuntime(_ core.ProcessSpec) (Module, error) {
	return &chorusRuntime{
		rateHz:        7,
		depth:         0.05,
		centreDelayMs: 33,
		feedback:      0,
		mix:           0.5,
	}, nil
}

func (r *chorusRuntime) Prepare(spec core.ProcessSpec) error {
	r.fx = r.fx[:0]

	for range spec.NumChannels {
		fx, err := modulation.NewChorus()
		if err != nil {
			return err
		}

		if err := fx.SetSampleRate(spec.SampleRate); err != nil {
			return err
		}

		if err := fx.Reserve(maxChorusCentreSeconds + maxChorusDepthSeconds); err != nil {
			return err
		}

		if err := fx.SetMix(1); err != nil {
			return err
		}

		r.fx = append(r.fx, fx)
	}

	r.scratch = make([]float64, spec.MaxBlockSize)

	return r.apply()
}

func (r *chorusRuntime) UpdateParams(src ParamSource) {
	r.rateHz = core.Clamp(getNum(src, ParamChorusRate, r.rateHz), 0.01, 99)
	r.depth = core.Clamp(getNum(src, ParamChorusDepth, r.depth), 0, 1)
	r.centreDelayMs = core.Clamp(getNum(src, ParamChorusDelay, r.centreDelayMs), 1, 100)
	r.feedback = core.Clamp(getNum(src, ParamChorusFeedback, r.feedback), -maxFeedback, maxFeedback)
	r.mix = core.Clamp(getNum(src, ParamChorusMix, r.mix), 0, 1)

	_ = r.apply()
}

func (r *chorusRuntime) Process(block *buffer.Block) {
	channels := min(block.NumChannels(), len(r.fx))
	for ch := range channels {
		mixedChannel(block.Channel(ch), r.scratch, r.mix, r.fx[ch])
	}
}

func (r *chorusRuntime) apply() error {
	depthSeconds := r.depth * maxChorusDepthSeconds
	baseSeconds := max(r.centreDelayMs/1000-depthSeconds/2, minChorusBaseSeconds)

	for _, fx := range r.fx {
		if err := configureChorus(fx, r.rateHz, depthSeconds, baseSeconds, r.feedback); err != nil {
			return err
		}
	}

	return nil
}

func configureChorus(fx *modulation.Chorus, rateHz, depthSeconds, baseSeconds, feedback float64) error {
	if err := fx.SetSpeedHz(rateHz); err != nil {
		return err
	}

	if err := fx.SetDepth(depthSeconds); err != nil {
		return err
	}

	if err := fx.SetBaseDelay(baseSeconds); err != nil {
		return err
	}

	return fx.SetFeedback(feedback)
}
