package effectchain

import (
	"math"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effects"
	"github.com/cwbudde/algo-multifx/dsp/filter/ladder"
)

const (
	minSaturation = 1.0
	maxSaturation = 100.0
	minDriveGain  = 1.0
	maxDriveGain  = 40.0
)

type overdriveRuntime struct {
	fx         []*effects.Overdrive
	saturation float64
}

func newOverdriveRuntime(_ core.ProcessSpec) (Module, error) {
	return &overdriveRuntime{saturation: 20}, nil
}

func (r *overdriveRuntime) Prepare(spec core.ProcessSpec) error {
	r.fx = r.fx[:0]

	for range spec.NumChannels {
		fx, err := effects.NewOverdrive(spec.SampleRate, effects.WithOverdriveDrive(saturationToDrive(r.saturation)))
		if err != nil {
			return err
		}

		r.fx = append(r.fx, fx)
	}

	return nil
}

func (r *overdriveRuntime) UpdateParams(src ParamSource) {
	r.saturation = core.Clamp(getNum(src, ParamSaturation, r.saturation), minSaturation, maxSaturation)

	drive := saturationToDrive(r.saturation)
	for _, fx := range r.fx {
		_ = fx.SetDrive(drive)
	}
}

func (r *overdriveRuntime) Process(block *buffer.Block) {
	channels := min(block.NumChannels(), len(r.fx))
	for ch := range channels {
		r.fx[ch].ProcessInPlace(block.Channel(ch))
	}
}

// saturationToDrive maps the 1..100 % control linearly onto the drive range.
func saturationToDrive(saturation float64) float64 {
	t := (saturation - minSaturation) / (maxSaturation - minSaturation)
	return core.Clamp(minDriveGain+t*(maxDriveGain-minDriveGain), minDriveGain, maxDriveGain)
}

type ladderRuntime struct {
	fx []*ladder.Filter

	mode      ladder.Mode
	cutoffHz  float64
	resonance float64
	drive     float64
}

func newLadderRuntime(_ core.ProcessSpec) (Module, error) {
	return &ladderRuntime{
		mode:      ladder.ModeLPF12,
		cutoffHz:  20000,
		resonance: 0.707,
		drive:     1,
	}, nil
}

func (r *ladderRuntime) Prepare(spec core.ProcessSpec) error {
	r.fx = r.fx[:0]

	for range spec.NumChannels {
		fx, err := ladder.New(spec.SampleRate,
			ladder.WithMode(r.mode),
			ladder.WithCutoffHz(r.cutoffHz),
			ladder.WithResonance(r.resonance),
			ladder.WithDrive(r.drive),
		)
		if err != nil {
			return err
		}

		r.fx = append(r.fx, fx)
	}

	return nil
}

func (r *ladderRuntime) UpdateParams(src ParamSource) {
	mode := math.Round(getNum(src, ParamLadderMode, float64(r.mode)))
	r.mode = ladder.Mode(core.Clamp(mode, 0, float64(ladder.NumModes-1)))
	r.cutoffHz = core.Clamp(getNum(src, ParamLadderCutoff, r.cutoffHz), 20, 20000)
	r.resonance = core.Clamp(getNum(src, ParamLadderResonance, r.resonance), 0, 1)
	r.drive = core.Clamp(getNum(src, ParamLadderDrive, r.drive), 1, 100)

	for _, fx := range r.fx {
		_ = configureLadder(fx, r.mode, r.cutoffHz, r.resonance, r.drive)
	}
}

func (r *ladderRuntime) Process(block *buffer.Block) {
	channels := min(block.NumChannels(), len(r.fx))
	for ch := range channels {
		r.fx[ch].ProcessInPlace(block.Channel(ch))
	}
}

func configureLadder(fx *ladder.Filter, mode ladder.Mode, cutoffHz, resonance, drive float64) error {
	if err := fx.SetMode(mode); err != nil {
		return err
	}

	if err := fx.SetCutoffHz(cutoffHz); err != nil {
		return err
	}

	if err := fx.SetResonance(resonance); err != nil {
		return err
	}

	return fx.SetDrive(drive)
}
