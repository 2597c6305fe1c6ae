package effects

import (
	"fmt"
	"math"
)

const (
	defaultOverdriveDrive       = 8.8
	defaultOverdriveMix         = 1.0
	defaultOverdriveOutputLevel = 1.0

	minOverdriveDrive       = 1.0
	maxOverdriveDrive       = 40.0
	minOverdriveOutputLevel = 0.0
	maxOverdriveOutputLevel = 4.0
)

// OverdriveCurve selects the saturation transfer function.
type OverdriveCurve int

const (
	// OverdriveCurveTanh is the hyperbolic tangent.
	OverdriveCurveTanh OverdriveCurve = iota
	// OverdriveCurveSoftClip is the cubic soft clipper.
	OverdriveCurveSoftClip
	// OverdriveCurvePolynomial is a Padé tanh approximation.
	OverdriveCurvePolynomial
)

// OverdriveOption mutates construction-time parameters.
type OverdriveOption func(*overdriveConfig) error

type overdriveConfig struct {
	curve       OverdriveCurve
	drive       float64
	mix         float64
	outputLevel float64
}

func defaultOverdriveConfig() overdriveConfig {
	return overdriveConfig{
		curve:       OverdriveCurveTanh,
		drive:       defaultOverdriveDrive,
		mix:         defaultOverdriveMix,
		outputLevel: defaultOverdriveOutputLevel,
	}
}

// WithOverdriveCurve selects the saturation curve.
func WithOverdriveCurve(curve OverdriveCurve) OverdriveOption {
	return func(cfg *overdriveConfig) error {
		if !validOverdriveCurve(curve) {
			return fmt.Errorf("overdrive curve is invalid: %d", curve)
		}

		cfg.curve = curve

		return nil
	}
}

// WithOverdriveDrive sets input drive in [1, 40].
func WithOverdriveDrive(drive float64) OverdriveOption {
	return func(cfg *overdriveConfig) error {
		if err := checkOverdriveDrive(drive); err != nil {
			return err
		}

		cfg.drive = drive

		return nil
	}
}

// WithOverdriveMix sets dry/wet mix in [0, 1].
func WithOverdriveMix(mix float64) OverdriveOption {
	return func(cfg *overdriveConfig) error {
		if err := checkOverdriveMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// WithOverdriveOutputLevel sets post-shape output level in [0, 4].
func WithOverdriveOutputLevel(level float64) OverdriveOption {
	return func(cfg *overdriveConfig) error {
		if err := checkOverdriveOutputLevel(level); err != nil {
			return err
		}

		cfg.outputLevel = level

		return nil
	}
}

// Overdrive is a memoryless saturation stage.
//
// The wet path is curve(drive*x) / curve(drive), so a full-scale input stays
// at full scale for every drive setting and zero input always maps to zero.
type Overdrive struct {
	sampleRate  float64
	curve       OverdriveCurve
	drive       float64
	mix         float64
	outputLevel float64

	norm float64
}

// NewOverdrive creates an overdrive with practical defaults and optional overrides.
func NewOverdrive(sampleRate float64, opts ...OverdriveOption) (*Overdrive, error) {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("overdrive sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultOverdriveConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	o := &Overdrive{
		sampleRate:  sampleRate,
		curve:       cfg.curve,
		drive:       cfg.drive,
		mix:         cfg.mix,
		outputLevel: cfg.outputLevel,
	}
	o.updateNorm()

	return o, nil
}

// SetSampleRate updates sample rate.
func (o *Overdrive) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return fmt.Errorf("overdrive sample rate must be > 0 and finite: %f", sampleRate)
	}

	o.sampleRate = sampleRate

	return nil
}

// SetCurve selects the saturation curve.
func (o *Overdrive) SetCurve(curve OverdriveCurve) error {
	if !validOverdriveCurve(curve) {
		return fmt.Errorf("overdrive curve is invalid: %d", curve)
	}

	o.curve = curve
	o.updateNorm()

	return nil
}

// SetDrive sets input drive in [1, 40].
func (o *Overdrive) SetDrive(drive float64) error {
	if err := checkOverdriveDrive(drive); err != nil {
		return err
	}

	o.drive = drive
	o.updateNorm()

	return nil
}

// SetMix sets dry/wet mix in [0, 1].
func (o *Overdrive) SetMix(mix float64) error {
	if err := checkOverdriveMix(mix); err != nil {
		return err
	}

	o.mix = mix

	return nil
}

// SetOutputLevel sets post-shape output level in [0, 4].
func (o *Overdrive) SetOutputLevel(level float64) error {
	if err := checkOverdriveOutputLevel(level); err != nil {
		return err
	}

	o.outputLevel = level

	return nil
}

// Reset is a no-op; the overdrive has no memory.
func (o *Overdrive) Reset() {}

// ProcessSample applies overdrive to one sample.
func (o *Overdrive) ProcessSample(input float64) float64 {
	wet := o.shape(input*o.drive) * o.norm * o.outputLevel
	if !isFinite(wet) {
		wet = 0
	}

	return input*(1-o.mix) + wet*o.mix
}

// ProcessInPlace applies overdrive to buf in place.
func (o *Overdrive) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = o.ProcessSample(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (o *Overdrive) SampleRate() float64 { return o.sampleRate }

// Curve returns the active saturation curve.
func (o *Overdrive) Curve() OverdriveCurve { return o.curve }

// Drive returns pre-shape drive.
func (o *Overdrive) Drive() float64 { return o.drive }

// Mix returns dry/wet mix in [0,1].
func (o *Overdrive) Mix() float64 { return o.mix }

// OutputLevel returns post-shape output level.
func (o *Overdrive) OutputLevel() float64 { return o.outputLevel }

func (o *Overdrive) shape(x float64) float64 {
	switch o.curve {
	case OverdriveCurveSoftClip:
		return softClip(x)
	case OverdriveCurvePolynomial:
		return fastTanhApprox(x)
	default:
		return mathTanh(x)
	}
}

func (o *Overdrive) updateNorm() {
	peak := o.shape(o.drive)
	if peak == 0 || !isFinite(peak) {
		o.norm = 1
		return
	}

	o.norm = 1 / peak
}

func validOverdriveCurve(curve OverdriveCurve) bool {
	return curve >= OverdriveCurveTanh && curve <= OverdriveCurvePolynomial
}

func checkOverdriveDrive(drive float64) error {
	if drive < minOverdriveDrive || drive > maxOverdriveDrive || !isFinite(drive) {
		return fmt.Errorf("overdrive drive must be in [%g, %g]: %f", minOverdriveDrive, maxOverdriveDrive, drive)
	}

	return nil
}

func checkOverdriveMix(mix float64) error {
	if mix < 0 || mix > 1 || !isFinite(mix) {
		return fmt.Errorf("overdrive mix must be in [0, 1]: %f", mix)
	}

	return nil
}

func checkOverdriveOutputLevel(level float64) error {
	if level < minOverdriveOutputLevel || level > maxOverdriveOutputLevel || !isFinite(level) {
		return fmt.Errorf("overdrive output level must be in [%g, %g]: %f",
			minOverdriveOutputLevel, maxOverdriveOutputLevel, level)
	}

	return nil
}

func softClip(x float64) float64 {
	ax := math.Abs(x)
	if ax < 1 {
		return 1.5 * (x - (x*x*x)/3)
	}

	return math.Copysign(1, x)
}

func fastTanhApprox(x float64) float64 {
	if x > 3 {
		return 1
	}

	if x < -3 {
		return -1
	}

	x2 := x * x

	return clampUnit(x * (27 + x2) / (27 + 9*x2))
}

func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}

	if x > 1 {
		return 1
	}

	return x
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
