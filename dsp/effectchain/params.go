package effectchain

import "math"

// Parameter IDs read by the built-in modules.
const (
	ParamPhaserRate      = "Phaser RateHz"
	ParamPhaserDepth     = "Phaser Depth %"
	ParamPhaserCentre    = "Phaser Center FreqHz"
	ParamPhaserFeedback  = "Phaser Feedback %"
	ParamPhaserMix       = "Phaser Mix %"
	ParamChorusRate      = "Chorus RateHz"
	ParamChorusDepth     = "Chorus Depth %"
	ParamChorusDelay     = "Chorus Center Delay ms"
	ParamChorusFeedback  = "Chorus Feedback %"
	ParamChorusMix       = "Chorus Mix %"
	ParamSaturation      = "Saturation %"
	ParamLadderMode      = "Ladder Filter Mode"
	ParamLadderCutoff    = "Ladder Filter Cutoff Hz"
	ParamLadderResonance = "Ladder Filter Resonance"
	ParamLadderDrive     = "Ladder Filter Drive"
)

// ParamSource yields current parameter values. Implementations used from
// the audio goroutine must answer without locking or allocating.
type ParamSource interface {
	Param(id string) (float64, bool)
}

// ChangeCounter is implemented by parameter sources that can tell whether
// anything changed. The counter only ever grows.
type ChangeCounter interface {
	Changes() uint64
}

// Params is a fixed parameter set, used for offline rendering and tests.
type Params map[string]float64

// Param implements ParamSource.
func (p Params) Param(id string) (float64, bool) {
	v, ok := p[id]
	return v, ok
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	return getNum(p, key, def)
}

func getNum(src ParamSource, key string, def float64) float64 {
	if src == nil {
		return def
	}

	v, ok := src.Param(key)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}
