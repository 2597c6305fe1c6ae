// Package params holds the automation parameters of the effect chain.
//
// The layout is fixed. A Store keeps one atomic word per parameter so the
// audio goroutine can read values without locking while a control goroutine
// writes them.
package params

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/dsp/filter/ladder"
)

// VersionHint tags every parameter of the current layout.
const VersionHint = 1

// Parameter IDs.
const (
	PhaserRate      = effectchain.ParamPhaserRate
	PhaserDepth     = effectchain.ParamPhaserDepth
	PhaserCentre    = effectchain.ParamPhaserCentre
	PhaserFeedback  = effectchain.ParamPhaserFeedback
	PhaserMix       = effectchain.ParamPhaserMix
	ChorusRate      = effectchain.ParamChorusRate
	ChorusDepth     = effectchain.ParamChorusDepth
	ChorusDelay     = effectchain.ParamChorusDelay
	ChorusFeedback  = effectchain.ParamChorusFeedback
	ChorusMix       = effectchain.ParamChorusMix
	Saturation      = effectchain.ParamSaturation
	LadderMode      = effectchain.ParamLadderMode
	LadderCutoff    = effectchain.ParamLadderCutoff
	LadderResonance = effectchain.ParamLadderResonance
	LadderDrive     = effectchain.ParamLadderDrive
)

// ErrUnknownParam is returned for IDs outside the layout.
var ErrUnknownParam = errors.New("unknown parameter")

// Kind distinguishes continuous parameters from choices.
type Kind int

const (
	// KindFloat is a continuous value.
	KindFloat Kind = iota
	// KindChoice is an index into Choices.
	KindChoice
)

func (k Kind) String() string {
	if k == KindChoice {
		return "choice"
	}

	return "float"
}

// Range bounds a parameter. Step zero means continuous.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// Param describes one automation parameter.
type Param struct {
	ID      string
	Name    string
	Kind    Kind
	Range   Range
	Default float64
	Unit    string
	Choices []string
	Version int
}

func floatParam(id string, r Range, def float64, unit string) Param {
	return Param{ID: id, Name: id, Kind: KindFloat, Range: r, Default: def, Unit: unit, Version: VersionHint}
}

var layout = []Param{
	floatParam(PhaserRate, Range{0.01, 2, 0.01}, 0.2, "Hz"),
	floatParam(PhaserDepth, Range{0.01, 1, 0.01}, 0.05, "%"),
	floatParam(PhaserCentre, Range{20, 20000, 1}, 1000, "Hz"),
	floatParam(PhaserFeedback, Range{-1, 1, 0.01}, 0, "%"),
	floatParam(PhaserMix, Range{0.01, 1, 0.01}, 0.05, "%"),
	floatParam(ChorusRate, Range{0.01, 99, 0.1}, 7, "Hz"),
	floatParam(ChorusDepth, Range{0.01, 1, 0.1}, 0.05, "%"),
	floatParam(ChorusDelay, Range{1, 100, 0.1}, 33, "ms"),
	floatParam(ChorusFeedback, Range{-1, 1, 0.01}, 0, "%"),
	floatParam(ChorusMix, Range{0, 1, 0.01}, 0.5, "%"),
	floatParam(Saturation, Range{1, 100, 0.1}, 20, "%"),
	{
		ID:      LadderMode,
		Name:    LadderMode,
		Kind:    KindChoice,
		Range:   Range{0, float64(ladder.NumModes - 1), 1},
		Default: float64(ladder.ModeLPF12),
		Choices: ladder.ModeNames(),
		Version: VersionHint,
	},
	floatParam(LadderCutoff, Range{20, 20000, 0.1}, 20000, "Hz"),
	floatParam(LadderResonance, Range{0, 1, 0.01}, 0.707, ""),
	floatParam(LadderDrive, Range{1, 100, 0.1}, 1, "%"),
}

var index = func() map[string]int {
	m := make(map[string]int, len(layout))
	for i, p := range layout {
		m[p.ID] = i
	}

	return m
}()

// Layout returns every parameter in stable order.
func Layout() []Param {
	out := make([]Param, len(layout))
	copy(out, layout)

	return out
}

// Count returns the number of parameters.
func Count() int {
	return len(layout)
}

// Lookup returns the parameter with the given ID.
func Lookup(id string) (Param, bool) {
	i, ok := index[id]
	if !ok {
		return Param{}, false
	}

	return layout[i], true
}

// Constrain clamps v into the range and snaps it to the step grid. Non-finite
// values fall back to the default. The default itself may lie off the grid
// (LadderResonance 0.707, ChorusDepth 0.05) and is returned unchanged, so
// setting a parameter to its default stores the same value Reset does.
func (p Param) Constrain(v float64) float64 {
	if !core.IsFinite(v) || v == p.Default {
		return p.Default
	}

	v = core.Clamp(v, p.Range.Min, p.Range.Max)
	if p.Range.Step > 0 {
		v = core.Clamp(core.SnapToStep(v, p.Range.Min, p.Range.Step), p.Range.Min, p.Range.Max)
	}

	return v
}

// Normalize maps v onto [0, 1].
func (p Param) Normalize(v float64) float64 {
	span := p.Range.Max - p.Range.Min
	if span <= 0 {
		return 0
	}

	return core.Clamp((v-p.Range.Min)/span, 0, 1)
}

// Denormalize maps n in [0, 1] onto the range and constrains the result.
func (p Param) Denormalize(n float64) float64 {
	n = core.Clamp(n, 0, 1)
	return p.Constrain(p.Range.Min + n*(p.Range.Max-p.Range.Min))
}

// Format renders v for display.
func (p Param) Format(v float64) string {
	if p.Kind == KindChoice {
		i := int(math.Round(v))
		if i >= 0 && i < len(p.Choices) {
			return p.Choices[i]
		}
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if p.Unit != "" && p.Unit != "%" {
		s += " " + p.Unit
	}

	return s
}

// Parse reads a display value: a number, or a choice name for choices.
func (p Param) Parse(text string) (float64, error) {
	if p.Kind == KindChoice {
		for i, c := range p.Choices {
			if c == text {
				return float64(i), nil
			}
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("params: %s: %w", p.ID, err)
	}

	return p.Constrain(v), nil
}
