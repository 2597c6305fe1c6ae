package effectchain

import (
	"testing"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/stretchr/testify/require"
)

// affineModule maps every sample x to x*scale+offset and records what it saw.
type affineModule struct {
	scale  float64
	offset float64

	prepared  int
	processed int
	updates   int
	frames    []int
	lastSpec  core.ProcessSpec
}

func (m *affineModule) Prepare(spec core.ProcessSpec) error {
	m.prepared++
	m.lastSpec = spec

	return nil
}

func (m *affineModule) Process(block *buffer.Block) {
	m.processed++
	m.frames = append(m.frames, block.NumFrames())

	for ch := range block.NumChannels() {
		buf := block.Channel(ch)
		for i := range buf {
			buf[i] = buf[i]*m.scale + m.offset
		}
	}
}

func (m *affineModule) UpdateParams(_ ParamSource) {
	m.updates++
}

func (m *affineModule) apply(x float64) float64 {
	return x*m.scale + m.offset
}

// rack4 holds one affine module per effect. The coefficients are chosen so
// that no two modules commute.
type rack4 struct {
	phaser, chorus, overdrive, ladder *affineModule
}

func newRack4() *rack4 {
	return &rack4{
		phaser:    &affineModule{scale: 2, offset: 1},
		chorus:    &affineModule{scale: 3, offset: -1},
		overdrive: &affineModule{scale: -1, offset: 0.5},
		ladder:    &affineModule{scale: 0.5, offset: 2},
	}
}

func (r *rack4) module(opt Option) *affineModule {
	switch opt {
	case OptionPhaser:
		return r.phaser
	case OptionChorus:
		return r.chorus
	case OptionOverdrive:
		return r.overdrive
	case OptionLadderFilter:
		return r.ladder
	default:
		return nil
	}
}

func (r *rack4) registry(t *testing.T) *Registry {
	t.Helper()

	reg := NewRegistry()
	for _, opt := range Effects() {
		m := r.module(opt)
		require.NoError(t, reg.Register(opt, func(core.ProcessSpec) (Module, error) { return m, nil }))
	}

	return reg
}

// expected applies the active modules of o to x in slot order.
func (r *rack4) expected(o Order, x float64) float64 {
	for _, opt := range o {
		if m := r.module(opt); m != nil {
			x = m.apply(x)
		}
	}

	return x
}

func testSpec(channels, maxBlock int) core.ProcessSpec {
	return core.NewProcessSpec(
		core.WithSampleRate(48000),
		core.WithMaxBlockSize(maxBlock),
		core.WithNumChannels(channels),
	)
}

func rampBlock(channels, frames int) *buffer.Block {
	b := buffer.NewBlock(channels, frames)
	for ch := range channels {
		buf := b.Channel(ch)
		for i := range buf {
			buf[i] = float64(i)*0.01 + float64(ch)*0.5
		}
	}

	return b
}

// countingParams is a ParamSource that also reports a change counter.
type countingParams struct {
	Params
	version uint64
	reads   int
}

func (p *countingParams) Param(id string) (float64, bool) {
	p.reads++
	return p.Params.Param(id)
}

func (p *countingParams) Changes() uint64 {
	return p.version
}
