package effectchain

import (
	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
)

// Module is one effect stage of the chain.
type Module interface {
	// Prepare sizes internal state for spec and fully resets it. It runs on
	// the control side and may allocate.
	Prepare(spec core.ProcessSpec) error
	// Process transforms the block in place. It must not allocate or block.
	Process(block *buffer.Block)
}

// ParamUpdater is implemented by modules that read automation parameters.
// UpdateParams recomputes coefficients only; it never advances modulation
// or delay state.
type ParamUpdater interface {
	UpdateParams(src ParamSource)
}
