package meter

import (
	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
)

// Taps fans one block out to several observers in order.
type Taps []effectchain.Tap

// Observe implements effectchain.Tap.
func (t Taps) Observe(block *buffer.Block) {
	for _, tap := range t {
		if tap != nil {
			tap.Observe(block)
		}
	}
}
