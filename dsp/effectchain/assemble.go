package effectchain

import "github.com/cwbudde/algo-multifx/dsp/buffer"

// Pipeline holds the module for each order slot, nil where the slot is
// inactive. It is rebuilt every block and must not be kept.
type Pipeline [NumSlots]Module

// Assemble resolves order against rack. OptionEnd and effects without a
// module give nil slots. Any other option breaks the order contract.
func Assemble(order Order, rack *Rack) Pipeline {
	var p Pipeline

	for i, opt := range order {
		if opt == OptionEnd {
			continue
		}

		if !opt.IsEffect() {
			invariant(false, "effectchain: non-effect option reached the assembler")
			continue
		}

		p[i] = rack.Module(opt)
	}

	return p
}

// Len returns the number of active slots.
func (p *Pipeline) Len() int {
	n := 0
	for _, m := range p {
		if m != nil {
			n++
		}
	}

	return n
}

// Process runs block through every active slot in order.
func (p *Pipeline) Process(block *buffer.Block) {
	for _, m := range p {
		if m != nil {
			m.Process(block)
		}
	}
}
