package effectchain

import (
	"fmt"

	"github.com/cwbudde/algo-multifx/dsp/core"
)

// Rack owns one module per effect option for the life of a Processor.
// It doubles as the lookup table the assembler resolves orders against.
type Rack struct {
	modules [NumEffects]Module
}

// NewRack returns an empty rack.
func NewRack() *Rack {
	return &Rack{}
}

// Set installs m for opt. A nil m empties the slot.
func (r *Rack) Set(opt Option, m Module) error {
	if !opt.IsEffect() {
		return fmt.Errorf("effectchain: %w: %s", ErrUnknownEffect, opt)
	}

	r.modules[opt.index()] = m

	return nil
}

// Module returns the module for opt, or nil.
func (r *Rack) Module(opt Option) Module {
	if r == nil || !opt.IsEffect() {
		return nil
	}

	return r.modules[opt.index()]
}

// Prepare prepares every installed module for spec.
func (r *Rack) Prepare(spec core.ProcessSpec) error {
	for i, m := range r.modules {
		if m == nil {
			continue
		}

		if err := m.Prepare(spec); err != nil {
			return fmt.Errorf("effectchain: prepare %s: %w", Option(i+1), err)
		}
	}

	return nil
}

// UpdateParams pushes src into every module that reads parameters, whether
// or not it is in the current order.
func (r *Rack) UpdateParams(src ParamSource) {
	for _, m := range r.modules {
		if u, ok := m.(ParamUpdater); ok {
			u.UpdateParams(src)
		}
	}
}
