package effectchain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-multifx/dsp/core"
)

// ErrUnknownEffect is returned when a factory is registered for, or looked up
// by, an option that is not an effect.
var ErrUnknownEffect = errors.New("unknown effect type")

var errDuplicateEffect = errors.New("duplicate effect type")

// Factory builds one Module for an effect option.
type Factory func(spec core.ProcessSpec) (Module, error)

// Registry maps effect options to their factories.
type Registry struct {
	factories [NumEffects]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a factory for the given effect option.
func (r *Registry) Register(opt Option, factory Factory) error {
	if !opt.IsEffect() {
		return fmt.Errorf("%w: %s", ErrUnknownEffect, opt)
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if r.factories[opt.index()] != nil {
		return fmt.Errorf("%w: %s", errDuplicateEffect, opt)
	}

	r.factories[opt.index()] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(opt Option, factory Factory) {
	err := r.Register(opt, factory)
	if err != nil {
		panic("effectchain registry: " + err.Error())
	}
}

// Lookup returns the factory for the given effect option, or nil.
func (r *Registry) Lookup(opt Option) Factory {
	if !opt.IsEffect() {
		return nil
	}

	return r.factories[opt.index()]
}

// Build creates and prepares one module per registered effect. Effects
// without a factory leave their rack slot empty and act as bypassed.
func (r *Registry) Build(spec core.ProcessSpec) (*Rack, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	rack := NewRack()

	for _, opt := range Effects() {
		factory := r.Lookup(opt)
		if factory == nil {
			continue
		}

		m, err := factory(spec)
		if err != nil {
			return nil, fmt.Errorf("effectchain: build %s: %w", opt, err)
		}

		if err := m.Prepare(spec); err != nil {
			return nil, fmt.Errorf("effectchain: prepare %s: %w", opt, err)
		}

		rack.modules[opt.index()] = m
	}

	return rack, nil
}
