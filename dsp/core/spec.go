package core

import (
	"errors"
	"fmt"
)

// MaxChannels is the widest channel layout a processor accepts (stereo).
const MaxChannels = 2

// ErrInvalidSpec is returned when a ProcessSpec cannot drive a processor.
var ErrInvalidSpec = errors.New("invalid process spec")

// ProcessSpec describes the stream a processor is prepared for.
type ProcessSpec struct {
	SampleRate   float64
	MaxBlockSize int
	NumChannels  int
}

// SpecOption mutates a ProcessSpec.
type SpecOption func(*ProcessSpec)

// DefaultProcessSpec returns sensible defaults for offline and streaming use.
func DefaultProcessSpec() ProcessSpec {
	return ProcessSpec{
		SampleRate:   48000,
		MaxBlockSize: 512,
		NumChannels:  2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) SpecOption {
	return func(spec *ProcessSpec) {
		if sampleRate > 0 && IsFinite(sampleRate) {
			spec.SampleRate = sampleRate
		}
	}
}

// WithMaxBlockSize sets the largest block the processor will be handed.
func WithMaxBlockSize(blockSize int) SpecOption {
	return func(spec *ProcessSpec) {
		if blockSize > 0 {
			spec.MaxBlockSize = blockSize
		}
	}
}

// WithNumChannels sets the processed channel count.
func WithNumChannels(channels int) SpecOption {
	return func(spec *ProcessSpec) {
		if channels > 0 {
			spec.NumChannels = channels
		}
	}
}

// NewProcessSpec applies zero or more options to the default spec.
func NewProcessSpec(opts ...SpecOption) ProcessSpec {
	spec := DefaultProcessSpec()
	for _, opt := range opts {
		if opt != nil {
			opt(&spec)
		}
	}

	return spec
}

// Validate reports whether s describes a usable layout.
func (s ProcessSpec) Validate() error {
	if s.SampleRate <= 0 || !IsFinite(s.SampleRate) {
		return fmt.Errorf("core: %w: sample rate must be > 0 and finite: %v", ErrInvalidSpec, s.SampleRate)
	}

	if s.MaxBlockSize <= 0 {
		return fmt.Errorf("core: %w: max block size must be > 0: %d", ErrInvalidSpec, s.MaxBlockSize)
	}

	if s.NumChannels < 1 || s.NumChannels > MaxChannels {
		return fmt.Errorf("core: %w: channels must be in [1, %d]: %d", ErrInvalidSpec, MaxChannels, s.NumChannels)
	}

	return nil
}

// Nyquist returns half the sample rate.
func (s ProcessSpec) Nyquist() float64 {
	return 0.5 * s.SampleRate
}
