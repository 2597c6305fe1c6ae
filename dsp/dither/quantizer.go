package dither

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidConfig is returned for out-of-range quantizer settings.
var ErrInvalidConfig = errors.New("dither: invalid config")

const (
	minBitDepth      = 8
	maxBitDepth      = 32
	maxRecordedError = 2
)

// Option configures a Quantizer.
type Option func(*Quantizer) error

// WithType sets the dither noise. The default is Triangular.
func WithType(t Type) Option {
	return func(q *Quantizer) error {
		if !t.Valid() {
			return fmt.Errorf("%w: type %d", ErrInvalidConfig, int(t))
		}

		q.typ = t

		return nil
	}
}

// WithShaping sets the noise-shaping curve. The default is Flat.
func WithShaping(s Shaping) Option {
	return func(q *Quantizer) error {
		if !s.Valid() {
			return fmt.Errorf("%w: shaping %d", ErrInvalidConfig, int(s))
		}

		q.coeffs = shapingCoeffs[s]

		return nil
	}
}

// WithSeed makes the noise sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(q *Quantizer) error {
		q.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		return nil
	}
}

// Quantizer converts one channel of samples in [-1, 1] to signed integers
// of a fixed bit depth. It keeps shaping history and is not safe for
// concurrent use.
type Quantizer struct {
	bits   int
	full   float64
	lo, hi int

	typ    Type
	rng    *rand.Rand
	coeffs []float64
	errs   []float64
	pos    int
}

// NewQuantizer returns a quantizer for the given bit depth.
func NewQuantizer(bits int, opts ...Option) (*Quantizer, error) {
	if bits < minBitDepth || bits > maxBitDepth {
		return nil, fmt.Errorf("%w: bit depth must be in [%d, %d]: %d", ErrInvalidConfig, minBitDepth, maxBitDepth, bits)
	}

	q := &Quantizer{
		bits: bits,
		typ:  Triangular,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(q); err != nil {
			return nil, err
		}
	}

	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	q.full = math.Ldexp(1, bits-1) - 1
	q.lo = -int(q.full) - 1
	q.hi = int(q.full)
	q.errs = make([]float64, len(q.coeffs))

	return q, nil
}

// BitDepth returns the output bit depth.
func (q *Quantizer) BitDepth() int { return q.bits }

// FullScale returns the integer that 1.0 maps to.
func (q *Quantizer) FullScale() int { return q.hi }

// Quantize maps x to an integer sample. Out-of-range input clips.
func (q *Quantizer) Quantize(x float64) int {
	if math.IsNaN(x) {
		x = 0
	}

	target := x * q.full
	shaped := target
	for i, c := range q.coeffs {
		shaped -= c * q.errs[(q.pos+len(q.errs)-i)%len(q.errs)]
	}

	out := int(math.Round(shaped + q.noise()))
	out = max(q.lo, min(q.hi, out))

	if n := len(q.errs); n > 0 {
		q.pos = (q.pos + 1) % n
		// Clipping error is left out so a clipped burst cannot drive the
		// feedback loop unstable.
		q.errs[q.pos] = clampError(float64(out) - shaped)
	}

	return out
}

// QuantizeInto quantizes src into dst, which must be at least as long.
func (q *Quantizer) QuantizeInto(dst []int, src []float64) {
	for i, x := range src {
		dst[i] = q.Quantize(x)
	}
}

// Reset clears the shaping history.
func (q *Quantizer) Reset() {
	clear(q.errs)
	q.pos = 0
}

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.rng.Float64() - 0.5
	case Triangular:
		return q.rng.Float64() - q.rng.Float64()
	default:
		return 0
	}
}

// clampError limits a recorded error to the dither-plus-rounding range.
func clampError(e float64) float64 {
	return max(-maxRecordedError, min(maxRecordedError, e))
}
