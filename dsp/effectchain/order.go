package effectchain

import (
	"errors"
	"fmt"
	"strings"
)

// NumSlots is the number of positions in an Order.
const NumSlots = NumEffects

// ErrInvalidOrder is returned when an Order breaks the slot rules.
var ErrInvalidOrder = errors.New("invalid processing order")

// Order is the processing order of the chain: slot i runs before slot i+1.
//
// A valid order holds each effect at most once and fills every other slot
// with OptionEnd. OptionEnd is a gap, not a truncation: effects in later
// slots still run. The zero value (all OptionNone) is the "no order" sentinel
// and is distinct from BypassOrder.
type Order [NumSlots]Option

// NewOrder returns an order running opts in sequence, padded with OptionEnd.
func NewOrder(opts ...Option) (Order, error) {
	if len(opts) > NumSlots {
		return Order{}, fmt.Errorf("effectchain: %w: %d options for %d slots", ErrInvalidOrder, len(opts), NumSlots)
	}

	o := BypassOrder()
	copy(o[:], opts)

	if err := o.Validate(); err != nil {
		return Order{}, err
	}

	return o, nil
}

// MustOrder is like NewOrder but panics on error.
func MustOrder(opts ...Option) Order {
	o, err := NewOrder(opts...)
	if err != nil {
		panic(err)
	}

	return o
}

// DefaultOrder runs every effect: phaser, chorus, overdrive, ladder filter.
func DefaultOrder() Order {
	return Order{OptionPhaser, OptionChorus, OptionOverdrive, OptionLadderFilter}
}

// BypassOrder has no active slot; processing with it is a pass-through.
func BypassOrder() Order {
	var o Order
	for i := range o {
		o[i] = OptionEnd
	}

	return o
}

// IsEmpty reports whether o is the "no order" sentinel.
func (o Order) IsEmpty() bool {
	return o == Order{}
}

// Validate reports whether o can be handed to a Processor.
func (o Order) Validate() error {
	var seen [NumEffects]bool

	for i, opt := range o {
		switch {
		case opt == OptionEnd:
			continue
		case !opt.IsEffect():
			return fmt.Errorf("effectchain: %w: slot %d holds %s", ErrInvalidOrder, i, opt)
		case seen[opt.index()]:
			return fmt.Errorf("effectchain: %w: %s appears more than once", ErrInvalidOrder, opt)
		}

		seen[opt.index()] = true
	}

	return nil
}

// Active returns the effects in processing order.
func (o Order) Active() []Option {
	out := make([]Option, 0, NumSlots)
	for _, opt := range o {
		if opt.IsEffect() {
			out = append(out, opt)
		}
	}

	return out
}

// ActiveCount returns the number of effect slots.
func (o Order) ActiveCount() int {
	n := 0
	for _, opt := range o {
		if opt.IsEffect() {
			n++
		}
	}

	return n
}

// Contains reports whether opt occupies a slot.
func (o Order) Contains(opt Option) bool {
	return o.IndexOf(opt) >= 0
}

// IndexOf returns the slot holding opt, or -1.
func (o Order) IndexOf(opt Option) int {
	for i, v := range o {
		if v == opt {
			return i
		}
	}

	return -1
}

// Move takes the slot at from out and reinserts it at to, shifting the slots
// in between. Out-of-range indices return o unchanged.
func (o Order) Move(from, to int) Order {
	if from < 0 || from >= NumSlots || to < 0 || to >= NumSlots || from == to {
		return o
	}

	v := o[from]
	if from < to {
		copy(o[from:to], o[from+1:to+1])
	} else {
		copy(o[to+1:from+1], o[to:from])
	}

	o[to] = v

	return o
}

// Swap exchanges two slots. Out-of-range indices return o unchanged.
func (o Order) Swap(i, j int) Order {
	if i < 0 || i >= NumSlots || j < 0 || j >= NumSlots {
		return o
	}

	o[i], o[j] = o[j], o[i]

	return o
}

// Toggle removes opt when present, closing the gap; otherwise it places opt
// in the first OptionEnd slot. A full order without opt is returned unchanged.
func (o Order) Toggle(opt Option) Order {
	if !opt.IsEffect() {
		return o
	}

	if i := o.IndexOf(opt); i >= 0 {
		copy(o[i:], o[i+1:])
		o[NumSlots-1] = OptionEnd

		return o
	}

	if i := o.IndexOf(OptionEnd); i >= 0 {
		o[i] = opt
	}

	return o
}

// String renders o as "phaser>chorus>end>end".
func (o Order) String() string {
	var sb strings.Builder

	for i, opt := range o {
		if i > 0 {
			sb.WriteByte('>')
		}

		sb.WriteString(opt.String())
	}

	return sb.String()
}

// ParseOrder reads option names separated by '>', ',' or whitespace. Short
// lists are padded with OptionEnd; an empty string is BypassOrder.
func ParseOrder(s string) (Order, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '>' || r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	if len(fields) > NumSlots {
		return Order{}, fmt.Errorf("effectchain: %w: %d names for %d slots", ErrInvalidOrder, len(fields), NumSlots)
	}

	o := BypassOrder()

	for i, f := range fields {
		opt, err := ParseOption(f)
		if err != nil {
			return Order{}, err
		}

		o[i] = opt
	}

	if err := o.Validate(); err != nil {
		return Order{}, err
	}

	return o, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}

	*o = parsed

	return nil
}

// Pack encodes o into one word, slot 0 in the low byte.
func (o Order) Pack() uint32 {
	var w uint32
	for i, opt := range o {
		w |= uint32(opt) << (8 * i)
	}

	return w
}

// UnpackOrder decodes a word produced by Pack.
func UnpackOrder(w uint32) Order {
	var o Order
	for i := range o {
		o[i] = Option(w >> (8 * i))
	}

	return o
}
