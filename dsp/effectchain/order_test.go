package effectchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionNamesRoundTrip(t *testing.T) {
	for _, opt := range append(Effects(), OptionEnd) {
		got, err := ParseOption(opt.String())
		require.NoError(t, err)
		assert.Equal(t, opt, got)
	}

	got, err := ParseOption("  Ladder-Filter ")
	require.NoError(t, err)
	assert.Equal(t, OptionLadderFilter, got)

	_, err = ParseOption("flanger")
	require.ErrorIs(t, err, ErrUnknownOption)

	assert.Equal(t, "option(42)", Option(42).String())
}

func TestOptionIsEffect(t *testing.T) {
	assert.False(t, OptionNone.IsEffect())
	assert.False(t, OptionEnd.IsEffect())

	for _, opt := range Effects() {
		assert.True(t, opt.IsEffect(), opt.String())
	}

	assert.Len(t, Effects(), NumEffects)
}

func TestNewOrderPadsWithEnd(t *testing.T) {
	o, err := NewOrder(OptionChorus, OptionPhaser)
	require.NoError(t, err)

	assert.Equal(t, Order{OptionChorus, OptionPhaser, OptionEnd, OptionEnd}, o)
	assert.Equal(t, []Option{OptionChorus, OptionPhaser}, o.Active())
	assert.Equal(t, 2, o.ActiveCount())
	assert.Equal(t, 1, o.IndexOf(OptionPhaser))
	assert.False(t, o.Contains(OptionOverdrive))
}

func TestNewOrderRejects(t *testing.T) {
	cases := map[string][]Option{
		"duplicate": {OptionPhaser, OptionPhaser},
		"none":      {OptionNone},
		"unknown":   {Option(99)},
		"too many":  {OptionPhaser, OptionChorus, OptionOverdrive, OptionLadderFilter, OptionEnd},
	}

	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewOrder(opts...)
			require.ErrorIs(t, err, ErrInvalidOrder)
		})
	}

	assert.Panics(t, func() { MustOrder(OptionChorus, OptionChorus) })
}

func TestOrderGapIsNotTruncation(t *testing.T) {
	o := Order{OptionEnd, OptionOverdrive, OptionEnd, OptionPhaser}
	require.NoError(t, o.Validate())
	assert.Equal(t, []Option{OptionOverdrive, OptionPhaser}, o.Active())
}

func TestEmptyOrderIsNotBypass(t *testing.T) {
	var zero Order

	assert.True(t, zero.IsEmpty())
	assert.False(t, BypassOrder().IsEmpty())
	assert.Zero(t, BypassOrder().ActiveCount())
	require.ErrorIs(t, zero.Validate(), ErrInvalidOrder)
	require.NoError(t, BypassOrder().Validate())
	require.NoError(t, DefaultOrder().Validate())
}

func TestOrderMoveSwapToggle(t *testing.T) {
	o := DefaultOrder()

	assert.Equal(t,
		Order{OptionChorus, OptionOverdrive, OptionPhaser, OptionLadderFilter},
		o.Move(0, 2))
	assert.Equal(t,
		Order{OptionLadderFilter, OptionPhaser, OptionChorus, OptionOverdrive},
		o.Move(3, 0))
	assert.Equal(t, o, o.Move(0, NumSlots), "out of range move is a no-op")

	assert.Equal(t,
		Order{OptionLadderFilter, OptionChorus, OptionOverdrive, OptionPhaser},
		o.Swap(0, 3))

	removed := o.Toggle(OptionChorus)
	assert.Equal(t, Order{OptionPhaser, OptionOverdrive, OptionLadderFilter, OptionEnd}, removed)
	assert.Equal(t, Order{OptionPhaser, OptionOverdrive, OptionLadderFilter, OptionChorus}, removed.Toggle(OptionChorus))
	assert.Equal(t, o, o.Toggle(OptionEnd))

	// Order values are copies.
	assert.Equal(t, DefaultOrder(), o)
}

func TestOrderTextRoundTrip(t *testing.T) {
	for _, o := range []Order{
		DefaultOrder(),
		BypassOrder(),
		MustOrder(OptionLadderFilter, OptionOverdrive),
		{OptionEnd, OptionChorus, OptionEnd, OptionEnd},
	} {
		text, err := o.MarshalText()
		require.NoError(t, err)

		var got Order
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, o, got, string(text))
	}

	assert.Equal(t, "phaser>chorus>end>end", MustOrder(OptionPhaser, OptionChorus).String())
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("drive, ladder")
	require.NoError(t, err)
	assert.Equal(t, MustOrder(OptionOverdrive, OptionLadderFilter), o)

	o, err = ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, BypassOrder(), o)

	_, err = ParseOrder("phaser>phaser")
	require.ErrorIs(t, err, ErrInvalidOrder)

	_, err = ParseOrder("phaser chorus overdrive ladder end")
	require.ErrorIs(t, err, ErrInvalidOrder)

	_, err = ParseOrder("phaser>wah")
	require.ErrorIs(t, err, ErrUnknownOption)
}

func TestOrderPackRoundTrip(t *testing.T) {
	for _, o := range []Order{{}, DefaultOrder(), BypassOrder(), MustOrder(OptionChorus)} {
		assert.Equal(t, o, UnpackOrder(o.Pack()))
	}

	assert.Equal(t, uint32(OptionPhaser), DefaultOrder().Pack()&0xff, "slot 0 lives in the low byte")
}
