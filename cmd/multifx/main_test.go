package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderChange(t *testing.T) {
	c, err := parseOrderChange("2.5s=chorus>phaser")
	require.NoError(t, err)
	assert.False(t, c.frames)
	assert.InDelta(t, 2.5, c.seconds, 1e-12)
	assert.Equal(t, effectchain.MustOrder(effectchain.OptionChorus, effectchain.OptionPhaser), c.order)

	c, err = parseOrderChange("96000=")
	require.NoError(t, err)
	assert.True(t, c.frames)
	assert.EqualValues(t, 96000, c.frame)
	assert.Equal(t, effectchain.BypassOrder(), c.order)

	for _, bad := range []string{"chorus", "-5=phaser", "soon=phaser", "1s=phaser>phaser"} {
		_, err := parseOrderChange(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduleResolvesTimes(t *testing.T) {
	a, err := parseOrderChange("500ms=overdrive")
	require.NoError(t, err)
	b, err := parseOrderChange("123=ladder")
	require.NoError(t, err)

	got := schedule([]orderChange{a, b}, 44100)
	require.Len(t, got, 2)
	assert.EqualValues(t, 22050, got[0].AtFrame)
	assert.EqualValues(t, 123, got[1].AtFrame)
	assert.Equal(t, effectchain.MustOrder(effectchain.OptionLadderFilter), got[1].Order)
}

func TestParseParamAssignments(t *testing.T) {
	got, err := parseParamAssignments([]string{
		params.Saturation + "=60",
		params.LadderMode + "=HPF24",
		params.LadderCutoff + "=99999",
	})
	require.NoError(t, err)
	assert.InDelta(t, 60, got[params.Saturation], 1e-9)
	assert.InDelta(t, 4, got[params.LadderMode], 0)
	assert.InDelta(t, 20000, got[params.LadderCutoff], 1e-6)

	_, err = parseParamAssignments([]string{"Nope=1"})
	require.ErrorIs(t, err, params.ErrUnknownParam)

	_, err = parseParamAssignments([]string{"no equals sign"})
	require.ErrorIs(t, err, errBadFlag)
}

func TestOptionsCommand(t *testing.T) {
	var out bytes.Buffer
	optionsCmd.SetOut(&out)
	require.NoError(t, optionsCmd.RunE(optionsCmd, nil))

	text := out.String()
	for _, opt := range effectchain.Effects() {
		assert.Contains(t, text, opt.String())
	}
	assert.Contains(t, text, "phaser>chorus>overdrive>ladder")
}

func TestParamsCommand(t *testing.T) {
	var out bytes.Buffer
	paramsCmd.SetOut(&out)
	require.NoError(t, paramsCmd.RunE(paramsCmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, params.Count()+1)
	assert.Contains(t, out.String(), params.LadderCutoff)
}
