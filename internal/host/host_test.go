package host

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// affine maps x to x*scale+offset, so different orders give different output.
type affine struct {
	scale, offset float64
}

func (a *affine) Prepare(core.ProcessSpec) error { return nil }

func (a *affine) Process(block *buffer.Block) {
	for ch := range block.NumChannels() {
		buf := block.Channel(ch)
		for i := range buf {
			buf[i] = buf[i]*a.scale + a.offset
		}
	}
}

func affineRegistry() *effectchain.Registry {
	r := effectchain.NewRegistry()
	coeffs := map[effectchain.Option][2]float64{
		effectchain.OptionPhaser:       {0.5, 0},
		effectchain.OptionChorus:       {1, 0.25},
		effectchain.OptionOverdrive:    {2, 0},
		effectchain.OptionLadderFilter: {1, -0.125},
	}
	for opt, c := range coeffs {
		r.MustRegister(opt, func(core.ProcessSpec) (effectchain.Module, error) {
			return &affine{scale: c[0], offset: c[1]}, nil
		})
	}

	return r
}

func newProcessor(t *testing.T, rate float64, initial effectchain.Order) *effectchain.Processor {
	t.Helper()

	p, err := effectchain.NewProcessor(effectchain.Config{
		Spec: core.NewProcessSpec(
			core.WithSampleRate(rate),
			core.WithMaxBlockSize(64),
			core.WithNumChannels(2),
		),
		InitialOrder: initial,
		Registry:     affineRegistry(),
	})
	require.NoError(t, err)

	return p
}

// memSource serves a block as a stream.
type memSource struct {
	data *buffer.Block
	rate int
	pos  int
	err  error
}

func (s *memSource) SampleRate() int { return s.rate }
func (s *memSource) Channels() int   { return s.data.NumChannels() }
func (s *memSource) Close() error    { return nil }

func (s *memSource) Read(block *buffer.Block) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.pos >= s.data.NumFrames() {
		return 0, io.EOF
	}

	n := min(block.NumFrames(), s.data.NumFrames()-s.pos)
	for ch := range block.NumChannels() {
		dst := block.Channel(ch)[:n]
		if ch >= s.data.NumChannels() {
			clear(dst)
			continue
		}
		copy(dst, s.data.Channel(ch)[s.pos:s.pos+n])
	}
	s.pos += n

	return n, nil
}

// memSink collects everything written and records block sizes.
type memSink struct {
	channels [][]float64
	sizes    []int
	err      error
}

func newMemSink(channels int) *memSink {
	return &memSink{channels: make([][]float64, channels)}
}

func (s *memSink) Write(block *buffer.Block) error {
	if s.err != nil {
		return s.err
	}
	for ch := range s.channels {
		if ch < block.NumChannels() {
			s.channels[ch] = append(s.channels[ch], block.Channel(ch)...)
		} else {
			s.channels[ch] = append(s.channels[ch], make([]float64, block.NumFrames())...)
		}
	}
	s.sizes = append(s.sizes, block.NumFrames())

	return nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) block() *buffer.Block {
	return buffer.FromChannels(s.channels...)
}

func TestNewOfflineValidation(t *testing.T) {
	_, err := NewOffline(nil)
	require.ErrorIs(t, err, ErrNoProcessor)

	p := newProcessor(t, 48000, effectchain.Order{})
	_, err = NewOffline(p, WithSchedule(Schedule{AtFrame: 10}))
	require.ErrorIs(t, err, effectchain.ErrInvalidOrder)
}

func TestOfflineBypassIsIdentity(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.BypassOrder())
	in := testutil.NoiseBlock(1, 2, 1000, 0.5)

	off, err := NewOffline(p)
	require.NoError(t, err)

	sink := newMemSink(2)
	stats, err := off.Render(context.Background(), &memSource{data: in, rate: 48000}, sink)
	require.NoError(t, err)

	assert.EqualValues(t, 1000, stats.Frames)
	assert.Equal(t, 16, stats.Blocks)
	assert.Equal(t, 48000, stats.SourceRate)
	assert.Equal(t, 2, stats.SourceChannels)
	testutil.RequireBlocksNearlyEqual(t, sink.block(), in, 0)
}

func TestOfflineScheduleLandsOnExactFrame(t *testing.T) {
	first := effectchain.MustOrder(effectchain.OptionOverdrive, effectchain.OptionChorus)
	second := effectchain.MustOrder(effectchain.OptionChorus, effectchain.OptionOverdrive)

	p := newProcessor(t, 48000, first)
	off, err := NewOffline(p, WithSchedule(Schedule{AtFrame: 100, Order: second}))
	require.NoError(t, err)

	in := testutil.NoiseBlock(3, 1, 300, 0.5)
	sink := newMemSink(1)
	stats, err := off.Render(context.Background(), &memSource{data: in, rate: 48000}, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.OrdersSent)
	assert.Zero(t, stats.OrdersDropped)
	assert.Equal(t, []int{64, 36, 64, 64, 64, 8}, sink.sizes)
	assert.Equal(t, second, p.AppliedOrder())

	out := sink.channels[0]
	for i, x := range in.Channel(0) {
		want := (x*2)*1 + 0.25
		if i >= 100 {
			want = (x*1+0.25)*2
		}
		require.InDelta(t, want, out[i], 1e-12, "frame %d", i)
	}
}

func TestOfflineScheduleKeepsNewestOfSameFrame(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.BypassOrder())
	off, err := NewOffline(p, WithSchedule(
		Schedule{AtFrame: 64, Order: effectchain.MustOrder(effectchain.OptionPhaser)},
		Schedule{AtFrame: 0, Order: effectchain.MustOrder(effectchain.OptionChorus)},
		Schedule{AtFrame: 64, Order: effectchain.MustOrder(effectchain.OptionOverdrive)},
	))
	require.NoError(t, err)

	in := buffer.FromChannels(testutil.Sine(100, 48000, 0.25, 128), testutil.Sine(100, 48000, 0.25, 128))
	sink := newMemSink(2)
	stats, err := off.Render(context.Background(), &memSource{data: in, rate: 48000}, sink)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.OrdersSent)
	assert.Equal(t, effectchain.MustOrder(effectchain.OptionOverdrive), p.AppliedOrder())
	assert.InDelta(t, in.Channel(0)[10]+0.25, sink.channels[0][10], 1e-12)
	assert.InDelta(t, in.Channel(0)[70]*2, sink.channels[0][70], 1e-12)
}

func TestOfflineMonoSourceOnStereoProcessor(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.BypassOrder())
	off, err := NewOffline(p)
	require.NoError(t, err)

	in := testutil.SineBlock(1, 200, 440, 48000, 0.5)
	sink := newMemSink(2)
	_, err = off.Render(context.Background(), &memSource{data: in, rate: 48000}, sink)
	require.NoError(t, err)

	testutil.RequireBlocksNearlyEqual(t, buffer.FromChannels(sink.channels[0]), in, 0)
	for i, v := range sink.channels[1] {
		require.Zero(t, v, "frame %d", i)
	}
}

func TestOfflineReprepareForSourceRate(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.BypassOrder())
	off, err := NewOffline(p)
	require.NoError(t, err)

	_, err = off.Render(context.Background(), &memSource{data: buffer.NewBlock(2, 10), rate: 44100}, newMemSink(2))
	require.NoError(t, err)
	assert.InDelta(t, 44100, p.Spec().SampleRate, 0)
}

func TestOfflineStopsOnCancel(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.BypassOrder())
	off, err := NewOffline(p, WithSchedule(Schedule{AtFrame: 5, Order: effectchain.DefaultOrder()}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = off.Render(ctx, &memSource{data: buffer.NewBlock(2, 100), rate: 48000}, newMemSink(2))
	require.ErrorIs(t, err, context.Canceled)
}

func TestOfflineStreamErrors(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.BypassOrder())
	off, err := NewOffline(p)
	require.NoError(t, err)

	boom := errors.New("boom")

	_, err = off.Render(context.Background(), &memSource{data: buffer.NewBlock(2, 10), rate: 48000, err: boom}, newMemSink(2))
	var se *StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "read", se.Op)
	require.ErrorIs(t, err, boom)

	sink := newMemSink(2)
	sink.err = boom
	_, err = off.Render(context.Background(), &memSource{data: buffer.NewBlock(2, 10), rate: 48000}, sink)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "write", se.Op)
	assert.Equal(t, "host: write: boom", err.Error())
}

func TestLiveCallbackProcessesInPlace(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.MustOrder(effectchain.OptionOverdrive))
	h, err := NewLive(p)
	require.NoError(t, err)

	// 150 frames is more than one prepared block.
	const frames = 150
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = float32(i%7) / 8
	}
	out := make([]float32, frames*2)

	h.process(in, out)

	for i := range out {
		require.InDelta(t, 2*in[i], out[i], 1e-6, "sample %d", i)
	}
	assert.EqualValues(t, 1, h.Callbacks())
	assert.EqualValues(t, 3, p.Stats().Blocks)
}

func TestLiveCallbackWithoutInput(t *testing.T) {
	p := newProcessor(t, 48000, effectchain.MustOrder(effectchain.OptionChorus))
	h, err := NewLive(p)
	require.NoError(t, err)

	out := make([]float32, 32)
	h.process(nil, out)
	for i, v := range out {
		require.InDelta(t, 0.25, v, 1e-6, "sample %d", i)
	}
}

func TestNewLiveValidation(t *testing.T) {
	_, err := NewLive(nil)
	require.ErrorIs(t, err, ErrNoProcessor)
}
