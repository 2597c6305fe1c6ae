package host

import (
	"context"
	"sync/atomic"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/logging"
	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// LiveOption configures a Live host.
type LiveOption func(*Live)

// WithLiveLogger sets the logger of a Live host.
func WithLiveLogger(l logging.Logger) LiveOption {
	return func(h *Live) {
		if l != nil {
			h.log = logging.WithComponent(l, "live")
		}
	}
}

// WithFramesPerBuffer sets the device buffer size. It defaults to the
// processor's maximum block size.
func WithFramesPerBuffer(n int) LiveOption {
	return func(h *Live) {
		if n > 0 {
			h.framesPerBuffer = n
		}
	}
}

// Live runs a Processor on the default duplex portaudio stream. The stream
// callback is the audio goroutine.
type Live struct {
	proc            *effectchain.Processor
	log             *logrus.Entry
	inputs          int
	outputs         int
	framesPerBuffer int

	// Callback only.
	block *buffer.Block
	view  buffer.Block

	callbacks atomic.Uint64
}

// NewLive returns a host for p. The device is opened by Run.
func NewLive(p *effectchain.Processor, opts ...LiveOption) (*Live, error) {
	if p == nil {
		return nil, ErrNoProcessor
	}

	spec := p.Spec()
	h := &Live{
		proc:            p,
		log:             logging.WithComponent(logging.Discard(), "live"),
		inputs:          p.InputChannels(),
		outputs:         spec.NumChannels,
		framesPerBuffer: spec.MaxBlockSize,
		block:           buffer.NewBlock(spec.NumChannels, spec.MaxBlockSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h, nil
}

// Callbacks returns how many device buffers have been processed.
func (h *Live) Callbacks() uint64 {
	return h.callbacks.Load()
}

// Run opens the stream and processes audio until ctx is done.
func (h *Live) Run(ctx context.Context) (err error) {
	if err := portaudio.Initialize(); err != nil {
		return &StreamError{Op: "initialize", Err: err}
	}

	defer func() {
		if terr := portaudio.Terminate(); terr != nil && err == nil {
			err = &StreamError{Op: "terminate", Err: terr}
		}
	}()

	rate := h.proc.Spec().SampleRate
	stream, err := portaudio.OpenDefaultStream(h.inputs, h.outputs, rate, h.framesPerBuffer, h.process)
	if err != nil {
		return &StreamError{Op: "open", Err: err}
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return &StreamError{Op: "start", Err: err}
	}

	h.log.WithFields(logrus.Fields{
		"rate":    rate,
		"inputs":  h.inputs,
		"outputs": h.outputs,
		"frames":  h.framesPerBuffer,
	}).Info("stream started")

	<-ctx.Done()

	if err := stream.Stop(); err != nil {
		_ = stream.Close()
		return &StreamError{Op: "stop", Err: err}
	}

	if err := stream.Close(); err != nil {
		return &StreamError{Op: "close", Err: err}
	}

	h.log.WithField("callbacks", h.callbacks.Load()).Info("stream stopped")

	return nil
}

// process is the stream callback. Device buffers larger than the prepared
// block are handled in block-sized chunks.
func (h *Live) process(in, out []float32) {
	frames := len(out) / h.outputs
	step := h.block.NumFrames()

	for off := 0; off < frames; off += step {
		n := min(step, frames-off)
		h.block.SubInto(&h.view, 0, n)

		if h.inputs > 0 && len(in) >= (off+n)*h.inputs {
			h.view.Deinterleave32(in[off*h.inputs:(off+n)*h.inputs], h.inputs)
		} else {
			h.view.Clear()
		}

		h.proc.Process(&h.view)
		h.view.Interleave32(out[off*h.outputs:(off+n)*h.outputs], h.outputs)
	}

	h.callbacks.Add(1)
}
