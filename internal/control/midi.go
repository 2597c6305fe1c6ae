package control

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/logging"
	"github.com/cwbudde/algo-multifx/internal/params"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// DefaultCCBase is the first controller number mapped to a parameter.
const DefaultCCBase = 20

// MIDIOption configures a MIDISurface.
type MIDIOption func(*MIDISurface)

// WithChannel listens on one MIDI channel (0-15) only.
func WithChannel(ch int) MIDIOption {
	return func(s *MIDISurface) {
		if ch >= 0 && ch < 16 {
			s.channel = uint8(ch)
		}
	}
}

// WithCCBase maps controller ccBase+k to the k-th parameter of the layout.
func WithCCBase(base int) MIDIOption {
	return func(s *MIDISurface) {
		if base >= 0 && base+params.Count() <= 128 {
			s.ccBase = uint8(base)
		}
	}
}

// WithMIDILogger sets the logger.
func WithMIDILogger(l logging.Logger) MIDIOption {
	return func(s *MIDISurface) {
		if l != nil {
			s.log = logging.WithComponent(l, "midi")
		}
	}
}

// MIDISurface maps MIDI messages onto a Controller: program changes select
// order presets, control changes set parameters.
type MIDISurface struct {
	ctrl    *Controller
	presets map[uint8]effectchain.Order
	layout  []params.Param
	channel uint8
	ccBase  uint8
	log     *logrus.Entry
}

// NewMIDISurface returns a surface driving ctrl. Presets are keyed by program
// number; keys outside 0-127 are ignored.
func NewMIDISurface(ctrl *Controller, presets map[int]effectchain.Order, opts ...MIDIOption) *MIDISurface {
	s := &MIDISurface{
		ctrl:    ctrl,
		presets: make(map[uint8]effectchain.Order, len(presets)),
		layout:  params.Layout(),
		ccBase:  DefaultCCBase,
		log:     logging.WithComponent(logging.Discard(), "midi"),
	}

	for n, o := range presets {
		if n >= 0 && n < 128 {
			s.presets[uint8(n)] = o
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// HandleMessage applies msg and reports whether it changed anything.
func (s *MIDISurface) HandleMessage(msg midi.Message) bool {
	var ch, program, cc, value uint8

	switch {
	case msg.GetProgramChange(&ch, &program):
		if ch != s.channel {
			return false
		}

		return s.program(program)
	case msg.GetControlChange(&ch, &cc, &value):
		if ch != s.channel {
			return false
		}

		return s.control(cc, value)
	default:
		return false
	}
}

// Listen opens the named input port and handles its messages until ctx is
// done. A MIDI driver must be registered by the program.
func (s *MIDISurface) Listen(ctx context.Context, portName string) error {
	in, err := midi.FindInPort(portName)
	if err != nil {
		return fmt.Errorf("control: midi port %q: %w", portName, err)
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		s.HandleMessage(msg)
	})
	if err != nil {
		return fmt.Errorf("control: midi listen %q: %w", portName, err)
	}

	s.log.WithField("port", portName).Info("listening")

	<-ctx.Done()
	stop()

	return nil
}

func (s *MIDISurface) program(n uint8) bool {
	o, ok := s.presets[n]
	if !ok {
		s.log.WithField("program", n).Debug("no preset")
		return false
	}

	if err := s.ctrl.SetOrder(o); err != nil {
		s.log.WithError(err).Warn("preset rejected")
		return false
	}

	return true
}

func (s *MIDISurface) control(cc, value uint8) bool {
	if cc < s.ccBase || int(cc-s.ccBase) >= len(s.layout) {
		return false
	}

	p := s.layout[cc-s.ccBase]

	if _, err := s.ctrl.SetParamNormalized(p.ID, float64(value)/127); err != nil {
		s.log.WithError(err).WithField("param", p.ID).Warn("control change rejected")
		return false
	}

	return true
}
