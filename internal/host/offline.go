package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/audiofile"
	"github.com/cwbudde/algo-multifx/internal/logging"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Schedule requests an order change at an absolute frame of the render.
type Schedule struct {
	AtFrame int64
	Order   effectchain.Order
}

// Stats summarizes a render.
type Stats struct {
	Frames         int64
	Blocks         int
	OrdersSent     int
	OrdersDropped  int
	SourceRate     int
	SourceChannels int
	Elapsed        time.Duration
}

// OfflineOption configures an Offline host.
type OfflineOption func(*Offline)

// WithLogger sets the logger of a host.
func WithLogger(l logging.Logger) OfflineOption {
	return func(o *Offline) {
		if l != nil {
			o.log = logging.WithComponent(l, "offline")
		}
	}
}

// WithSchedule adds order changes to every render.
func WithSchedule(entries ...Schedule) OfflineOption {
	return func(o *Offline) {
		o.schedule = append(o.schedule, entries...)
	}
}

// WithBlockSize overrides the render block size. It defaults to the
// processor's maximum block size.
func WithBlockSize(n int) OfflineOption {
	return func(o *Offline) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// Offline renders a Source through a Processor into a Sink.
//
// Scheduled orders are sent by a control goroutine that runs in lockstep
// with the render loop, and blocks are cut at scheduled frames, so every
// change lands on its exact frame and renders are reproducible.
type Offline struct {
	proc      *effectchain.Processor
	log       *logrus.Entry
	schedule  []Schedule
	blockSize int
}

// NewOffline returns a host for p.
func NewOffline(p *effectchain.Processor, opts ...OfflineOption) (*Offline, error) {
	if p == nil {
		return nil, ErrNoProcessor
	}

	o := &Offline{
		proc:      p,
		log:       logging.WithComponent(logging.Discard(), "offline"),
		blockSize: p.Spec().MaxBlockSize,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	for _, s := range o.schedule {
		if err := s.Order.Validate(); err != nil {
			return nil, fmt.Errorf("host: schedule at frame %d: %w", s.AtFrame, err)
		}
	}

	slices.SortStableFunc(o.schedule, func(a, b Schedule) int {
		switch {
		case a.AtFrame < b.AtFrame:
			return -1
		case a.AtFrame > b.AtFrame:
			return 1
		default:
			return 0
		}
	})

	return o, nil
}

// Render processes src until it ends or ctx is done. The processor is
// re-prepared when the source rate differs from its spec. Source channels
// beyond the processor's layout are dropped, missing ones are silent.
func (o *Offline) Render(ctx context.Context, src audiofile.Source, sink audiofile.Sink) (Stats, error) {
	start := time.Now()
	stats := Stats{SourceRate: src.SampleRate(), SourceChannels: src.Channels()}
	log := o.log.WithField("render", xid.New().String())

	spec := o.proc.Spec()
	if rate := float64(src.SampleRate()); rate != spec.SampleRate {
		log.WithFields(logrus.Fields{"from": spec.SampleRate, "to": rate}).Info("re-preparing for source rate")

		spec.SampleRate = rate
		if err := o.proc.Prepare(spec); err != nil {
			return stats, fmt.Errorf("host: %w", err)
		}
	}

	block := buffer.NewBlock(spec.NumChannels, o.blockSize)
	var view buffer.Block

	sched := newScheduler(o.proc.Orders(), o.schedule)
	defer sched.stop()

	next := 0
	var pos int64

	for {
		if err := ctx.Err(); err != nil {
			return o.finish(stats, sched, start), err
		}

		for next < len(o.schedule) && o.schedule[next].AtFrame <= pos {
			next++
		}

		want := o.blockSize
		if next < len(o.schedule) {
			want = int(min(int64(want), o.schedule[next].AtFrame-pos))
		}

		block.SubInto(&view, 0, want)

		n, err := src.Read(&view)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return o.finish(stats, sched, start), &StreamError{Op: "read", Err: err}
		}
		if n == 0 {
			continue
		}

		block.SubInto(&view, 0, n)

		sched.tick(pos)
		o.proc.Process(&view)

		if err := sink.Write(&view); err != nil {
			return o.finish(stats, sched, start), &StreamError{Op: "write", Err: err}
		}

		pos += int64(n)
		stats.Frames = pos
		stats.Blocks++
	}

	stats = o.finish(stats, sched, start)
	log.WithFields(logrus.Fields{
		"frames":  stats.Frames,
		"blocks":  stats.Blocks,
		"orders":  stats.OrdersSent,
		"elapsed": stats.Elapsed,
	}).Info("render finished")

	return stats, nil
}

func (o *Offline) finish(stats Stats, s *scheduler, start time.Time) Stats {
	s.stop()
	stats.OrdersSent, stats.OrdersDropped = s.sent, s.dropped
	stats.Elapsed = time.Since(start)

	return stats
}

// scheduler is the control goroutine of a render. For every block the
// render loop hands it the block's first frame and waits until every order
// due by then has been queued.
type scheduler struct {
	sender  *effectchain.OrderSender
	entries []Schedule
	ticks   chan int64
	acks    chan struct{}
	done    chan struct{}
	stopped bool

	// Written by the goroutine, read after done is closed.
	sent    int
	dropped int
}

func newScheduler(sender *effectchain.OrderSender, entries []Schedule) *scheduler {
	s := &scheduler{
		sender:  sender,
		entries: entries,
		ticks:   make(chan int64),
		acks:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if len(entries) == 0 {
		s.stopped = true
		close(s.done)

		return s
	}

	go s.run()

	return s
}

func (s *scheduler) run() {
	defer close(s.done)

	next := 0
	for pos := range s.ticks {
		var due effectchain.Order
		ready := false

		// Only the newest due order matters to the audio side.
		for next < len(s.entries) && s.entries[next].AtFrame <= pos {
			due = s.entries[next].Order
			ready = true
			next++
		}

		if ready {
			if s.sender.Send(due) {
				s.sent++
			} else {
				s.dropped++
			}
		}

		s.acks <- struct{}{}
	}
}

func (s *scheduler) tick(pos int64) {
	if s.stopped {
		return
	}

	s.ticks <- pos
	<-s.acks
}

func (s *scheduler) stop() {
	if s.stopped {
		return
	}

	s.stopped = true
	close(s.ticks)
	<-s.done
}
