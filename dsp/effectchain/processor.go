package effectchain

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
)

// Tap observes the block after the chain has run. It is called on the audio
// goroutine and must not allocate or block.
type Tap interface {
	Observe(block *buffer.Block)
}

// Config describes a Processor.
type Config struct {
	// Spec is the output layout and block bound modules are prepared for.
	Spec core.ProcessSpec
	// InputChannels is the number of channels the host feeds. Output
	// channels at or beyond it are cleared every block. Zero means
	// Spec.NumChannels.
	InputChannels int
	// QueueCapacity sizes the order queue. Zero means DefaultQueueCapacity.
	QueueCapacity int
	// InitialOrder is committed before the first block. The zero value
	// means DefaultOrder.
	InitialOrder Order
	// Registry supplies the modules. Nil means DefaultRegistry.
	Registry *Registry
	// Params feeds module parameters. It may be nil.
	Params ParamSource
	// Tap, if set, observes each processed block.
	Tap Tap
}

// Stats are lifetime counters of a Processor.
type Stats struct {
	Blocks         uint64
	OrdersReceived uint64
	OrdersApplied  uint64
	OrdersDropped  uint64
}

// Processor is the audio side of the chain.
//
// Process is called from exactly one audio goroutine. Orders are sent from
// exactly one control goroutine through Orders(). Prepare must not run
// concurrently with Process.
type Processor struct {
	spec          core.ProcessSpec
	inputChannels int

	rack   *Rack
	orders *Fifo[Order]
	sender OrderSender

	params        ParamSource
	changes       ChangeCounter
	paramsVersion uint64
	paramsStale   bool

	tap  Tap
	view buffer.Block

	// Audio goroutine only.
	committed Order

	applied        atomic.Uint32
	blocks         atomic.Uint64
	ordersReceived atomic.Uint64
	ordersApplied  atomic.Uint64
}

// NewProcessor builds and prepares every module and the order queue.
func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}

	inputs := cfg.InputChannels
	if inputs == 0 {
		inputs = cfg.Spec.NumChannels
	}

	if inputs < 1 || inputs > cfg.Spec.NumChannels {
		return nil, fmt.Errorf("effectchain: %w: input channels must be in [1, %d]: %d",
			core.ErrInvalidSpec, cfg.Spec.NumChannels, inputs)
	}

	capacity := cfg.QueueCapacity
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}

	orders, err := NewFifo[Order](capacity)
	if err != nil {
		return nil, err
	}

	initial := cfg.InitialOrder
	if initial.IsEmpty() {
		initial = DefaultOrder()
	}

	if err := initial.Validate(); err != nil {
		return nil, err
	}

	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	rack, err := registry.Build(cfg.Spec)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		spec:          cfg.Spec,
		inputChannels: inputs,
		rack:          rack,
		orders:        orders,
		params:        cfg.Params,
		paramsStale:   true,
		tap:           cfg.Tap,
		committed:     initial,
	}
	p.sender.fifo = orders
	p.view.Reset(make([][]float64, cfg.Spec.NumChannels)...)
	p.applied.Store(initial.Pack())

	if c, ok := cfg.Params.(ChangeCounter); ok {
		p.changes = c
	}

	return p, nil
}

// Prepare re-prepares every module for spec, resetting their state. The
// committed order is kept.
func (p *Processor) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	if p.inputChannels > spec.NumChannels {
		return fmt.Errorf("effectchain: %w: %d input channels exceed %d outputs",
			core.ErrInvalidSpec, p.inputChannels, spec.NumChannels)
	}

	if err := p.rack.Prepare(spec); err != nil {
		return err
	}

	p.spec = spec
	p.view.Reset(make([][]float64, spec.NumChannels)...)
	p.paramsStale = true

	return nil
}

// Spec returns the layout the modules are prepared for.
func (p *Processor) Spec() core.ProcessSpec {
	return p.spec
}

// InputChannels returns the number of host-fed channels.
func (p *Processor) InputChannels() int {
	return p.inputChannels
}

// Rack exposes the module set, mainly for inspection in tests and tools.
func (p *Processor) Rack() *Rack {
	return p.rack
}

// Orders returns the producer handle of the order queue.
func (p *Processor) Orders() *OrderSender {
	return &p.sender
}

// AppliedOrder returns the order the audio goroutine last committed. It is
// safe to call from any goroutine.
func (p *Processor) AppliedOrder() Order {
	return UnpackOrder(p.applied.Load())
}

// Stats returns a snapshot of the processor counters.
func (p *Processor) Stats() Stats {
	return Stats{
		Blocks:         p.blocks.Load(),
		OrdersReceived: p.ordersReceived.Load(),
		OrdersApplied:  p.ordersApplied.Load(),
		OrdersDropped:  p.sender.dropped.Load(),
	}
}

// OrderSender is the producer end of a Processor's order queue. Only one
// goroutine may send at a time.
type OrderSender struct {
	fifo    *Fifo[Order]
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Send queues o for the next block. It never blocks; false means the queue
// was full and o was not queued. The caller validates o beforehand.
func (s *OrderSender) Send(o Order) bool {
	if !s.fifo.Push(o) {
		s.dropped.Add(1)
		return false
	}

	s.sent.Add(1)

	return true
}

// Pending returns how many orders wait for the audio goroutine.
func (s *OrderSender) Pending() int {
	return s.fifo.Len()
}

// Capacity returns the queue capacity.
func (s *OrderSender) Capacity() int {
	return s.fifo.Cap()
}
