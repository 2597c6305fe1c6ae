// Package control is the control side of the effect chain: it turns user
// intent from any number of goroutines into validated orders and parameter
// writes for a running effectchain.Processor.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/logging"
	"github.com/cwbudde/algo-multifx/internal/params"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// DefaultRetryInterval is how often Run re-sends an order the audio side had
// no room for.
const DefaultRetryInterval = 10 * time.Millisecond

// ErrNoParams is returned by parameter writes on a controller without a store.
var ErrNoParams = errors.New("no parameter store")

// Sender queues orders for the audio goroutine without blocking.
// *effectchain.OrderSender implements it.
type Sender interface {
	Send(o effectchain.Order) bool
}

// AppliedSource reports the order the audio goroutine runs.
// *effectchain.Processor implements it.
type AppliedSource interface {
	AppliedOrder() effectchain.Order
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = logging.WithComponent(l, "control")
		}
	}
}

// WithRetryInterval sets the Run tick.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.retry = d
		}
	}
}

// WithInitialOrder sets the order Current reports before the first change.
// It must match the order the processor was built with.
func WithInitialOrder(o effectchain.Order) Option {
	return func(c *Controller) {
		if o.Validate() == nil {
			c.current = o
		}
	}
}

// Stats counts controller activity.
type Stats struct {
	Accepted uint64
	Sent     uint64
	Deferred uint64
	Retried  uint64
}

// Controller serializes order changes from many goroutines onto the single
// producer end of the order queue.
//
// An order that does not fit the queue stays pending and is re-sent by Flush
// or Run; a newer order replaces it. Callers never see queue pressure as an
// error.
type Controller struct {
	sender  Sender
	applied AppliedSource
	store   *params.Store
	log     *logrus.Entry
	retry   time.Duration
	session xid.ID

	mu      sync.Mutex
	current effectchain.Order
	pending bool
	stats   Stats
}

// New returns a controller writing to sender. applied and store may be nil.
func New(sender Sender, applied AppliedSource, store *params.Store, opts ...Option) *Controller {
	c := &Controller{
		sender:  sender,
		applied: applied,
		store:   store,
		log:     logging.WithComponent(logging.Discard(), "control"),
		retry:   DefaultRetryInterval,
		session: xid.New(),
		current: effectchain.DefaultOrder(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.log = c.log.WithField("session", c.session.String())

	return c
}

// ForProcessor wires a controller to p.
func ForProcessor(p *effectchain.Processor, store *params.Store, opts ...Option) *Controller {
	opts = append([]Option{WithInitialOrder(p.AppliedOrder())}, opts...)
	return New(p.Orders(), p, store, opts...)
}

// Session identifies this controller in logs.
func (c *Controller) Session() string {
	return c.session.String()
}

// SetOrder validates o and hands it to the audio side.
func (c *Controller) SetOrder(o effectchain.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.commitLocked(o, "set")

	return nil
}

// Move moves the slot at from to to.
func (c *Controller) Move(from, to int) error {
	if from < 0 || from >= effectchain.NumSlots || to < 0 || to >= effectchain.NumSlots {
		return fmt.Errorf("control: %w: move %d -> %d", effectchain.ErrInvalidOrder, from, to)
	}

	return c.edit("move", func(o effectchain.Order) effectchain.Order { return o.Move(from, to) })
}

// Swap exchanges two slots.
func (c *Controller) Swap(i, j int) error {
	if i < 0 || i >= effectchain.NumSlots || j < 0 || j >= effectchain.NumSlots {
		return fmt.Errorf("control: %w: swap %d <-> %d", effectchain.ErrInvalidOrder, i, j)
	}

	return c.edit("swap", func(o effectchain.Order) effectchain.Order { return o.Swap(i, j) })
}

// Toggle adds opt to the end of the chain or removes it.
func (c *Controller) Toggle(opt effectchain.Option) error {
	if !opt.IsEffect() {
		return fmt.Errorf("control: %w: %s", effectchain.ErrUnknownEffect, opt)
	}

	return c.edit("toggle", func(o effectchain.Order) effectchain.Order { return o.Toggle(opt) })
}

// Bypass deactivates every slot.
func (c *Controller) Bypass() error {
	return c.edit("bypass", func(effectchain.Order) effectchain.Order { return effectchain.BypassOrder() })
}

// Reset restores the default order.
func (c *Controller) Reset() error {
	return c.edit("reset", func(effectchain.Order) effectchain.Order { return effectchain.DefaultOrder() })
}

// Current returns the last accepted order, whether or not the audio side
// has picked it up.
func (c *Controller) Current() effectchain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Applied returns the order the audio side runs, or Current when no
// AppliedSource was given.
func (c *Controller) Applied() effectchain.Order {
	if c.applied == nil {
		return c.Current()
	}

	return c.applied.AppliedOrder()
}

// Pending reports whether an accepted order still waits for queue space.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

// Flush re-sends a pending order. It reports whether nothing is pending
// afterwards.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending {
		return true
	}

	c.stats.Retried++
	c.sendLocked(xid.New().String())

	return !c.pending
}

// Run calls Flush every retry interval until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.retry)
	defer ticker.Stop()

	c.log.Debug("retry loop started")

	for {
		select {
		case <-ctx.Done():
			c.log.Debug("retry loop stopped")
			return nil
		case <-ticker.C:
			c.Flush()
		}
	}
}

// SetParam writes one parameter and returns the stored value.
func (c *Controller) SetParam(id string, v float64) (float64, error) {
	if c.store == nil {
		return 0, ErrNoParams
	}

	got, err := c.store.Set(id, v)
	if err != nil {
		return 0, err
	}

	c.log.WithFields(logrus.Fields{"param": id, "value": got}).Debug("param set")

	return got, nil
}

// SetParamNormalized writes one parameter from a value in [0, 1].
func (c *Controller) SetParamNormalized(id string, n float64) (float64, error) {
	if c.store == nil {
		return 0, ErrNoParams
	}

	return c.store.SetNormalized(id, n)
}

// Params returns the parameter store, which may be nil.
func (c *Controller) Params() *params.Store {
	return c.store
}

func (c *Controller) edit(op string, f func(effectchain.Order) effectchain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := f(c.current)
	if err := next.Validate(); err != nil {
		return err
	}

	c.commitLocked(next, op)

	return nil
}

func (c *Controller) commitLocked(o effectchain.Order, op string) {
	id := xid.New().String()

	c.current = o
	c.pending = true
	c.stats.Accepted++

	c.log.WithFields(logrus.Fields{"cmd": id, "op": op, "order": o.String()}).Info("order accepted")

	c.sendLocked(id)
}

func (c *Controller) sendLocked(id string) {
	if c.sender.Send(c.current) {
		c.pending = false
		c.stats.Sent++

		return
	}

	c.stats.Deferred++
	c.log.WithFields(logrus.Fields{"cmd": id, "order": c.current.String()}).Debug("order queue full, deferring")
}
