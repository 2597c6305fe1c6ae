package effectchain

import "github.com/cwbudde/algo-multifx/dsp/buffer"

// Process runs one host block through the chain in place.
//
// Per block it drains the order queue keeping only the newest order, commits
// that order unless the queue was empty, silences output channels the host
// does not feed, refreshes module parameters when they changed, assembles the
// pipeline and runs it. Blocks longer than the prepared maximum are processed
// as consecutive views.
func (p *Processor) Process(block *buffer.Block) {
	if block == nil {
		return
	}

	p.drainOrders()
	block.ClearChannelsFrom(p.inputChannels)
	p.refreshParams()

	pipe := Assemble(p.committed, p.rack)

	n := block.NumFrames()
	step := p.spec.MaxBlockSize

	if n <= step {
		pipe.Process(block)
	} else {
		for off := 0; off < n; off += step {
			block.SubInto(&p.view, off, step)
			pipe.Process(&p.view)
		}
	}

	if p.tap != nil {
		p.tap.Observe(block)
	}

	p.blocks.Add(1)
}

// CommittedOrder returns the order in force. Audio goroutine only; other
// goroutines use AppliedOrder.
func (p *Processor) CommittedOrder() Order {
	return p.committed
}

func (p *Processor) drainOrders() {
	var latest Order

	for {
		o, ok := p.orders.Pop()
		if !ok {
			break
		}

		latest = o
		p.ordersReceived.Add(1)
	}

	if latest.IsEmpty() {
		return
	}

	p.committed = latest
	p.applied.Store(latest.Pack())
	p.ordersApplied.Add(1)
}

func (p *Processor) refreshParams() {
	if p.params == nil {
		return
	}

	if p.changes != nil {
		v := p.changes.Changes()
		if v != p.paramsVersion {
			p.paramsVersion = v
			p.paramsStale = true
		}
	}

	if !p.paramsStale {
		return
	}

	p.rack.UpdateParams(p.params)
	p.paramsStale = false
}
