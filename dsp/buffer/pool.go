package buffer

import "sync"

// Pool provides sync.Pool-based Block reuse for hosts that allocate scratch
// blocks per stream or per render.
type Pool struct {
	pool     sync.Pool
	channels int
	frames   int
}

// NewPool returns a Pool handing out zeroed blocks of a fixed layout.
func NewPool(channels, frames int) *Pool {
	p := &Pool{channels: channels, frames: frames}
	p.pool.New = func() any {
		return NewBlock(p.channels, p.frames)
	}

	return p
}

// Get returns a zeroed Block. Callers must return it via Put when done.
func (p *Pool) Get() *Block {
	b := p.pool.Get().(*Block)
	b.Clear()

	return b
}

// Put returns a Block to the pool for reuse.
// Blocks with a different layout are discarded.
// The caller must not use the block after calling Put.
func (p *Pool) Put(b *Block) {
	if b == nil || b.NumChannels() != p.channels || b.NumFrames() != p.frames {
		return
	}
	p.pool.Put(b)
}
