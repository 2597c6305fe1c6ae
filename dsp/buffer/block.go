package buffer

// Block is a planar view of N frames across C channels.
// All channels share the same length.
type Block struct {
	channels [][]float64
	frames   int
}

// NewBlock returns a zero-filled Block with the given layout.
func NewBlock(channels, frames int) *Block {
	if channels < 0 {
		channels = 0
	}
	if frames < 0 {
		frames = 0
	}

	b := &Block{
		channels: make([][]float64, channels),
		frames:   frames,
	}
	for ch := range b.channels {
		b.channels[ch] = make([]float64, frames)
	}

	return b
}

// FromChannels wraps existing channel slices without copying.
// The frame count is the length of the shortest channel.
func FromChannels(channels ...[]float64) *Block {
	b := &Block{channels: make([][]float64, len(channels))}
	b.Reset(channels...)

	return b
}

// Reset points the block at new channel slices without allocating when the
// block already holds enough channel headers.
func (b *Block) Reset(channels ...[]float64) {
	b.channels = b.channels[:0]
	b.frames = 0
	for i, ch := range channels {
		if i == 0 || len(ch) < b.frames {
			b.frames = len(ch)
		}
		b.channels = append(b.channels, ch)
	}
	for i := range b.channels {
		b.channels[i] = b.channels[i][:b.frames]
	}
}

// NumChannels returns the channel count.
func (b *Block) NumChannels() int {
	return len(b.channels)
}

// NumFrames returns the number of samples per channel.
func (b *Block) NumFrames() int {
	return b.frames
}

// Channel returns the samples of channel i.
func (b *Block) Channel(i int) []float64 {
	return b.channels[i]
}

// Channels returns all channel slices. The returned slice aliases the block.
func (b *Block) Channels() [][]float64 {
	return b.channels
}

// ClearChannel sets every sample of channel i to zero.
func (b *Block) ClearChannel(i int) {
	if i < 0 || i >= len(b.channels) {
		return
	}
	clear(b.channels[i])
}

// ClearChannelsFrom silences every channel with index >= first.
func (b *Block) ClearChannelsFrom(first int) {
	if first < 0 {
		first = 0
	}
	for i := first; i < len(b.channels); i++ {
		clear(b.channels[i])
	}
}

// Clear silences the whole block.
func (b *Block) Clear() {
	b.ClearChannelsFrom(0)
}

// SubInto makes dst a view of frames [offset, offset+n) of b.
// Indices are clamped to valid bounds. dst reuses its channel header
// storage, so no allocation happens once dst has seen b's channel count.
func (b *Block) SubInto(dst *Block, offset, n int) {
	if offset < 0 {
		offset = 0
	}
	if offset > b.frames {
		offset = b.frames
	}
	if n < 0 || offset+n > b.frames {
		n = b.frames - offset
	}

	dst.channels = dst.channels[:0]
	for _, ch := range b.channels {
		dst.channels = append(dst.channels, ch[offset:offset+n])
	}
	dst.frames = n
}

// Sub returns a new view of frames [offset, offset+n) of b.
func (b *Block) Sub(offset, n int) *Block {
	dst := &Block{channels: make([][]float64, 0, len(b.channels))}
	b.SubInto(dst, offset, n)

	return dst
}

// CopyFrom copies the overlapping region of src into b.
func (b *Block) CopyFrom(src *Block) {
	channels := min(len(b.channels), len(src.channels))
	for ch := 0; ch < channels; ch++ {
		copy(b.channels[ch], src.channels[ch])
	}
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	out := NewBlock(len(b.channels), b.frames)
	out.CopyFrom(b)

	return out
}
