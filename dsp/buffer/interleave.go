package buffer

// Deinterleave32 loads interleaved float32 frames into the block.
// The source channel count may differ from the block's: extra source channels
// are dropped and missing ones are left silent. It returns the frame count
// written, bounded by the block length.
func (b *Block) Deinterleave32(src []float32, srcChannels int) int {
	if srcChannels <= 0 {
		return 0
	}

	frames := min(len(src)/srcChannels, b.frames)
	for ch, dst := range b.channels {
		if ch >= srcChannels {
			clear(dst[:frames])
			continue
		}
		for i := 0; i < frames; i++ {
			dst[i] = float64(src[i*srcChannels+ch])
		}
	}

	return frames
}

// Interleave32 writes the block as interleaved float32 frames with
// dstChannels channels. Extra destination channels receive silence.
// It returns the frame count written.
func (b *Block) Interleave32(dst []float32, dstChannels int) int {
	if dstChannels <= 0 {
		return 0
	}

	frames := min(len(dst)/dstChannels, b.frames)
	for ch := 0; ch < dstChannels; ch++ {
		if ch >= len(b.channels) {
			for i := 0; i < frames; i++ {
				dst[i*dstChannels+ch] = 0
			}
			continue
		}
		src := b.channels[ch]
		for i := 0; i < frames; i++ {
			dst[i*dstChannels+ch] = float32(src[i])
		}
	}

	return frames
}

// Deinterleave64 is the float64 variant of Deinterleave32.
func (b *Block) Deinterleave64(src []float64, srcChannels int) int {
	if srcChannels <= 0 {
		return 0
	}

	frames := min(len(src)/srcChannels, b.frames)
	for ch, dst := range b.channels {
		if ch >= srcChannels {
			clear(dst[:frames])
			continue
		}
		for i := 0; i < frames; i++ {
			dst[i] = src[i*srcChannels+ch]
		}
	}

	return frames
}

// Interleave64 is the float64 variant of Interleave32.
func (b *Block) Interleave64(dst []float64, dstChannels int) int {
	if dstChannels <= 0 {
		return 0
	}

	frames := min(len(dst)/dstChannels, b.frames)
	for ch := 0; ch < dstChannels; ch++ {
		if ch >= len(b.channels) {
			for i := 0; i < frames; i++ {
				dst[i*dstChannels+ch] = 0
			}
			continue
		}
		src := b.channels[ch]
		for i := 0; i < frames; i++ {
			dst[i*dstChannels+ch] = src[i]
		}
	}

	return frames
}
