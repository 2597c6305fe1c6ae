// Package testutil holds deterministic test signals and block assertions
// shared by the package tests.
package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
)

// Sine returns a deterministic sine starting at phase 0.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Noise returns seeded white noise in [-amplitude, amplitude).
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// SineBlock returns a block whose channels carry the same sine, each scaled
// by 1/(channel+1) so channel swaps are detectable.
func SineBlock(channels, frames int, freqHz, sampleRate, amplitude float64) *buffer.Block {
	b := buffer.NewBlock(channels, frames)
	for ch := range channels {
		copy(b.Channel(ch), Sine(freqHz, sampleRate, amplitude/float64(ch+1), frames))
	}

	return b
}

// NoiseBlock returns a block of independent seeded noise per channel.
func NoiseBlock(seed int64, channels, frames int, amplitude float64) *buffer.Block {
	b := buffer.NewBlock(channels, frames)
	for ch := range channels {
		copy(b.Channel(ch), Noise(seed+int64(ch), amplitude, frames))
	}

	return b
}

// ImpulseBlock returns a block with a unit impulse at pos on every channel.
func ImpulseBlock(channels, frames, pos int) *buffer.Block {
	b := buffer.NewBlock(channels, frames)
	if pos >= 0 && pos < frames {
		for ch := range channels {
			b.Channel(ch)[pos] = 1
		}
	}

	return b
}
