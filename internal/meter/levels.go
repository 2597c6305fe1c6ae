package meter

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-vecmath"
	"github.com/meko-christian/algo-approx"
)

// SilenceDB is reported for channels without signal.
const SilenceDB = -120.0

const dbPerNeper = 20 / math.Ln10

// Levels holds the peak of each channel since the last Take.
type Levels struct {
	peaks [core.MaxChannels]atomic.Uint64
}

var _ effectchain.Tap = (*Levels)(nil)

// NewLevels returns meters reading silence.
func NewLevels() *Levels {
	return &Levels{}
}

// Observe folds the block peaks into the held values.
func (l *Levels) Observe(block *buffer.Block) {
	channels := min(block.NumChannels(), core.MaxChannels)
	for ch := range channels {
		l.raise(ch, vecmath.MaxAbs(block.Channel(ch)))
	}
}

// Peak returns the held linear peak of ch without clearing it.
func (l *Levels) Peak(ch int) float64 {
	if ch < 0 || ch >= core.MaxChannels {
		return 0
	}

	return math.Float64frombits(l.peaks[ch].Load())
}

// PeaksDB returns the held peaks in dBFS without clearing them.
func (l *Levels) PeaksDB() [core.MaxChannels]float64 {
	var out [core.MaxChannels]float64
	for ch := range out {
		out[ch] = ToDB(l.Peak(ch))
	}

	return out
}

// Take returns the held peaks in dBFS and starts a new hold period.
func (l *Levels) Take() [core.MaxChannels]float64 {
	var out [core.MaxChannels]float64
	for ch := range out {
		out[ch] = ToDB(math.Float64frombits(l.peaks[ch].Swap(0)))
	}

	return out
}

func (l *Levels) raise(ch int, peak float64) {
	if !core.IsFinite(peak) {
		return
	}

	bits := math.Float64bits(peak)
	for {
		old := l.peaks[ch].Load()
		if math.Float64frombits(old) >= peak {
			return
		}

		if l.peaks[ch].CompareAndSwap(old, bits) {
			return
		}
	}
}

// ToDB converts a linear magnitude to dBFS, floored at SilenceDB.
func ToDB(linear float64) float64 {
	if linear <= 0 || !core.IsFinite(linear) {
		return SilenceDB
	}

	return max(dbPerNeper*approx.FastLog(linear), SilenceDB)
}
