package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
)

// MaxAbsDiff returns the largest absolute difference between two slices.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	maxDiff := 0.0
	for i := range a {
		maxDiff = math.Max(maxDiff, math.Abs(a[i]-b[i]))
	}

	return maxDiff, nil
}

// RequireBlocksNearlyEqual fails t unless both blocks share a layout and
// every sample pair is within eps.
func RequireBlocksNearlyEqual(t testing.TB, got, want *buffer.Block, eps float64) {
	t.Helper()

	if got.NumChannels() != want.NumChannels() || got.NumFrames() != want.NumFrames() {
		t.Fatalf("layout mismatch: got %dx%d, want %dx%d",
			got.NumChannels(), got.NumFrames(), want.NumChannels(), want.NumFrames())
	}

	for ch := range got.NumChannels() {
		g, w := got.Channel(ch), want.Channel(ch)
		for i := range g {
			if d := math.Abs(g[i] - w[i]); d > eps {
				t.Fatalf("ch %d index %d: got %v, want %v (diff %v > eps %v)", ch, i, g[i], w[i], d, eps)
			}
		}
	}
}

// RequireBlockFinite fails t if any sample is NaN or Inf.
func RequireBlockFinite(t testing.TB, b *buffer.Block) {
	t.Helper()

	for ch := range b.NumChannels() {
		for i, v := range b.Channel(ch) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("ch %d index %d: non-finite value %v", ch, i, v)
			}
		}
	}
}
