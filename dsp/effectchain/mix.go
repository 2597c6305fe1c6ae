package effectchain

import (
	"github.com/cwbudde/algo-vecmath"
)

// dryWet blends a processed channel with its unprocessed copy:
// wet = wet*mix + dry*(1-mix). Both slices must have equal length.
func dryWet(wet, dry []float64, mix float64) {
	if mix >= 1 {
		return
	}

	vecmath.ScaleBlock(wet, wet, mix)
	vecmath.ScaleBlock(dry, dry, 1-mix)
	vecmath.AddBlockInPlace(wet, dry)
}

// inPlacer is the mono block contract of the effect kernels.
type inPlacer interface {
	ProcessInPlace(buf []float64)
}

// mixedChannel runs fx over ch in chunks no longer than scratch, mixing the
// result with the input at the given ratio.
func mixedChannel(ch, scratch []float64, mix float64, fx inPlacer) {
	if mix >= 1 || len(scratch) == 0 {
		fx.ProcessInPlace(ch)
		return
	}

	for len(ch) > 0 {
		n := min(len(ch), len(scratch))
		part, dry := ch[:n], scratch[:n]

		copy(dry, part)
		fx.ProcessInPlace(part)
		dryWet(part, dry, mix)

		ch = ch[n:]
	}
}
