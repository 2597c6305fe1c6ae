// Package effects provides the non-modulated effect kernels of the chain.
//
// Subpackages:
//   - github.com/cwbudde/algo-multifx/dsp/effects/modulation
//
// Effects in this package:
//   - Overdrive: Drive-normalised saturation with tanh, soft-clip and
//     polynomial curves.
//
// All effects are designed for real-time processing with zero-allocation
// hot paths and support both single-sample and buffer-based processing.
package effects
