// Package meter observes the processed signal for the control side.
//
// Levels keeps per-channel peaks in atomic words. Analyzer ships mono frames
// from the audio goroutine to its own goroutine through a lock-free queue and
// turns them into a smoothed magnitude spectrum. Both implement
// effectchain.Tap and never allocate or block when observing a block.
package meter
