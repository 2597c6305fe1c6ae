// Package modulation provides the LFO-driven effects of the chain.
//
// Included processors:
//   - Chorus: Multi-voice modulated delay with feedback.
//   - Phaser: Allpass-cascade sweep around a centre frequency.
//
// Both are mono; stereo is built by running one instance per channel.
package modulation
