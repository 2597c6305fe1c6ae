// Package ladder provides a nonlinear four-pole transistor ladder filter with
// selectable 12 and 24 dB/oct low-pass, high-pass and band-pass responses.
//
// The ladder is built from four one-pole sections with a shared cutoff. Each
// response is a fixed mix of the ladder input (after feedback) and the four
// stage outputs, so every mode shares one state and switching modes does not
// reset it. A tanh input and feedback saturation gives the drive character.
//
// Filters are mono, stateful and deterministic; stereo is built by running
// one Filter per channel.
package ladder
