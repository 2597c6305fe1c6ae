// Package effectchain runs a reorderable chain of effect modules on blocks of
// planar audio.
//
// A control goroutine describes the chain as an Order (a fixed number of
// slots naming effects or OptionEnd) and hands it to the audio goroutine
// through a lock-free single-producer/single-consumer Fifo. Once per block the
// Processor drains the queue, keeps only the newest order, resolves it against
// its Rack of modules into a Pipeline and runs the block through every active
// slot in place.
//
// Processor.Process never allocates, locks, logs or blocks. Everything that
// may do so (building modules, validating orders, preparing for a new sample
// rate) happens on the control side.
package effectchain
