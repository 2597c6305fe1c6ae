//go:build !fxdebug

package effectchain

const debugInvariants = false

// invariant is a no-op outside fxdebug builds; the offending slot is skipped.
func invariant(bool, string) {}
