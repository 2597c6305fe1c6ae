//go:build fxdebug

package effectchain

const debugInvariants = true

// invariant panics when ok is false.
func invariant(ok bool, msg string) {
	if !ok {
		panic(msg)
	}
}
