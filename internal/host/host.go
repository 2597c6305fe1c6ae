// Package host drives an effectchain.Processor: Offline renders files block
// by block, Live runs it inside a portaudio duplex stream.
package host

import (
	"errors"
	"fmt"
)

// ErrNoProcessor is returned by hosts constructed without a processor.
var ErrNoProcessor = errors.New("host: nil processor")

// StreamError reports a failing audio device or file operation.
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("host: %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
