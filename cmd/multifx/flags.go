package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/host"
	"github.com/cwbudde/algo-multifx/internal/params"
)

var errBadFlag = errors.New("malformed flag value")

// orderChange is a parsed --at value. Exactly one of seconds and frame is
// meaningful, depending on frames.
type orderChange struct {
	seconds float64
	frame   int64
	frames  bool
	order   effectchain.Order
}

// parseOrderChange reads "2.5s=overdrive>ladder", "1m30s=chorus" or a
// plain frame index "48000=phaser".
func parseOrderChange(text string) (orderChange, error) {
	at, orderText, ok := strings.Cut(text, "=")
	if !ok {
		return orderChange{}, fmt.Errorf("%w: --at %q: want TIME=ORDER", errBadFlag, text)
	}

	order, err := effectchain.ParseOrder(orderText)
	if err != nil {
		return orderChange{}, fmt.Errorf("--at %q: %w", text, err)
	}

	at = strings.TrimSpace(at)
	if n, err := strconv.ParseInt(at, 10, 64); err == nil {
		if n < 0 {
			return orderChange{}, fmt.Errorf("%w: --at %q: negative frame", errBadFlag, text)
		}

		return orderChange{frame: n, frames: true, order: order}, nil
	}

	d, err := time.ParseDuration(at)
	if err != nil || d < 0 {
		return orderChange{}, fmt.Errorf("%w: --at %q: bad time", errBadFlag, text)
	}

	return orderChange{seconds: d.Seconds(), order: order}, nil
}

// schedule resolves parsed changes at the given sample rate.
func schedule(changes []orderChange, sampleRate int) []host.Schedule {
	out := make([]host.Schedule, 0, len(changes))
	for _, c := range changes {
		frame := c.frame
		if !c.frames {
			frame = int64(math.Round(c.seconds * float64(sampleRate)))
		}

		out = append(out, host.Schedule{AtFrame: frame, Order: c.order})
	}

	return out
}

// parseParamAssignments reads "ID=VALUE" pairs. Values go through the
// parameter's own parser, so choice names and units are accepted.
func parseParamAssignments(items []string) (map[string]float64, error) {
	out := make(map[string]float64, len(items))

	for _, item := range items {
		id, text, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("%w: --param %q: want ID=VALUE", errBadFlag, item)
		}

		p, ok := params.Lookup(strings.TrimSpace(id))
		if !ok {
			return nil, fmt.Errorf("--param %q: %w", item, params.ErrUnknownParam)
		}

		v, err := p.Parse(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("--param %q: %w", item, err)
		}

		out[p.ID] = v
	}

	return out, nil
}
