package ladder

import (
	"fmt"
	"strings"
)

// Mode selects the filter response.
type Mode int

const (
	// ModeLPF12 is a 12 dB/oct low-pass.
	ModeLPF12 Mode = iota
	// ModeHPF12 is a 12 dB/oct high-pass.
	ModeHPF12
	// ModeBPF12 is a 12 dB/oct band-pass.
	ModeBPF12
	// ModeLPF24 is a 24 dB/oct low-pass.
	ModeLPF24
	// ModeHPF24 is a 24 dB/oct high-pass.
	ModeHPF24
	// ModeBPF24 is a 24 dB/oct band-pass.
	ModeBPF24
)

// NumModes is the number of available responses.
const NumModes = int(ModeBPF24) + 1

var modeNames = [NumModes]string{"LPF12", "HPF12", "BPF12", "LPF24", "HPF24", "BPF24"}

// Tap weights over {input after feedback, stage 1, stage 2, stage 3, stage 4}.
var modeTaps = [NumModes][5]float64{
	ModeLPF12: {0, 0, 1, 0, 0},
	ModeHPF12: {1, -2, 1, 0, 0},
	ModeBPF12: {0, 0, -1, 1, 0},
	ModeLPF24: {0, 0, 0, 0, 1},
	ModeHPF24: {1, -4, 6, -4, 1},
	ModeBPF24: {0, 0, 1, -2, 1},
}

func (m Mode) String() string {
	if !m.Valid() {
		return "unknown"
	}

	return modeNames[m]
}

// Valid reports whether m names a known response.
func (m Mode) Valid() bool {
	return m >= ModeLPF12 && m <= ModeBPF24
}

// ModeNames returns the response names in mode order.
func ModeNames() []string {
	names := make([]string, NumModes)
	copy(names, modeNames[:])

	return names
}

// ParseMode resolves a response name such as "lpf24".
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Mode(i), nil
		}
	}

	return 0, fmt.Errorf("ladder: unknown mode: %q", name)
}
