package effectchain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOption is returned when a name does not resolve to an Option.
var ErrUnknownOption = errors.New("unknown dsp option")

// Option identifies one effect kind, or the terminator that marks an inactive
// order slot.
type Option uint8

const (
	// OptionNone is the zero value. It never appears in a valid order.
	OptionNone Option = iota
	// OptionPhaser selects the phaser.
	OptionPhaser
	// OptionChorus selects the chorus.
	OptionChorus
	// OptionOverdrive selects the overdrive.
	OptionOverdrive
	// OptionLadderFilter selects the ladder filter.
	OptionLadderFilter
	// OptionEnd marks an inactive slot.
	OptionEnd
)

// NumEffects is the number of effect kinds.
const NumEffects = int(OptionLadderFilter)

var optionNames = [...]string{
	OptionNone:         "none",
	OptionPhaser:       "phaser",
	OptionChorus:       "chorus",
	OptionOverdrive:    "overdrive",
	OptionLadderFilter: "ladder",
	OptionEnd:          "end",
}

var optionAliases = map[string]Option{
	"ladderfilter":  OptionLadderFilter,
	"ladder-filter": OptionLadderFilter,
	"ladder_filter": OptionLadderFilter,
	"drive":         OptionOverdrive,
}

func (o Option) String() string {
	if int(o) < len(optionNames) {
		return optionNames[o]
	}

	return fmt.Sprintf("option(%d)", uint8(o))
}

// IsEffect reports whether o names one of the effect kinds.
func (o Option) IsEffect() bool {
	return o >= OptionPhaser && o <= OptionLadderFilter
}

// index returns the rack slot of an effect option.
func (o Option) index() int {
	return int(o) - 1
}

// Effects returns the effect options in declaration order.
func Effects() []Option {
	return []Option{OptionPhaser, OptionChorus, OptionOverdrive, OptionLadderFilter}
}

// ParseOption resolves a case-insensitive option name.
func ParseOption(name string) (Option, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	for i, n := range optionNames {
		if n == key {
			return Option(i), nil
		}
	}

	if opt, ok := optionAliases[key]; ok {
		return opt, nil
	}

	return OptionNone, fmt.Errorf("effectchain: %w: %q", ErrUnknownOption, name)
}
