package team

import (
	"fmt"
	"strings"
)

// Mode selects the optimization policy.
type Mode string

const (
	ModeFastest  Mode = "fastest"
	ModeBalanced Mode = "balanced"
	ModeCheapest Mode = "cheapest"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeFastest, ModeBalanced, ModeCheapest}

// ParseMode accepts the canonical names and the short aliases older
// clients send ("fast", "slow", "cheap").
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "fastest", "fast":
		return ModeFastest, nil
	case "balanced", "balance", "":
		return ModeBalanced, nil
	case "cheapest", "cheap", "slow":
		return ModeCheapest, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want fastest, balanced or cheapest)", raw)
	}
}
