package cache

import (
	"fmt"
	"strings"
)

// Strategy selects how a Cache enforces its capacity.
type Strategy int

const (
	// Locking evicts synchronously inside Put. This is the default.
	Locking Strategy = iota
	// Threaded evicts asynchronously on a background scheduler.
	Threaded
)

func (s Strategy) String() string {
	switch s {
	case Locking:
		return "locking"
	case Threaded:
		return "threaded"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

func (s Strategy) valid() bool {
	return s == Locking || s == Threaded
}

// ParseStrategy maps a configuration string to a Strategy. Matching is
// case-insensitive; the empty string selects Locking.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "locking":
		return Locking, nil
	case "threaded":
		return Threaded, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}
