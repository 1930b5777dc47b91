package directory

import (
	"fmt"
	"strings"
)

// SortMode selects how the visible list is ordered.
type SortMode int

const (
	// SortNone keeps the directory order.
	SortNone SortMode = iota
	// SortAscending orders by population, smallest first.
	SortAscending
	// SortDescending orders by population, largest first.
	SortDescending
	// SortAlphabetical orders by name.
	SortAlphabetical
)

func (m SortMode) String() string {
	switch m {
	case SortNone:
		return "none"
	case SortAscending:
		return "ascending"
	case SortDescending:
		return "descending"
	case SortAlphabetical:
		return "alphabetical"
	default:
		return fmt.Sprintf("SortMode(%d)", int(m))
	}
}

// ParseSortMode parses the names accepted on the command line and in config.
// The empty string is SortNone.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	case "alpha", "alphabetical", "az", "a-z":
		return SortAlphabetical, nil
	default:
		return SortNone, fmt.Errorf("unknown sort mode: %q (want none, asc, desc or alpha)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m SortMode) MarshalText() ([]byte, error) {
	switch m {
	case SortNone, SortAscending, SortDescending, SortAlphabetical:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("invalid sort mode: %d", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SortMode) UnmarshalText(text []byte) error {
	parsed, err := ParseSortMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
