package album

import (
	"fmt"
	"strconv"
	"strings"
)

// LevelSpec selects which folder segments below a root name an album. It is
// either a single level count (Start only, End == 0) or an inclusive range.
type LevelSpec struct {
	Start int
	End   int
}

// Ranged reports whether the spec is a start,end range.
func (l LevelSpec) Ranged() bool {
	return l.End != 0
}

func (l LevelSpec) String() string {
	if l.Ranged() {
		return fmt.Sprintf("%d,%d", l.Start, l.End)
	}
	return strconv.Itoa(l.Start)
}

// ParseLevelSpec parses "n" or "start,end".
//
// A negative range ending at -1 is the same as a plain negative level and is
// normalized to it.
func ParseLevelSpec(s string) (LevelSpec, error) {
	invalid := func(reason string) (LevelSpec, error) {
		return LevelSpec{}, &ConfigurationError{Property: "album_levels", Reason: fmt.Sprintf("%q: %s", s, reason)}
	}

	parts := strings.Split(strings.TrimSpace(s), ",")
	switch len(parts) {
	case 1:
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return invalid("not an integer")
		}
		if n == 0 {
			return invalid("level cannot be 0")
		}
		return LevelSpec{Start: n}, nil
	case 2:
		start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return invalid("range bounds must be integers separated by a comma")
		}
		if start == 0 || end == 0 {
			return invalid("range bounds cannot be 0")
		}
		if (start < 0) != (end < 0) {
			return invalid("range bounds must have the same sign")
		}
		if start > end {
			return invalid("start level must be less than or equal to end level")
		}
		if start < 0 && end == -1 {
			return LevelSpec{Start: start}, nil
		}
		return LevelSpec{Start: start, End: end}, nil
	}
	return invalid("expected <level> or <startLevel>,<endLevel>")
}

// Select picks the album name segments out of an asset's folder segments.
// ok is false when the path is too shallow for the spec; such assets do not
// get an album.
func (l LevelSpec) Select(segments []string) (selected []string, ok bool) {
	n := len(segments)
	if n == 0 {
		return nil, false
	}

	if !l.Ranged() {
		if l.Start > 0 {
			return segments[:min(n, l.Start)], true
		}
		return segments[n-min(n, -l.Start):], true
	}

	if l.Start > 0 {
		first := l.Start - 1
		if first >= n {
			return nil, false
		}
		return segments[first:min(n, l.End)], true
	}

	// Both bounds negative, End <= -2 after normalization.
	if n < -l.End {
		return nil, false
	}
	first := n - min(n, -l.Start)
	last := n + l.End + 1
	return segments[first:last], true
}
