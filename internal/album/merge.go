package album

import (
	"fmt"
	"sort"
	"strings"
)

// Contribution is the effective property set of one directory whose assets
// land in a logical album.
type Contribution struct {
	Directory  string
	Properties Properties
}

// Merge combines the contributions converging on one album. Every scalar
// property set by more than one directory must have the same value
// everywhere; the first property found in conflict is reported as a
// ConfigurationError. Share sets are folded independent of order.
func Merge(album string, contributions []Contribution) (Properties, error) {
	sorted := make([]Contribution, len(contributions))
	copy(sorted, contributions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Directory < sorted[j].Directory })

	for _, prop := range scalarProperties {
		var dirs []string
		values := make(map[string]bool)
		for _, c := range sorted {
			if v, ok := c.Properties.scalar(prop); ok {
				dirs = append(dirs, c.Directory)
				values[v] = true
			}
		}
		if len(values) > 1 {
			distinct := make([]string, 0, len(values))
			for v := range values {
				distinct = append(distinct, fmt.Sprintf("%q", v))
			}
			sort.Strings(distinct)
			return Properties{}, &ConfigurationError{
				Album:       album,
				Property:    string(prop),
				Directories: dirs,
				Reason:      "conflicting values " + strings.Join(distinct, " vs "),
			}
		}
	}

	var merged Properties
	for _, c := range sorted {
		merged = merged.Overlay(c.Properties)
	}
	return merged, nil
}
