package album

import (
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// RuleSeparator splits a rule given as a single string into pattern and
// replacement.
const RuleSeparator = "=>"

// Rule is one post-processing substitution applied to album names.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// ParseRule parses "PATTERN" or "PATTERN=>REPLACEMENT". A missing replacement
// deletes every match.
func ParseRule(s string) (Rule, error) {
	pattern, repl, _ := strings.Cut(s, RuleSeparator)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, &ConfigurationError{Property: "album_name_post_regex", Reason: fmt.Sprintf("bad pattern %q: %v", pattern, err)}
	}
	return Rule{Pattern: re, Replacement: repl}, nil
}

// ParseRules parses rules keeping their order.
func ParseRules(specs []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Formatter turns selected path segments into an album display name.
type Formatter struct {
	Separator string
	Rules     []Rule
}

// Format joins the segments and runs every rule on the result of the one
// before it.
func (f Formatter) Format(segments []string) string {
	name := strings.Join(segments, f.Separator)
	return f.Apply(name)
}

// Apply runs the rules over an already joined name.
func (f Formatter) Apply(name string) string {
	for _, r := range f.Rules {
		name = r.Pattern.ReplaceAllString(name, r.Replacement)
		log.Debugf("Album Post Regex s/%s/%s/g --> %s", r.Pattern, r.Replacement, name)
	}
	return strings.TrimSpace(name)
}
