package album

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ExpandLiteral turns a pattern without any slash or star into a glob
// matching the literal anywhere in a path.
func ExpandLiteral(expr string) string {
	if strings.ContainsAny(expr, "/*") {
		return expr
	}
	glob := "**/*" + expr + "*/**"
	log.Debugf("expanding %s to %s", expr, glob)
	return glob
}

// GlobToRegexp converts a glob into an anchored regexp matched against a path
// relative to its root.
//
//	/**   any number of trailing path elements
//	**/   any number of leading path elements
//	*     anything but a slash
//	?     any single character
//	[!x]  negated character class, [*] and [?] match the literal characters
func GlobToRegexp(glob string) (*regexp.Regexp, error) {
	var re bytes.Buffer
	_, _ = re.WriteString("^(?:")
	inBrackets := false
	for i := 0; i < len(glob); {
		rest := glob[i:]
		switch {
		case strings.HasPrefix(rest, "/**"):
			_, _ = re.WriteString(`(?:/.+?)*`)
			i += 3
		case strings.HasPrefix(rest, "**/"):
			_, _ = re.WriteString(`(?:^.+?/)*`)
			i += 3
		case strings.HasPrefix(rest, "[*]"):
			_, _ = re.WriteString(`\*`)
			i += 3
		case strings.HasPrefix(rest, "[?]"):
			_, _ = re.WriteString(`\?`)
			i += 3
		case strings.HasPrefix(rest, "[!"):
			_, _ = re.WriteString(`[^`)
			inBrackets = true
			i += 2
		case rest[0] == '[':
			_ = re.WriteByte('[')
			inBrackets = true
			i++
		case rest[0] == ']':
			if !inBrackets {
				return nil, fmt.Errorf("mismatched ']' in glob %q", glob)
			}
			_ = re.WriteByte(']')
			inBrackets = false
			i++
		case rest[0] == '*':
			_, _ = re.WriteString(`[^/]*`)
			i++
		case rest[0] == '?':
			_ = re.WriteByte('.')
			i++
		default:
			_, _ = re.WriteString(regexp.QuoteMeta(rest[:1]))
			i++
		}
	}
	if inBrackets {
		return nil, fmt.Errorf("mismatched '[' and ']' in glob %q", glob)
	}
	_, _ = re.WriteString(")$")
	result, err := regexp.Compile(re.String())
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q (regexp %q): %w", glob, re.String(), err)
	}
	return result, nil
}

// Filter decides whether an asset takes part in album derivation.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewFilter compiles the path filter (inclusion) and ignore (exclusion)
// patterns. Literals are expanded with ExpandLiteral first.
func NewFilter(pathFilter, ignore []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range pathFilter {
		re, err := GlobToRegexp(ExpandLiteral(p))
		if err != nil {
			return nil, &ConfigurationError{Property: "path_filter", Reason: err.Error()}
		}
		f.include = append(f.include, re)
	}
	for _, p := range ignore {
		re, err := GlobToRegexp(ExpandLiteral(p))
		if err != nil {
			return nil, &ConfigurationError{Property: "ignore", Reason: err.Error()}
		}
		f.exclude = append(f.exclude, re)
	}
	return f, nil
}

// Ignored reports whether the root-relative path is filtered out. Inclusion
// patterns are evaluated first; an exclusion match always drops the path.
func (f *Filter) Ignored(rel string) bool {
	if f == nil {
		return false
	}
	if len(f.include) > 0 {
		matched := false
		for _, re := range f.include {
			if re.MatchString(rel) {
				matched = true
				break
			}
		}
		if !matched {
			log.Debugf("Ignoring path %s due to path_filter setting!", rel)
			return true
		}
	}
	for _, re := range f.exclude {
		if re.MatchString(rel) {
			log.Debugf("Ignoring path %s due to ignore setting!", rel)
			return true
		}
	}
	return false
}

// Roots is the ordered list of configured library roots, each ending in a
// slash.
type Roots []string

// NewRoots normalizes root paths to end with a slash.
func NewRoots(paths []string) Roots {
	roots := make(Roots, 0, len(paths))
	for _, p := range paths {
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		roots = append(roots, p)
	}
	return roots
}

// Match returns the root containing path and the path relative to it.
func (r Roots) Match(path string) (root, rel string, ok bool) {
	for _, root := range r {
		if strings.HasPrefix(path, root) {
			return root, strings.TrimPrefix(path, root), true
		}
	}
	return "", "", false
}

// PathIgnored resolves the root of an absolute path and applies the filter.
// Paths outside every root are never ignored.
func (f *Filter) PathIgnored(roots Roots, path string) bool {
	_, rel, ok := roots.Match(path)
	if !ok {
		return false
	}
	return f.Ignored(rel)
}
