package policy

import (
	"regexp"
	"strings"
)

// Pattern matches URLs or domains case-insensitively. Text that compiles
// as a regular expression is used as one; anything else degrades to a
// plain substring match, so simple patterns like "cisco" behave the same
// under both readings.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// NewPattern compiles a pattern.
func NewPattern(s string) Pattern {
	if re, err := regexp.Compile("(?i)" + s); err == nil {
		return Pattern{raw: s, re: re}
	}
	return Pattern{raw: s}
}

// NewPatterns compiles a list of patterns.
func NewPatterns(ss []string) []Pattern {
	if len(ss) == 0 {
		return nil
	}
	ps := make([]Pattern, 0, len(ss))
	for _, s := range ss {
		ps = append(ps, NewPattern(s))
	}
	return ps
}

// Match reports whether the pattern matches s.
func (p Pattern) Match(s string) bool {
	if p.re != nil {
		return p.re.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(p.raw))
}

func (p Pattern) String() string {
	return p.raw
}

func anyMatch(ps []Pattern, s string) bool {
	for _, p := range ps {
		if p.Match(s) {
			return true
		}
	}
	return false
}
