package cfg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vkuzmin/chromesift/app/policy"
)

// PatternSets is the optional YAML config file: standing pattern lists
// merged into every run's selection, so recurring overrides (internal
// hosts, noisy SSO domains) don't have to be repeated on every call.
type PatternSets struct {
	Include          []string `yaml:"include"`
	Exclude          []string `yaml:"exclude"`
	AggregateURL     []string `yaml:"aggregate_url"`
	AggregateDomain  []string `yaml:"aggregate_domain"`
	IncludeUnvisited []string `yaml:"include_unvisited"`
}

// LoadPatternSets reads a pattern-set file. An empty path is fine and
// yields empty sets.
func LoadPatternSets(path string) (PatternSets, error) {
	var sets PatternSets
	if path == "" {
		return sets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sets, fmt.Errorf("failed to read pattern file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return sets, fmt.Errorf("failed to parse pattern file %s: %w", path, err)
	}
	return sets, nil
}

// Policy builds and validates the selection policy for one run from the
// command flags, the standing pattern sets and a fixed now timestamp.
func (s SelectionOpts) Policy(sets PatternSets, includeUnvisited []string, now time.Time) (policy.Policy, error) {
	p := policy.Policy{
		Days:              s.Days,
		Include:           policy.NewPatterns(concat(s.Include, sets.Include)),
		Exclude:           policy.NewPatterns(concat(s.Exclude, sets.Exclude)),
		BookmarkedOnly:    s.BookmarkedOnly,
		UnusedOnly:        s.Unused,
		AggregateMode:     policy.AggregateMode(s.Aggregate),
		AggregateByURL:    policy.NewPatterns(concat(s.AggregateURL, sets.AggregateURL)),
		AggregateByDomain: policy.NewPatterns(concat(s.AggregateDomain, sets.AggregateDomain)),
		IncludeUnvisited:  policy.NewPatterns(concat(includeUnvisited, sets.IncludeUnvisited)),
		Top:               s.Top,
		Now:               now,
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}

func concat(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
