// Package aggregate groups selected usage records by URL or domain,
// honoring the policy's per-domain override patterns.
package aggregate

import (
	"net/url"
	"sort"
	"time"

	"github.com/vkuzmin/chromesift/app/policy"
	"github.com/vkuzmin/chromesift/app/usage"
)

// Group is one row of ranked output: a grouping key with the member URLs
// folded into it. TotalVisits sums member counts; LastVisit is the
// maximum across members, zero when no member has a visit time.
type Group struct {
	Key         string
	Members     []string
	TotalVisits int
	LastVisit   time.Time
}

// Run groups the selection and returns groups ordered by descending
// total visits, then ascending key. Every record lands in exactly one
// group, so visit counts are conserved across the grouping.
func Run(records []usage.Record, p policy.Policy) []Group {
	byKey := make(map[string]*Group)
	var order []string

	for _, rec := range records {
		key := keyFor(rec, p)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.Members = append(g.Members, rec.URL)
		g.TotalVisits += rec.VisitCount
		if rec.LastVisit.After(g.LastVisit) {
			g.LastVisit = rec.LastVisit
		}
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].TotalVisits != groups[j].TotalVisits {
			return groups[i].TotalVisits > groups[j].TotalVisits
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// keyFor picks the grouping key for one record. The URL override is
// checked first: when a domain matches both override patterns the
// narrower per-URL grouping wins, so nothing is silently over-merged.
func keyFor(rec usage.Record, p policy.Policy) string {
	switch {
	case matchAny(p.AggregateByURL, rec.Domain):
		return baseURL(rec.URL)
	case matchAny(p.AggregateByDomain, rec.Domain):
		return rec.Domain
	}
	switch p.AggregateMode {
	case policy.AggregateURL:
		return baseURL(rec.URL)
	case policy.AggregateDomain:
		return rec.Domain
	}
	return rec.URL
}

func matchAny(ps []policy.Pattern, s string) bool {
	for _, p := range ps {
		if p.Match(s) {
			return true
		}
	}
	return false
}

// baseURL strips the query and fragment so variants of one page fold
// together under per-URL aggregation. Unparseable URLs group under the
// raw string.
func baseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Top caps the group list at n entries; n <= 0 means no cap.
func Top(groups []Group, n int) []Group {
	if n <= 0 || n >= len(groups) {
		return groups
	}
	return groups[:n]
}
