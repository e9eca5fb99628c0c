package policy

import (
	"github.com/vkuzmin/chromesift/app/history"
	"github.com/vkuzmin/chromesift/app/usage"
)

// Evaluate applies the policy passes in order and returns the selection
// set: window (or unused-only), bookmarked-only, include/exclude, then
// the include-unvisited union. Input order is preserved; an empty result
// is a valid outcome, not an error.
func (p Policy) Evaluate(records []usage.Record) []usage.Record {
	selected := make([]usage.Record, 0, len(records))
	inSelection := make(map[string]bool, len(records))

	for _, rec := range records {
		if p.UnusedOnly {
			if !rec.IsBookmarked || p.visitedWithinWindow(rec) {
				continue
			}
		} else if !p.visitedWithinWindow(rec) {
			continue
		}

		if p.BookmarkedOnly && !rec.IsBookmarked {
			continue
		}

		if len(p.Include) > 0 && !anyMatch(p.Include, rec.URL) {
			continue
		}
		if anyMatch(p.Exclude, rec.URL) {
			continue
		}

		selected = append(selected, rec)
		inSelection[rec.URL] = true
	}

	// Escape hatch: bookmarked records matching --include-unvisited come
	// back even though they failed the window pass, with their recorded
	// counts intact. Exclude still wins here.
	if len(p.IncludeUnvisited) > 0 && !p.UnusedOnly {
		for _, rec := range records {
			if inSelection[rec.URL] || !rec.IsBookmarked {
				continue
			}
			if !anyMatch(p.IncludeUnvisited, rec.URL) {
				continue
			}
			if anyMatch(p.Exclude, rec.URL) {
				continue
			}
			selected = append(selected, rec)
			inSelection[rec.URL] = true
		}
	}

	return selected
}

// visitedWithinWindow reports whether the record was visited inside the
// lookback window. With an unlimited window any visited record passes;
// a never-visited bookmark does not count as visited. The bounded cutoff
// is the store's window rule, shared so the two cannot drift.
func (p Policy) visitedWithinWindow(r usage.Record) bool {
	if p.Days <= 0 {
		return r.VisitCount > 0 || !r.LastVisit.IsZero()
	}
	return history.InWindow(r.LastVisit, p.Days, p.Now)
}

// SelectionSet returns the normalized URLs of a selection as a set, the
// form the exporter's prune predicate consumes.
func SelectionSet(records []usage.Record) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, rec := range records {
		set[rec.URL] = true
	}
	return set
}
