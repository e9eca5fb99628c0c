// Package merge combines two history stores: every source record is
// folded into the target, summing visit counts and keeping the latest
// visit time.
package merge

import (
	"time"

	"github.com/vkuzmin/chromesift/app/history"
)

// Diff summarizes what a merge changes in the target.
type Diff struct {
	// Inserted counts source URLs absent from the target.
	Inserted int

	// Updated counts source URLs already present in the target.
	Updated int

	// VisitDelta is the total number of visits the merge adds.
	VisitDelta int
}

// Change is one record of the computed merge: the merged target state
// for a URL, and whether it is new to the target.
type Change struct {
	Record history.VisitRecord
	New    bool

	// RawURLs are the target's stored spellings of the URL, the forms a
	// commit must match rows against. Empty for new records, which are
	// inserted under the normalized URL.
	RawURLs []string
}

// Result is the full computed merge, ready for Commit or for a dry-run
// report.
type Result struct {
	Changes []Change
	Diff    Diff
}

// Compute merges source into target without touching either store. For
// URLs absent from the target the source record is copied verbatim; for
// URLs present in both, counts sum and the later visit time wins.
//
// The operation is additive, not idempotent: committing the same source
// into an already-merged target adds its counts again. That is the
// documented behavior, not a defect to correct.
func Compute(source, target *history.Store) Result {
	var res Result
	for rec := range source.All() {
		change := Change{Record: rec}
		if existing, ok := target.Lookup(rec.URL); ok {
			change.Record.VisitCount = existing.VisitCount + rec.VisitCount
			change.Record.LastVisit = maxTime(existing.LastVisit, rec.LastVisit)
			change.Record.URL = existing.URL
			change.RawURLs = target.RawURLs(rec.URL)
			res.Diff.Updated++
		} else {
			change.New = true
			res.Diff.Inserted++
		}
		res.Diff.VisitDelta += rec.VisitCount
		res.Changes = append(res.Changes, change)
	}
	return res
}

// maxTime treats the zero time as minus infinity.
func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
