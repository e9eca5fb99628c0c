// Package policy evaluates a declarative selection policy against the
// correlated usage records of an analysis run.
package policy

import (
	"errors"
	"fmt"
	"time"
)

// ErrPolicyConflict reports contradictory policy options. It is detected
// when the policy is built, before any data pass runs.
var ErrPolicyConflict = errors.New("policy conflict")

// AggregateMode selects the grouping key for report/export rows.
type AggregateMode string

const (
	AggregateNone   AggregateMode = ""
	AggregateURL    AggregateMode = "url"
	AggregateDomain AggregateMode = "domain"
)

// Policy is the full selection configuration for one run. It is a pure
// value: Now is captured once at construction so lookback-window
// membership is consistent across every record of the run.
type Policy struct {
	// Days bounds the lookback window; 0 means unlimited.
	Days int

	Include []Pattern
	Exclude []Pattern

	// BookmarkedOnly drops history-only records.
	BookmarkedOnly bool

	// UnusedOnly inverts the window pass: keep only bookmarked records
	// never visited within the window.
	UnusedOnly bool

	AggregateMode AggregateMode

	// AggregateByURL / AggregateByDomain force a grouping key for
	// records whose domain matches, regardless of AggregateMode.
	AggregateByURL    []Pattern
	AggregateByDomain []Pattern

	// IncludeUnvisited re-adds bookmarked records matching a pattern
	// even when they failed the window pass (export escape hatch).
	IncludeUnvisited []Pattern

	// Top caps the number of groups in ranked output; 0 means no cap.
	Top int

	// Now anchors the lookback window.
	Now time.Time
}

// Validate rejects contradictory option combinations. A policy that
// selects nothing is fine; one that cannot mean anything is not.
func (p Policy) Validate() error {
	if p.BookmarkedOnly && p.UnusedOnly {
		return fmt.Errorf("%w: --bookmarked-only and --unused are mutually exclusive", ErrPolicyConflict)
	}
	if p.Days < 0 {
		return fmt.Errorf("%w: --days must not be negative", ErrPolicyConflict)
	}
	if p.Top < 0 {
		return fmt.Errorf("%w: --top must not be negative", ErrPolicyConflict)
	}
	switch p.AggregateMode {
	case AggregateNone, AggregateURL, AggregateDomain:
	default:
		return fmt.Errorf("%w: --aggregate must be %q or %q", ErrPolicyConflict, AggregateURL, AggregateDomain)
	}
	return nil
}
