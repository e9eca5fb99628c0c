// Package history holds the visit-record store read from a Chrome
// History database snapshot.
package history

import (
	"iter"
	"net/url"
	"slices"
	"strings"
	"time"
)

// VisitRecord is a single URL's visit summary. A zero LastVisit means
// Chrome recorded no visit time for the URL.
type VisitRecord struct {
	URL        string
	VisitCount int
	LastVisit  time.Time
}

// Store is an indexed, read-only collection of visit records, keyed by
// normalized URL. Records whose URLs normalize to the same key are
// collapsed at construction: counts sum, last-visit takes the maximum.
// Such duplicates are not expected in a freshly-read database but do
// appear after a merge.
type Store struct {
	byKey map[string]VisitRecord
	raws  map[string][]string
	order []string
}

// NewStore builds a store from already-parsed records.
func NewStore(records []VisitRecord) *Store {
	s := &Store{
		byKey: make(map[string]VisitRecord, len(records)),
		raws:  make(map[string][]string, len(records)),
	}
	for _, rec := range records {
		key := Normalize(rec.URL)
		if !slices.Contains(s.raws[key], rec.URL) {
			s.raws[key] = append(s.raws[key], rec.URL)
		}
		existing, ok := s.byKey[key]
		if !ok {
			rec.URL = key
			s.byKey[key] = rec
			s.order = append(s.order, key)
			continue
		}
		existing.VisitCount += rec.VisitCount
		if rec.LastVisit.After(existing.LastVisit) {
			existing.LastVisit = rec.LastVisit
		}
		s.byKey[key] = existing
	}
	return s
}

// Lookup returns the record for a URL, matching on the normalized form.
func (s *Store) Lookup(rawURL string) (VisitRecord, bool) {
	rec, ok := s.byKey[Normalize(rawURL)]
	return rec, ok
}

// RawURLs returns the stored database spellings that collapsed into one
// record, in first-seen order, matching on the normalized form. Writes
// back to the database must target these spellings: the urls table keeps
// URLs exactly as Chrome recorded them, not in normalized form.
func (s *Store) RawURLs(rawURL string) []string {
	return s.raws[Normalize(rawURL)]
}

// All yields every record in first-seen order. The sequence is
// restartable and lazy; callers may stop early.
func (s *Store) All() iter.Seq[VisitRecord] {
	return func(yield func(VisitRecord) bool) {
		for _, key := range s.order {
			if !yield(s.byKey[key]) {
				return
			}
		}
	}
}

// WithinWindow yields records whose last visit falls inside the lookback
// window [now-days, now]. Records without a visit time are excluded from
// any bounded window but included when days <= 0 (unlimited).
func (s *Store) WithinWindow(days int, now time.Time) iter.Seq[VisitRecord] {
	return func(yield func(VisitRecord) bool) {
		for _, key := range s.order {
			rec := s.byKey[key]
			if !InWindow(rec.LastVisit, days, now) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// InWindow reports whether a last-visit time falls inside the lookback
// window [now-days*24h, now]. days <= 0 means unlimited; an absent
// (zero) time is outside any bounded window. This is the single cutoff
// rule; the policy evaluator uses it too.
func InWindow(last time.Time, days int, now time.Time) bool {
	if days <= 0 {
		return true
	}
	if last.IsZero() {
		return false
	}
	return !last.Before(now.Add(-time.Duration(days) * 24 * time.Hour))
}

// Len returns the number of distinct URLs in the store.
func (s *Store) Len() int {
	return len(s.order)
}

// Normalize produces the store key for a URL: scheme and host lowercased,
// fragment dropped, query kept as part of the identity. Unparseable URLs
// normalize to themselves so a single bad entry never aborts a run.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
