// Package usage joins the bookmark tree with the visit store into one
// record per distinct URL, the unit the selection policy works on.
package usage

import (
	"net/url"
	"strings"
	"time"

	"github.com/vkuzmin/chromesift/app/bookmarks"
	"github.com/vkuzmin/chromesift/app/history"
)

// Record is the correlated view of a single URL: what the bookmark tree
// knows about it plus what the history store knows about it. Records are
// immutable once produced.
type Record struct {
	// Bookmark is the first bookmark carrying this URL, nil for
	// history-only URLs.
	Bookmark *bookmarks.Bookmark

	// URL is the normalized form (see history.Normalize).
	URL string

	Domain       string
	VisitCount   int
	LastVisit    time.Time
	IsBookmarked bool
}

// Correlate produces one record per distinct normalized URL present in
// either the bookmark tree or the history store. Bookmarked URLs come
// first in tree order, then history-only URLs in store order. A bookmark
// with no history record gets a zero count and an absent last visit.
func Correlate(root bookmarks.Node, store *history.Store) []Record {
	var records []Record
	seen := make(map[string]bool)

	for _, bm := range bookmarks.Flatten(root) {
		key := history.Normalize(bm.URL)
		if seen[key] {
			continue
		}
		seen[key] = true

		rec := Record{
			Bookmark:     &bm,
			URL:          key,
			Domain:       Domain(key),
			IsBookmarked: true,
		}
		if visit, ok := store.Lookup(key); ok {
			rec.VisitCount = visit.VisitCount
			rec.LastVisit = visit.LastVisit
		}
		records = append(records, rec)
	}

	for visit := range store.All() {
		key := history.Normalize(visit.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, Record{
			URL:        key,
			Domain:     Domain(key),
			VisitCount: visit.VisitCount,
			LastVisit:  visit.LastVisit,
		})
	}

	return records
}

// Domain derives the grouping domain for a URL: the lowercase host with
// any default port stripped. Malformed URLs yield the raw string so a
// single bad entry degrades to its own group instead of failing the run.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Host)
	if p := u.Port(); p != "" {
		if (u.Scheme == "http" && p == "80") || (u.Scheme == "https" && p == "443") {
			host = strings.ToLower(u.Hostname())
		}
	}
	return host
}
