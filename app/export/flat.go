package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/vkuzmin/chromesift/app/aggregate"
)

const lastVisitLayout = "2006-01-02 15:04"

// CSV writes the ranked groups as tabular rows: rank, key, visit count,
// last visit. Rows arrive pre-sorted by the aggregator.
func CSV(w io.Writer, groups []aggregate.Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Rank", "Key", "Visit Count", "Last Visit"}); err != nil {
		return err
	}
	for i, g := range groups {
		last := ""
		if !g.LastVisit.IsZero() {
			last = g.LastVisit.Format(lastVisitLayout)
		}
		row := []string{
			strconv.Itoa(i + 1),
			g.Key,
			strconv.Itoa(g.TotalVisits),
			last,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonSite struct {
	Rank       int      `json:"rank"`
	Key        string   `json:"key"`
	URLs       []string `json:"urls,omitempty"`
	VisitCount int      `json:"visit_count"`
	LastVisit  string   `json:"last_visit,omitempty"`
}

type jsonDocument struct {
	ExportedAt   string     `json:"exported_at"`
	TotalEntries int        `json:"total_entries"`
	Sites        []jsonSite `json:"sites"`
}

// JSON writes the machine-readable form of the same ranked rows,
// including each group's member URLs.
func JSON(w io.Writer, groups []aggregate.Group, exportedAt time.Time) error {
	doc := jsonDocument{
		ExportedAt:   exportedAt.Format(time.RFC3339),
		TotalEntries: len(groups),
		Sites:        make([]jsonSite, 0, len(groups)),
	}
	for i, g := range groups {
		site := jsonSite{
			Rank:       i + 1,
			Key:        g.Key,
			VisitCount: g.TotalVisits,
		}
		// Only list members when the group actually folded URLs together.
		if len(g.Members) > 1 || (len(g.Members) == 1 && g.Members[0] != g.Key) {
			site.URLs = g.Members
		}
		if !g.LastVisit.IsZero() {
			site.LastVisit = g.LastVisit.Format(time.RFC3339)
		}
		doc.Sites = append(doc.Sites, site)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
