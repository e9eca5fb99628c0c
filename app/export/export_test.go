package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vkuzmin/chromesift/app/aggregate"
	"github.com/vkuzmin/chromesift/app/bookmarks"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testTree() bookmarks.Node {
	return bookmarks.Folder{Children: []bookmarks.Node{
		bookmarks.Folder{Name: "Work", Children: []bookmarks.Node{
			bookmarks.Bookmark{Name: "GitHub", URL: "https://github.com/"},
			bookmarks.Bookmark{Name: "GitLab", URL: "https://gitlab.com/"},
		}},
		bookmarks.Folder{Name: "Personal", Children: []bookmarks.Node{
			bookmarks.Bookmark{Name: "News", URL: "https://news.example.com/"},
		}},
	}}
}

func TestNewPlan_PrunesToSelection(t *testing.T) {
	selected := map[string]bool{"https://github.com/": true}

	plan := NewPlan(testTree(), selected, nil)

	if plan.KeptCount() != 1 {
		t.Errorf("KeptCount = %d, want 1", plan.KeptCount())
	}
	if plan.DroppedCount() != 2 {
		t.Errorf("DroppedCount = %d, want 2", plan.DroppedCount())
	}

	// Personal lost its only bookmark, so it must not appear at all.
	rendered := Netscape(plan.Kept)
	if strings.Contains(rendered, "Personal") {
		t.Error("empty Personal folder leaked into the export")
	}
	if !strings.Contains(rendered, "Work") || !strings.Contains(rendered, "https://github.com/") {
		t.Errorf("export missing kept entries:\n%s", rendered)
	}
}

func TestNewPlan_ComplementMirrorsSelection(t *testing.T) {
	selected := map[string]bool{"https://github.com/": true}

	plan := NewPlan(testTree(), selected, nil)

	rendered := Netscape(plan.Dropped)
	for _, url := range []string{"https://gitlab.com/", "https://news.example.com/"} {
		if !strings.Contains(rendered, url) {
			t.Errorf("complement export missing %s", url)
		}
	}
	if strings.Contains(rendered, "https://github.com/\"") {
		t.Error("selected bookmark leaked into the complement export")
	}
}

func TestPlan_CountsMatchRenderedOutput(t *testing.T) {
	// The preview counts and the written file must come from the same
	// pruned tree: counting links in the rendered HTML has to agree
	// with KeptCount.
	selected := map[string]bool{
		"https://github.com/": true,
		"https://gitlab.com/": true,
	}
	plan := NewPlan(testTree(), selected, nil)

	rendered := Netscape(plan.Kept)
	links := strings.Count(rendered, "<DT><A HREF=")
	if links != plan.KeptCount() {
		t.Errorf("rendered %d links, preview counted %d", links, plan.KeptCount())
	}
}

func TestPlan_FolderCounts(t *testing.T) {
	selected := map[string]bool{
		"https://github.com/":       true,
		"https://news.example.com/": true,
	}
	plan := NewPlan(testTree(), selected, nil)

	kept, dropped := plan.FolderCounts()

	keptMap := make(map[string]int)
	for _, fc := range kept {
		keptMap[fc.Folder] = fc.Count
	}
	if keptMap["Work"] != 1 || keptMap["Personal"] != 1 {
		t.Errorf("kept folder counts = %v", keptMap)
	}

	if len(dropped) != 1 || dropped[0].Folder != "Work" || dropped[0].Count != 1 {
		t.Errorf("dropped folder counts = %v", dropped)
	}
}

func TestNetscape_NestingAndOrder(t *testing.T) {
	tree := bookmarks.Folder{Children: []bookmarks.Node{
		bookmarks.Folder{Name: "Outer", Children: []bookmarks.Node{
			bookmarks.Bookmark{Name: "first", URL: "https://one.com/"},
			bookmarks.Folder{Name: "Inner", Children: []bookmarks.Node{
				bookmarks.Bookmark{Name: "second", URL: "https://two.com/"},
			}},
			bookmarks.Bookmark{Name: "third", URL: "https://three.com/"},
		}},
	}}

	out := Netscape(tree)

	// Sibling order must survive rendering.
	iOne := strings.Index(out, "https://one.com/")
	iTwo := strings.Index(out, "https://two.com/")
	iThree := strings.Index(out, "https://three.com/")
	if !(iOne < iTwo && iTwo < iThree) {
		t.Errorf("bookmark order not preserved:\n%s", out)
	}

	// Inner folder opens after Outer and before its bookmark.
	iOuter := strings.Index(out, "<DT><H3>Outer</H3>")
	iInner := strings.Index(out, "<DT><H3>Inner</H3>")
	if !(iOuter < iInner && iInner < iTwo) {
		t.Errorf("folder nesting wrong:\n%s", out)
	}

	if !strings.HasPrefix(out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>") {
		t.Error("missing Netscape doctype")
	}
}

func TestNetscape_EscapesHTML(t *testing.T) {
	tree := bookmarks.Folder{Children: []bookmarks.Node{
		bookmarks.Bookmark{Name: "a <b> & c", URL: "https://x.com/?a=1&b=2"},
	}}

	out := Netscape(tree)
	if strings.Contains(out, "<b>") {
		t.Error("bookmark name not escaped")
	}
	if !strings.Contains(out, "a=1&amp;b=2") {
		t.Error("URL ampersand not escaped")
	}
}

func TestCSV(t *testing.T) {
	groups := []aggregate.Group{
		{Key: "github.com", TotalVisits: 40, LastVisit: now},
		{Key: "gitlab.com", TotalVisits: 2},
	}

	var buf bytes.Buffer
	if err := CSV(&buf, groups); err != nil {
		t.Fatalf("CSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "github.com" || rows[1][2] != "40" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][3] != "" {
		t.Errorf("absent last visit should render empty, got %q", rows[2][3])
	}
}

func TestJSON(t *testing.T) {
	groups := []aggregate.Group{
		{
			Key:         "a.com",
			Members:     []string{"https://a.com/x", "https://a.com/y"},
			TotalVisits: 8,
			LastVisit:   now,
		},
	}

	var buf bytes.Buffer
	if err := JSON(&buf, groups, now); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var doc struct {
		TotalEntries int `json:"total_entries"`
		Sites        []struct {
			Rank       int      `json:"rank"`
			Key        string   `json:"key"`
			URLs       []string `json:"urls"`
			VisitCount int      `json:"visit_count"`
		} `json:"sites"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.TotalEntries != 1 || len(doc.Sites) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	s := doc.Sites[0]
	if s.Rank != 1 || s.Key != "a.com" || s.VisitCount != 8 || len(s.URLs) != 2 {
		t.Errorf("site = %+v", s)
	}
}
