// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vkuzmin/chromesift/app/aggregate"
	"github.com/vkuzmin/chromesift/app/bookmarks"
	"github.com/vkuzmin/chromesift/app/export"
	"github.com/vkuzmin/chromesift/app/history"
	"github.com/vkuzmin/chromesift/app/merge"
)

const lastVisitLayout = "2006-01-02 15:04"

// printer formats visit counts with thousands separators.
var printer = message.NewPrinter(language.English)

// Sites writes the ranked site table.
func Sites(w io.Writer, groups []aggregate.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No sites matched the selection.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSITE\tVISITS\tLAST VISIT")
	for i, g := range groups {
		last := "-"
		if !g.LastVisit.IsZero() {
			last = g.LastVisit.Format(lastVisitLayout)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			i+1, truncate(g.Key, 70), printer.Sprintf("%d", g.TotalVisits), last)
	}
	tw.Flush()
}

// Unused writes the unused-bookmark table: every bookmark of the tree
// whose URL is in the selection set, with its folder path.
func Unused(w io.Writer, root bookmarks.Node, selected map[string]bool, limit int) {
	type row struct {
		name, folder, url string
	}
	var rows []row
	total := 0
	for path, bm := range bookmarks.Flatten(root) {
		if !selected[history.Normalize(bm.URL)] {
			continue
		}
		total++
		// The limit caps the table, not the headline count.
		if limit > 0 && len(rows) == limit {
			continue
		}
		rows = append(rows, row{bm.Name, strings.Join(path, "/"), bm.URL})
	}

	fmt.Fprintf(w, "Found %d unused bookmarks\n\n", total)
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tFOLDER\tURL")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			i+1, truncate(r.name, 40), truncate(r.folder, 30), truncate(r.url, 60))
	}
	tw.Flush()
}

// ExportPreview writes the count-only breakdown of an export plan.
func ExportPreview(w io.Writer, plan export.Plan) {
	kept, dropped := plan.FolderCounts()

	fmt.Fprintln(w, "Bookmark export preview")
	fmt.Fprintln(w)

	if len(kept) > 0 {
		fmt.Fprintln(w, "To export:")
		writeFolderCounts(w, kept)
	}
	if len(dropped) > 0 {
		fmt.Fprintln(w, "To discard:")
		writeFolderCounts(w, dropped)
	}

	fmt.Fprintf(w, "Summary: export %d, discard %d, total %d bookmarks\n",
		plan.KeptCount(), plan.DroppedCount(), plan.KeptCount()+plan.DroppedCount())
	fmt.Fprintln(w, "Run without --count to write the export.")
}

func writeFolderCounts(w io.Writer, counts []export.FolderCount) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, fc := range counts {
		fmt.Fprintf(tw, "  %s\t%d\n", fc.Folder, fc.Count)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

// MergePlan writes the computed merge summary shown before commit.
func MergePlan(w io.Writer, sourceName, targetName string, diff merge.Diff) {
	fmt.Fprintln(w, "History merge plan")
	fmt.Fprintf(w, "  Source: %s\n", sourceName)
	fmt.Fprintf(w, "  Target: %s\n", targetName)
	fmt.Fprintf(w, "  New URLs: %s\n", printer.Sprintf("%d", diff.Inserted))
	fmt.Fprintf(w, "  URLs to update: %s\n", printer.Sprintf("%d", diff.Updated))
	fmt.Fprintf(w, "  Visits to add: %s\n", printer.Sprintf("%d", diff.VisitDelta))
}

// truncate shortens a display string to max runes. Cutting on rune
// boundaries keeps multibyte names valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
