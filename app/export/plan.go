// Package export renders a run's selection into output artifacts: a
// structure-preserving bookmark file, flat ranked tables, and a
// count-only preview.
package export

import (
	"strings"

	"github.com/vkuzmin/chromesift/app/aggregate"
	"github.com/vkuzmin/chromesift/app/bookmarks"
	"github.com/vkuzmin/chromesift/app/history"
)

// Plan is the fully-computed export: the pruned tree, its complement and
// the ranked groups. Both the writing mode and the count-only preview
// consume the same plan, so the selection logic cannot drift between a
// preview and the real run.
type Plan struct {
	// Kept is the original tree pruned to the selection; nil when no
	// bookmark was selected.
	Kept bookmarks.Node

	// Dropped is the complement tree: every bookmark outside the
	// selection, with the same folder structure. Nil when everything
	// was selected.
	Dropped bookmarks.Node

	// Groups is the ranked flat output.
	Groups []aggregate.Group
}

// NewPlan computes an export plan from the original tree, the selection
// set (normalized URLs) and the aggregated groups.
func NewPlan(root bookmarks.Node, selected map[string]bool, groups []aggregate.Group) Plan {
	inSelection := func(b bookmarks.Bookmark) bool {
		return selected[history.Normalize(b.URL)]
	}

	plan := Plan{Groups: groups}
	if kept, ok := bookmarks.Prune(root, inSelection); ok {
		plan.Kept = kept
	}
	if dropped, ok := bookmarks.Prune(root, func(b bookmarks.Bookmark) bool {
		return !inSelection(b)
	}); ok {
		plan.Dropped = dropped
	}
	return plan
}

// KeptCount returns the number of bookmarks the plan would export.
func (p Plan) KeptCount() int {
	if p.Kept == nil {
		return 0
	}
	return bookmarks.Count(p.Kept)
}

// DroppedCount returns the number of bookmarks the plan would discard.
func (p Plan) DroppedCount() int {
	if p.Dropped == nil {
		return 0
	}
	return bookmarks.Count(p.Dropped)
}

// FolderCount is the per-folder breakdown used by the preview mode.
type FolderCount struct {
	Folder string
	Count  int
}

// FolderCounts returns kept and dropped bookmark counts per folder path,
// each sorted by folder path.
func (p Plan) FolderCounts() (kept, dropped []FolderCount) {
	return countByFolder(p.Kept), countByFolder(p.Dropped)
}

func countByFolder(root bookmarks.Node) []FolderCount {
	if root == nil {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for path := range bookmarks.Flatten(root) {
		folder := strings.Join(path, "/")
		if _, ok := counts[folder]; !ok {
			order = append(order, folder)
		}
		counts[folder]++
	}
	out := make([]FolderCount, 0, len(order))
	for _, folder := range order {
		out = append(out, FolderCount{Folder: folder, Count: counts[folder]})
	}
	return out
}
