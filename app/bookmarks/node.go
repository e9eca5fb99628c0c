// Package bookmarks models the bookmark hierarchy of a Chrome profile.
//
// The tree is immutable: Prune and the parser always build new nodes and
// never modify an existing tree, so every pipeline stage can hold onto a
// snapshot safely.
package bookmarks

import (
	"iter"
	"time"
)

// Node is a single entry in the bookmark tree: either a Folder or a
// Bookmark. The two cases are closed; Prune and the renderers switch
// exhaustively on them.
type Node interface {
	isNode()
}

// Folder is a named container of child nodes. Children keep the order
// the browser stored them in.
type Folder struct {
	Name     string
	Children []Node
}

// Bookmark is a leaf entry pointing at a URL.
type Bookmark struct {
	Name      string
	URL       string
	DateAdded time.Time
}

func (Folder) isNode()   {}
func (Bookmark) isNode() {}

// Flatten yields every bookmark under root in depth-first document order,
// together with the folder path leading to it. Folders with empty names
// (such as a synthetic root) contribute no path segment. The sequence is
// restartable: ranging over it twice produces the same order.
func Flatten(root Node) iter.Seq2[[]string, Bookmark] {
	return func(yield func([]string, Bookmark) bool) {
		walk(root, nil, yield)
	}
}

func walk(n Node, path []string, yield func([]string, Bookmark) bool) bool {
	switch v := n.(type) {
	case Bookmark:
		return yield(path, v)
	case Folder:
		child := path
		if v.Name != "" {
			// Full slice expression so sibling folders never share
			// backing array growth.
			child = append(path[:len(path):len(path)], v.Name)
		}
		for _, c := range v.Children {
			if !walk(c, child, yield) {
				return false
			}
		}
	}
	return true
}

// Prune returns a new tree containing only the bookmarks for which keep
// returns true. Folders left without any descendant bookmark are dropped
// entirely, nested empty ancestors included. Sibling order among the
// survivors is unchanged. The second return is false when nothing
// survives at all.
func Prune(n Node, keep func(Bookmark) bool) (Node, bool) {
	switch v := n.(type) {
	case Bookmark:
		if keep(v) {
			return v, true
		}
		return nil, false
	case Folder:
		var children []Node
		for _, c := range v.Children {
			if pruned, ok := Prune(c, keep); ok {
				children = append(children, pruned)
			}
		}
		if len(children) == 0 {
			return nil, false
		}
		return Folder{Name: v.Name, Children: children}, true
	}
	return nil, false
}

// Count returns the number of bookmarks in the tree.
func Count(n Node) int {
	total := 0
	for range Flatten(n) {
		total++
	}
	return total
}
