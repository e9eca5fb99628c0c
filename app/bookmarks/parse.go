package bookmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/vkuzmin/chromesift/app/chromium"
)

// ErrMalformedInput reports a Bookmarks file that could not be parsed.
// The analysis run aborts rather than silently working on partial data.
var ErrMalformedInput = errors.New("malformed bookmarks file")

// Chrome's well-known root keys, in the order the browser shows them.
// Unknown roots (future Chrome versions) are appended alphabetically.
var rootOrder = []string{"bookmark_bar", "other", "synced"}

type rawNode struct {
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	DateAdded string    `json:"date_added"`
	Children  []rawNode `json:"children"`
}

type rawFile struct {
	Roots map[string]rawNode `json:"roots"`
}

// Parse reads a Chrome Bookmarks file (JSON) into a tree. The returned
// node is a nameless folder whose children are the profile's roots
// (bookmark bar, other, synced), so folder paths start at the root names.
func Parse(r io.Reader) (Node, error) {
	var raw rawFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if raw.Roots == nil {
		return nil, fmt.Errorf("%w: missing roots object", ErrMalformedInput)
	}

	root := Folder{}
	for _, key := range orderedRoots(raw.Roots) {
		rn := raw.Roots[key]
		node, ok := convert(rn, key)
		if ok {
			root.Children = append(root.Children, node)
		}
	}
	return root, nil
}

func orderedRoots(roots map[string]rawNode) []string {
	keys := make([]string, 0, len(roots))
	for _, known := range rootOrder {
		if _, ok := roots[known]; ok {
			keys = append(keys, known)
		}
	}
	var rest []string
	for k := range roots {
		if !slices.Contains(rootOrder, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

// convert maps a raw Chrome node to a tree node. Root nodes carry no
// "type" but do carry children; fallbackName names them after their key.
func convert(rn rawNode, fallbackName string) (Node, bool) {
	switch {
	case rn.Type == "url":
		return Bookmark{
			Name:      rn.Name,
			URL:       rn.URL,
			DateAdded: parseDateAdded(rn.DateAdded),
		}, true
	case rn.Type == "folder" || rn.Children != nil:
		name := rn.Name
		if name == "" {
			name = fallbackName
		}
		f := Folder{Name: name}
		for _, c := range rn.Children {
			if node, ok := convert(c, ""); ok {
				f.Children = append(f.Children, node)
			}
		}
		return f, true
	}
	return nil, false
}

func parseDateAdded(s string) time.Time {
	micros, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return chromium.TimeFromWebkit(micros)
}
