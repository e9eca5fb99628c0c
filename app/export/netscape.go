package export

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/vkuzmin/chromesift/app/bookmarks"
)

// Netscape renders a bookmark tree in the Netscape Bookmark File Format,
// the hierarchical HTML shape every browser's import dialog accepts.
// Folder nesting and sibling order follow the tree exactly.
func Netscape(root bookmarks.Node) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<!-- This is an automatically generated file. -->\n")
	b.WriteString("<!-- It will be read and overwritten. DO NOT EDIT! -->\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")
	if root != nil {
		writeNode(&b, root, 1)
	}
	b.WriteString("</DL><p>\n")
	return b.String()
}

// WriteNetscape writes the rendered bookmark file to w.
func WriteNetscape(w io.Writer, root bookmarks.Node) error {
	_, err := io.WriteString(w, Netscape(root))
	return err
}

func writeNode(b *strings.Builder, n bookmarks.Node, depth int) {
	indent := strings.Repeat("    ", depth)
	switch v := n.(type) {
	case bookmarks.Bookmark:
		if v.DateAdded.IsZero() {
			fmt.Fprintf(b, "%s<DT><A HREF=\"%s\">%s</A>\n",
				indent, html.EscapeString(v.URL), html.EscapeString(v.Name))
		} else {
			fmt.Fprintf(b, "%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
				indent, html.EscapeString(v.URL), v.DateAdded.Unix(), html.EscapeString(v.Name))
		}
	case bookmarks.Folder:
		if v.Name == "" {
			// Synthetic root: render children at the current level.
			for _, c := range v.Children {
				writeNode(b, c, depth)
			}
			return
		}
		fmt.Fprintf(b, "%s<DT><H3>%s</H3>\n", indent, html.EscapeString(v.Name))
		fmt.Fprintf(b, "%s<DL><p>\n", indent)
		for _, c := range v.Children {
			writeNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s</DL><p>\n", indent)
	}
}
