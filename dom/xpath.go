package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// xpath computes an XPath-like location for n. Siblings sharing a tag get a
// 1-based index; a lone tag is left unindexed. Detached subtrees are
// located relative to their own root.
func xpath(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.DocumentNode:
		return "/"
	case html.TextNode:
		return parentPath(n) + "/text()"
	case html.CommentNode:
		return parentPath(n) + "/comment()"
	case html.DoctypeNode:
		return parentPath(n)
	}

	name := strings.ToLower(n.Data)
	if n.Parent == nil {
		return "/" + name
	}

	idx, total := 1, 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != n.Data {
			continue
		}
		total++
		if c == n {
			idx = total
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s/%s[%d]", parentPath(n), name, idx)
	}
	return parentPath(n) + "/" + name
}

func parentPath(n *html.Node) string {
	if n.Parent == nil || n.Parent.Type == html.DocumentNode {
		return ""
	}
	return xpath(n.Parent)
}
