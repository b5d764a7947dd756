package normalizer

import (
	"strings"

	"golang.org/x/net/html"
)

// Prune cleans the tree in place. The steps run in a fixed order:
// decorative nodes first, then redundant wrappers, then attributes.
func (n *Normalizer) Prune(doc *html.Node) {
	if doc == nil {
		return
	}
	n.removeDecorative(doc)
	n.collapseWrappers(doc)
	n.stripAttributes(doc)
}

func (n *Normalizer) isDecorative(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	_, ok := n.decorative[strings.ToLower(node.Data)]
	return ok
}

func (n *Normalizer) isWrapper(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	_, ok := n.wrappers[strings.ToLower(node.Data)]
	return ok
}

// removeDecorative deletes decorative elements and HTML comments, subtree included.
func (n *Normalizer) removeDecorative(root *html.Node) {
	var doomed []*html.Node

	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.CommentNode || n.isDecorative(node) {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)

	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// collapseWrappers unwraps wrapper chains: a wrapper whose only meaningful
// child is a wrapper of the same tag is replaced by that child's content,
// and the rest of the chain below it goes too. A wrapper with siblings or
// text beside its same-tag child is left alone.
func (n *Normalizer) collapseWrappers(root *html.Node) {
	for {
		chain := n.redundantWrappers(root)
		if len(chain) == 0 {
			return
		}
		for _, node := range chain {
			unwrap(node)
		}
	}
}

// redundantWrappers returns chain members in document order, parents
// before children.
func (n *Normalizer) redundantWrappers(root *html.Node) []*html.Node {
	marked := make(map[*html.Node]struct{})
	var out []*html.Node
	mark := func(node *html.Node) {
		if _, ok := marked[node]; ok {
			return
		}
		marked[node] = struct{}{}
		out = append(out, node)
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if n.isWrapper(node) {
			if c := onlyElementChild(node); c != nil && sameTag(node, c) {
				mark(node)
				mark(c)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return out
}

// onlyElementChild returns node's single element child when every other
// child is whitespace text.
func onlyElementChild(node *html.Node) *html.Node {
	var only *html.Node
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if only != nil {
				return nil
			}
			only = c
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		}
	}
	return only
}

func sameTag(a, b *html.Node) bool {
	return b.Type == html.ElementNode &&
		a.Namespace == b.Namespace &&
		strings.EqualFold(a.Data, b.Data)
}

// unwrap replaces node with its children.
func unwrap(node *html.Node) {
	parent := node.Parent
	if parent == nil {
		return
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		parent.InsertBefore(c, node)
		c = next
	}
	parent.RemoveChild(node)
}

func (n *Normalizer) stripAttributes(root *html.Node) {
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && len(node.Attr) > 0 {
			kept := node.Attr[:0]
			for _, attr := range node.Attr {
				if !n.isDeniedAttr(attr) {
					kept = append(kept, attr)
				}
			}
			node.Attr = kept
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func (n *Normalizer) isDeniedAttr(attr html.Attribute) bool {
	key := strings.ToLower(attr.Key)
	if strings.HasPrefix(key, reservedAttrPrefix) {
		return true
	}
	if attr.Namespace != "" {
		key = attr.Namespace + ":" + key
	}
	_, denied := n.denied[key]
	return denied
}
