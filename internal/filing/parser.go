package filing

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Parse reads the primary document's HTML and flattens it into a
// document-ordered node list. Heading tags and bold-only short paragraphs
// classify as titles; tables become single Table nodes carrying their text
// for boundary scanning only.
func Parse(r io.Reader, identity Identity) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{Identity: identity}
	body := findBody(root)
	if body == nil {
		body = root
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case headingLevel(n.Data) > 0:
				level := headingLevel(n.Data)
				appendTitle(doc, textContent(n), anchorAttr(n), level)
				return
			case n.Data == "table":
				if t := textContent(n); t != "" {
					doc.Nodes = append(doc.Nodes, Node{Kind: KindTable, Text: t})
				}
				return
			case n.Data == "script" || n.Data == "style" || n.Data == "head":
				return
			case n.Data == "p" || n.Data == "div" || n.Data == "li" || n.Data == "blockquote":
				// Only emit when the element holds direct prose; otherwise
				// keep descending so nested blocks are seen individually.
				if !hasBlockChildren(n) {
					emitBlock(doc, n)
					return
				}
			case n.Data == "hr":
				doc.Nodes = append(doc.Nodes, Node{Kind: KindPageArtifact})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)

	return doc, nil
}

// emitBlock classifies one leaf block element into a node.
func emitBlock(doc *Document, n *html.Node) {
	text := textContent(n)
	if text == "" {
		// Anchor-only elements still matter: EDGAR marks section starts
		// with empty <a name="item1a"> style targets, which attach to the
		// next emitted node.
		if a := anchorAttr(n); a != "" {
			doc.pendingAnchor = a
		}
		return
	}

	anchor := anchorAttr(n)
	if anchor == "" && doc.pendingAnchor != "" {
		anchor = doc.pendingAnchor
	}
	doc.pendingAnchor = ""

	if isStyledTitle(n, text) {
		appendTitleNode(doc, text, anchor)
		return
	}
	doc.Nodes = append(doc.Nodes, Node{Kind: KindParagraph, Text: text, Identifier: anchor})
}

func appendTitle(doc *Document, text, anchor string, level int) {
	if text == "" {
		if anchor != "" {
			doc.pendingAnchor = anchor
		}
		return
	}
	if anchor == "" && doc.pendingAnchor != "" {
		anchor = doc.pendingAnchor
	}
	doc.pendingAnchor = ""

	kind := KindTitleSubItem
	if level <= 2 {
		kind = KindTitleTopLevel
	}
	doc.Nodes = append(doc.Nodes, Node{Kind: kind, Text: text, Identifier: anchor, Level: level})
}

// appendTitleNode classifies a styling-only header (no hN tag). Item lines
// become sub-item titles; PART headers are top-level.
func appendTitleNode(doc *Document, text, anchor string) {
	kind := KindTitleSubItem
	level := 3
	if partHeaderRe.MatchString(strings.TrimSpace(text)) {
		kind = KindTitleTopLevel
		level = 2
	}
	doc.Nodes = append(doc.Nodes, Node{Kind: kind, Text: text, Identifier: anchor, Level: level})
}

var partHeaderRe = regexp.MustCompile(`(?i)^part\s+[ivx]+\b`)

// isStyledTitle detects headers that are signaled purely by styling: a short
// block whose entire text sits inside <b>/<strong> or a bold font style.
func isStyledTitle(n *html.Node, text string) bool {
	if len(text) > 200 || strings.Count(text, ".") > 3 {
		return false
	}
	if boldTextLen(n) < len(text)-2 {
		return false
	}
	return true
}

// boldTextLen counts text characters under bold markup within n.
func boldTextLen(n *html.Node) int {
	total := 0
	var visit func(n *html.Node, bold bool)
	visit = func(n *html.Node, bold bool) {
		if n.Type == html.ElementNode {
			if n.Data == "b" || n.Data == "strong" {
				bold = true
			}
			if styleIsBold(n) {
				bold = true
			}
		}
		if n.Type == html.TextNode && bold {
			total += len(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, bold)
		}
	}
	visit(n, styleIsBold(n))
	return total
}

func styleIsBold(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "style" {
			s := strings.ToLower(a.Val)
			if strings.Contains(s, "font-weight:bold") ||
				strings.Contains(s, "font-weight: bold") ||
				strings.Contains(s, "font-weight:700") {
				return true
			}
		}
	}
	return false
}

// headingLevel returns 1-6 for h1-h6 tags and 0 for anything else.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// hasBlockChildren reports whether n contains nested block-level elements.
func hasBlockChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "p", "div", "table", "ul", "ol", "blockquote",
			"h1", "h2", "h3", "h4", "h5", "h6":
			return true
		}
	}
	return false
}

// anchorAttr returns the element's id or name attribute, checking nested
// anchor tags one level down, since EDGAR wraps targets either way.
func anchorAttr(n *html.Node) string {
	if v := attr(n, "id"); v != "" {
		return v
	}
	if v := attr(n, "name"); v != "" {
		return v
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "a" {
			if v := attr(c, "id"); v != "" {
				return v
			}
			if v := attr(c, "name"); v != "" {
				return v
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
