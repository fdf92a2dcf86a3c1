package extract

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hiddenElements are never laid out, so nothing under them is visible.
var hiddenElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Svg:      true,
}

// PageText is a Source over an HTML document.
type PageText struct {
	r io.Reader
}

// NewPageText returns a Source that reads the HTML document from r.
func NewPageText(r io.Reader) *PageText {
	return &PageText{r: r}
}

// Text returns the visible text of the document. A document with no visible
// text is a MissingInputError.
func (p *PageText) Text(_ context.Context) (string, error) {
	text, err := VisibleText(p.r)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", &MissingInputError{Input: "visible page text"}
	}
	return text, nil
}

// VisibleText parses an HTML document and joins its trimmed, non-empty
// visible text nodes with single spaces.
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if !visible(n) {
				return
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode, html.DoctypeNode:
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, " "), nil
}

// visible reports whether an element would be rendered, judging by its tag,
// the hidden attribute and its inline style.
func visible(n *html.Node) bool {
	if hiddenElements[n.DataAtom] {
		return false
	}

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return false
		case "style":
			if hiddenByStyle(attr.Val) {
				return false
			}
		}
	}
	return true
}

// hiddenByStyle inspects inline CSS declarations for display:none,
// visibility:hidden|collapse and a zero opacity.
func hiddenByStyle(style string) bool {
	for decl := range strings.SplitSeq(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))

		switch prop {
		case "display":
			if value == "none" {
				return true
			}
		case "visibility":
			if value == "hidden" || value == "collapse" {
				return true
			}
		case "opacity":
			if f, err := strconv.ParseFloat(value, 64); err == nil && f <= 0 {
				return true
			}
		}
	}
	return false
}
