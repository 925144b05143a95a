package mdcheck

import (
	"fmt"
	"strings"

	xhtml "golang.org/x/net/html"
)

// collectHTMLAnchors adds the id of every HTML element (and the name of
// every <a>) found in raw HTML to the anchor list.
func (w *walker) collectHTMLAnchors() error {
	if len(w.rawHTML) == 0 {
		return nil
	}

	document, err := xhtml.Parse(strings.NewReader(strings.Join(w.rawHTML, "\n")))
	if err != nil {
		return fmt.Errorf("failed to parse raw html: %w", err)
	}

	w.report.Anchors = append(w.report.Anchors, htmlAnchors(document)...)
	return nil
}

func htmlAnchors(node *xhtml.Node) []string {
	var anchors []string
	if node.Type == xhtml.ElementNode {
		for _, attr := range node.Attr {
			switch {
			case strings.EqualFold(attr.Key, "id"):
				anchors = append(anchors, attr.Val)
			case strings.EqualFold(attr.Key, "name") && strings.EqualFold(node.Data, "a"):
				anchors = append(anchors, attr.Val)
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		anchors = append(anchors, htmlAnchors(child)...)
	}
	return anchors
}
