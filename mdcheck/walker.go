package mdcheck

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rgonek/docutils-md-converter/converter"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type walker struct {
	source    []byte
	report    Report
	anchors   map[string]int
	rawHTML   []string
	listDepth int
	// fenceCursor is the offset just past the last fenced code block.
	fenceCursor int
}

func (w *walker) walk(root ast.Node) error {
	return ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if list, ok := node.(*ast.List); ok {
			if !entering {
				w.listDepth--
				return ast.WalkContinue, nil
			}
			w.addList(list)
			w.listDepth++
			return ast.WalkContinue, nil
		}
		if !entering {
			return ast.WalkContinue, nil
		}

		switch typed := node.(type) {
		case *ast.Heading:
			w.addHeading(typed)
		case *ast.Paragraph:
			w.report.Paragraphs++
		case *ast.Blockquote:
			w.report.BlockQuotes++
			if kind, ok := w.alertKind(typed); ok {
				w.report.Alerts = append(w.report.Alerts, kind)
			}
		case *ast.ThematicBreak:
			w.report.ThematicBreaks++
		case *ast.FencedCodeBlock:
			w.report.CodeBlocks = append(w.report.CodeBlocks, CodeBlock{
				Fenced:   true,
				Closed:   w.fenceClosed(typed),
				Language: string(typed.Language(w.source)),
				Content:  w.linesText(typed.Lines().Len(), typed.Lines().At),
			})
		case *ast.CodeBlock:
			w.report.CodeBlocks = append(w.report.CodeBlocks, CodeBlock{
				Content: w.linesText(typed.Lines().Len(), typed.Lines().At),
			})
		case *extast.Table:
			w.addTable(typed)
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			w.report.Links = append(w.report.Links, Link{
				Destination: string(typed.Destination),
				Title:       string(typed.Title),
				Text:        w.plainText(typed),
			})
		case *ast.AutoLink:
			url := string(typed.URL(w.source))
			w.report.Links = append(w.report.Links, Link{Destination: url, Text: url})
		case *ast.Image:
			w.report.Images = append(w.report.Images, Link{
				Destination: string(typed.Destination),
				Title:       string(typed.Title),
				Text:        w.plainText(typed),
			})
		case *ast.RawHTML:
			w.rawHTML = append(w.rawHTML, w.linesText(typed.Segments.Len(), typed.Segments.At))
		case *ast.HTMLBlock:
			w.rawHTML = append(w.rawHTML, w.linesText(typed.Lines().Len(), typed.Lines().At))
		case *extast.Footnote:
			w.report.Footnotes++
		case *extast.FootnoteLink:
			w.report.FootnoteRefs++
		}

		return ast.WalkContinue, nil
	})
}

func (w *walker) addHeading(node *ast.Heading) {
	title := w.plainText(node)
	anchor := w.uniqueAnchor(converter.Slugify(title))
	w.report.Headings = append(w.report.Headings, Heading{
		Level:  node.Level,
		Text:   title,
		Anchor: anchor,
	})
	w.report.Anchors = append(w.report.Anchors, anchor)
}

// uniqueAnchor suffixes repeated slugs with -1, -2 in document order,
// skipping suffixed forms already taken by another heading.
func (w *walker) uniqueAnchor(slug string) string {
	result := slug
	for {
		if _, taken := w.anchors[result]; !taken {
			break
		}
		w.anchors[slug]++
		result = slug + "-" + strconv.Itoa(w.anchors[slug])
	}
	w.anchors[result] = 0
	return result
}

func (w *walker) addList(node *ast.List) {
	items := 0
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if _, ok := child.(*ast.ListItem); ok {
			items++
		}
	}

	w.report.Lists = append(w.report.Lists, List{
		Ordered: node.IsOrdered(),
		Marker:  node.Marker,
		Start:   node.Start,
		Items:   items,
		Tight:   node.IsTight,
		Depth:   w.listDepth,
	})
}

func (w *walker) addTable(node *extast.Table) {
	table := Table{Columns: len(node.Alignments)}
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*extast.TableRow); ok {
			table.Rows++
		}
	}
	w.report.Tables = append(w.report.Tables, table)

	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch typed := child.(type) {
		case *ast.Link:
			w.report.Links = append(w.report.Links, Link{
				Destination: string(typed.Destination),
				Title:       string(typed.Title),
				Text:        w.plainText(typed),
			})
		case *ast.RawHTML:
			w.rawHTML = append(w.rawHTML, w.linesText(typed.Segments.Len(), typed.Segments.At))
		}
		return ast.WalkContinue, nil
	})
}

// alertKind detects GitHub alerts: a block quote whose first line is "[!KIND]".
func (w *walker) alertKind(node *ast.Blockquote) (string, bool) {
	first, ok := node.FirstChild().(*ast.Paragraph)
	if !ok || first.Lines().Len() == 0 {
		return "", false
	}

	seg := first.Lines().At(0)
	line := strings.TrimSpace(string(seg.Value(w.source)))
	if !strings.HasPrefix(line, "[!") || !strings.HasSuffix(line, "]") {
		return "", false
	}
	return line[2 : len(line)-1], true
}

// fenceClosed reports whether the line after the block content closes the
// fence: same character, at least as long as the opening run. A fence left
// open runs to the end of its container instead.
func (w *walker) fenceClosed(node *ast.FencedCodeBlock) bool {
	open, ok := w.openingFence(node)
	if !ok {
		return false
	}
	char, size, _ := fenceRun(lineAt(w.source, open), openingPrefix)

	pos := nextLine(w.source, open)
	if node.Lines().Len() > 0 {
		pos = node.Lines().At(node.Lines().Len() - 1).Stop
		if pos > 0 && w.source[pos-1] != '\n' {
			pos = nextLine(w.source, pos)
		}
	}
	w.fenceCursor = pos
	if pos >= len(w.source) {
		return false
	}

	closeChar, closeSize, rest := fenceRun(lineAt(w.source, pos), closingPrefix)
	if closeChar != char || closeSize < size || len(bytes.TrimSpace(rest)) > 0 {
		return false
	}
	w.fenceCursor = nextLine(w.source, pos)
	return true
}

// openingFence returns the offset of the line that opens node. An empty
// fence without info string carries no position, so it is the next bare
// fence line after the previous code block.
func (w *walker) openingFence(node *ast.FencedCodeBlock) (int, bool) {
	switch {
	case node.Info != nil:
		return lineStart(w.source, node.Info.Segment.Start), true
	case node.Lines().Len() > 0:
		start := lineStart(w.source, node.Lines().At(0).Start)
		if start == 0 {
			return 0, false
		}
		return lineStart(w.source, start-1), true
	}

	for pos := w.fenceCursor; pos < len(w.source); pos = nextLine(w.source, pos) {
		_, size, rest := fenceRun(lineAt(w.source, pos), openingPrefix)
		if size >= 3 && len(bytes.TrimSpace(rest)) == 0 {
			return pos, true
		}
	}
	return 0, false
}

// An opening fence may share its line with block quote and list markers, a
// closing fence only with block quote markers and indentation.
const (
	openingPrefix = " \t>-*+.)0123456789"
	closingPrefix = " \t>"
)

// fenceRun strips the container prefix from line and splits off a leading
// run of backticks or tildes.
func fenceRun(line []byte, prefix string) (byte, int, []byte) {
	line = bytes.TrimLeft(line, prefix)
	if len(line) == 0 || (line[0] != '`' && line[0] != '~') {
		return 0, 0, line
	}
	size := 0
	for size < len(line) && line[size] == line[0] {
		size++
	}
	return line[0], size, line[size:]
}

func lineStart(source []byte, pos int) int {
	return bytes.LastIndexByte(source[:pos], '\n') + 1
}

func nextLine(source []byte, pos int) int {
	i := bytes.IndexByte(source[pos:], '\n')
	if i < 0 {
		return len(source)
	}
	return pos + i + 1
}

func lineAt(source []byte, pos int) []byte {
	return bytes.TrimRight(source[pos:nextLine(source, pos)], "\r\n")
}

func (w *walker) plainText(node ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch typed := child.(type) {
		case *ast.Text:
			sb.Write(util.UnescapePunctuations(typed.Segment.Value(w.source)))
			if typed.SoftLineBreak() || typed.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(typed.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func (w *walker) linesText(count int, at func(int) text.Segment) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		seg := at(i)
		sb.Write(seg.Value(w.source))
	}
	return sb.String()
}
