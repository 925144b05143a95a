// Package mdcheck parses generated Markdown back with a GFM parser and
// reports the structure a reader would see: headings, lists, tables, code
// fences, links and anchors.
package mdcheck

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Checker re-parses Markdown. It is safe for concurrent use.
type Checker struct {
	parser goldmark.Markdown
}

// Heading is an ATX or setext heading.
type Heading struct {
	Level  int
	Text   string
	Anchor string
}

// List is a bullet or ordered list. Depth counts enclosing lists.
type List struct {
	Ordered bool
	Marker  byte
	Start   int
	Items   int
	Tight   bool
	Depth   int
}

// Table is a GFM pipe table.
type Table struct {
	Columns int
	Rows    int
}

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	Fenced   bool
	Closed   bool
	Language string
	Content  string
}

// Link is an inline link, autolink or image destination.
type Link struct {
	Destination string
	Title       string
	Text        string
}

// Report is the structure found in one Markdown document.
type Report struct {
	Headings       []Heading
	Paragraphs     int
	BlockQuotes    int
	Alerts         []string
	ThematicBreaks int
	Lists          []List
	Tables         []Table
	CodeBlocks     []CodeBlock
	Links          []Link
	Images         []Link
	Anchors        []string
	Footnotes      int
	FootnoteRefs   int
}

// ProblemKind classifies a Problem.
type ProblemKind string

const (
	ProblemUnclosedFence ProblemKind = "unclosed_fence"
	ProblemBrokenAnchor  ProblemKind = "broken_anchor"
)

// Problem is a structural defect in rendered Markdown.
type Problem struct {
	Kind    ProblemKind
	Message string
}

// New creates a Checker using the GitHub Flavored Markdown extensions plus footnotes.
func New() *Checker {
	return &Checker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
		),
	}
}

// Inspect parses markdown and returns its structure.
func (c *Checker) Inspect(markdown []byte) (Report, error) {
	w := &walker{
		source:  markdown,
		anchors: map[string]int{},
	}

	root := c.parser.Parser().Parse(text.NewReader(markdown))
	if err := w.walk(root); err != nil {
		return Report{}, err
	}
	if err := w.collectHTMLAnchors(); err != nil {
		return Report{}, err
	}

	return w.report, nil
}

// Check inspects markdown and lists its problems.
func (c *Checker) Check(markdown []byte) ([]Problem, error) {
	report, err := c.Inspect(markdown)
	if err != nil {
		return nil, err
	}
	return report.Problems(), nil
}

// HasAnchor reports whether a same-document link to "#anchor" resolves.
func (r Report) HasAnchor(anchor string) bool {
	for _, candidate := range r.Anchors {
		if candidate == anchor {
			return true
		}
	}
	return false
}

// Problems lists unclosed code fences and same-document links whose anchor
// does not exist.
func (r Report) Problems() []Problem {
	var problems []Problem

	for index, block := range r.CodeBlocks {
		if block.Fenced && !block.Closed {
			problems = append(problems, Problem{
				Kind:    ProblemUnclosedFence,
				Message: fmt.Sprintf("code block %d is not closed", index),
			})
		}
	}

	for _, link := range r.Links {
		if len(link.Destination) < 2 || link.Destination[0] != '#' {
			continue
		}
		if !r.HasAnchor(link.Destination[1:]) {
			problems = append(problems, Problem{
				Kind:    ProblemBrokenAnchor,
				Message: fmt.Sprintf("link %q points to a missing anchor", link.Destination),
			})
		}
	}

	return problems
}
