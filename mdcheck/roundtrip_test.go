package mdcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rgonek/docutils-md-converter/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textNode(s string) converter.Node {
	return converter.Node{Kind: converter.KindText, Text: s}
}

func para(children ...converter.Node) converter.Node {
	return converter.Node{Kind: converter.KindParagraph, Children: children}
}

func item(children ...converter.Node) converter.Node {
	return converter.Node{Kind: converter.KindListItem, Children: children}
}

func list(kind converter.NodeKind, items ...converter.Node) converter.Node {
	return converter.Node{Kind: kind, Children: items}
}

func section(id, title string, children ...converter.Node) converter.Node {
	head := converter.Node{Kind: converter.KindTitle, Children: []converter.Node{textNode(title)}}
	return converter.Node{Kind: converter.KindSection, IDs: []string{id}, Children: append([]converter.Node{head}, children...)}
}

func ref(id, label string) converter.Node {
	return converter.Node{Kind: converter.KindReference, Attrs: map[string]any{"refid": id}, Children: []converter.Node{textNode(label)}}
}

func render(t *testing.T, cfg converter.Config, children ...converter.Node) Report {
	t.Helper()

	conv, err := converter.New(cfg)
	require.NoError(t, err)

	result, err := conv.ConvertTree(converter.Node{Kind: converter.KindDocument, Children: children}, nil)
	require.NoError(t, err)

	report, err := New().Inspect([]byte(result.Markdown))
	require.NoError(t, err)
	assert.Empty(t, report.Problems(), "markdown:\n%s", result.Markdown)
	return report
}

func TestRoundTripLiteralBlockKeepsContent(t *testing.T) {
	contents := []string{
		"plain",
		"a\n```\nb",
		"````` five",
		"~~~\ntilde",
		"  indented\n\n  after blank",
	}

	for _, content := range contents {
		t.Run(content, func(t *testing.T) {
			report := render(t, converter.Config{}, converter.Node{
				Kind:  converter.KindLiteralBlock,
				Text:  content,
				Attrs: map[string]any{"language": "text"},
			})

			require.Len(t, report.CodeBlocks, 1)
			assert.True(t, report.CodeBlocks[0].Closed)
			assert.Equal(t, "text", report.CodeBlocks[0].Language)
			assert.Equal(t, content+"\n", report.CodeBlocks[0].Content)
		})
	}
}

func TestRoundTripLiteralBlockInsideListAndQuote(t *testing.T) {
	block := converter.Node{Kind: converter.KindLiteralBlock, Text: "x := 1\n```"}
	report := render(t, converter.Config{},
		converter.Node{Kind: converter.KindBlockQuote, Children: []converter.Node{
			list(converter.KindBulletList, item(para(textNode("code:")), block)),
		}},
	)

	require.Len(t, report.CodeBlocks, 1)
	assert.True(t, report.CodeBlocks[0].Closed)
	assert.Equal(t, "x := 1\n```\n", report.CodeBlocks[0].Content)
	require.Len(t, report.Lists, 1)
	assert.Equal(t, 1, report.Lists[0].Items)
}

func TestRoundTripNestedLists(t *testing.T) {
	report := render(t, converter.Config{},
		list(converter.KindBulletList,
			item(para(textNode("a"))),
			item(
				para(textNode("b")),
				list(converter.KindEnumeratedList,
					item(para(textNode("x"))),
					item(para(textNode("y")), list(converter.KindBulletList, item(para(textNode("deep"))))),
				),
			),
		),
	)

	require.Len(t, report.Lists, 3)
	assert.Equal(t, 2, report.Lists[0].Items)
	assert.Equal(t, 0, report.Lists[0].Depth)
	assert.True(t, report.Lists[1].Ordered)
	assert.Equal(t, 2, report.Lists[1].Items)
	assert.Equal(t, 1, report.Lists[1].Depth)
	assert.Equal(t, 1, report.Lists[2].Items)
	assert.Equal(t, 2, report.Lists[2].Depth)
}

func TestRoundTripSiblingListsStaySeparate(t *testing.T) {
	report := render(t, converter.Config{},
		list(converter.KindBulletList, item(para(textNode("a"))), item(para(textNode("b")))),
		list(converter.KindBulletList, item(para(textNode("c")))),
		list(converter.KindEnumeratedList, item(para(textNode("one")))),
		list(converter.KindEnumeratedList, item(para(textNode("uno")))),
	)

	require.Len(t, report.Lists, 4)
	assert.Equal(t, []int{2, 1, 1, 1}, []int{report.Lists[0].Items, report.Lists[1].Items, report.Lists[2].Items, report.Lists[3].Items})
	assert.NotEqual(t, report.Lists[0].Marker, report.Lists[1].Marker)
	assert.NotEqual(t, report.Lists[2].Marker, report.Lists[3].Marker)
}

func TestRoundTripTableColumns(t *testing.T) {
	cell := func(s string) converter.Node {
		return converter.Node{Kind: converter.KindTableCell, Children: []converter.Node{para(textNode(s))}}
	}
	row := func(cells ...converter.Node) converter.Node {
		return converter.Node{Kind: converter.KindTableRow, Children: cells}
	}

	report := render(t, converter.Config{},
		converter.Node{Kind: converter.KindTable, Children: []converter.Node{
			row(cell("a"), cell("b|c")),
			row(cell("1"), cell("2"), cell("3")),
			row(cell("only")),
		}},
	)

	require.Len(t, report.Tables, 1)
	assert.Equal(t, 3, report.Tables[0].Columns)
}

func TestRoundTripInternalReferencesResolve(t *testing.T) {
	report := render(t, converter.Config{},
		section("intro", "Intro", para(ref("intro-again", "second"), textNode(" "), ref("anchor", "target"))),
		section("intro-again", "Intro",
			converter.Node{Kind: converter.KindTarget, IDs: []string{"anchor"}},
			para(textNode("body")),
		),
	)

	require.Len(t, report.Headings, 2)
	assert.Equal(t, "intro-1", report.Headings[1].Anchor)
	assert.True(t, report.HasAnchor("anchor"))
}

func TestRoundTripDocumentTitleSharesSectionText(t *testing.T) {
	report := render(t, converter.Config{},
		converter.Node{Kind: converter.KindTitle, Text: "Guide"},
		para(ref("s1", "go")),
		section("s1", "Guide", para(textNode("body"))),
	)

	require.Len(t, report.Headings, 2)
	assert.Equal(t, "guide", report.Headings[0].Anchor)
	assert.Equal(t, "guide-1", report.Headings[1].Anchor)
	require.Len(t, report.Links, 1)
	assert.Equal(t, "#guide-1", report.Links[0].Destination)
}

func TestRoundTripAnchorlessTargetLeavesNoLink(t *testing.T) {
	report := render(t, converter.Config{TargetAnchors: converter.TargetAnchorNone},
		converter.Node{Kind: converter.KindTarget, IDs: []string{"here"}},
		para(ref("here", "go")),
	)

	assert.Empty(t, report.Links)
	assert.Equal(t, 1, report.Paragraphs)
}

func TestRoundTripFieldListBesideBulletList(t *testing.T) {
	field := converter.Node{Kind: converter.KindFieldList, Children: []converter.Node{
		{Kind: converter.KindField, Children: []converter.Node{
			{Kind: converter.KindFieldName, Text: "name"},
			{Kind: converter.KindFieldBody, Children: []converter.Node{para(textNode("v"))}},
		}},
	}}
	bullets := list(converter.KindBulletList, item(para(textNode("a"))), item(para(textNode("b"))))

	tests := []struct {
		name   string
		blocks []converter.Node
		items  []int
	}{
		{name: "field list first", blocks: []converter.Node{field, bullets}, items: []int{1, 2}},
		{name: "bullet list first", blocks: []converter.Node{bullets, field}, items: []int{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := render(t, converter.Config{}, tt.blocks...)

			require.Len(t, report.Lists, 2)
			assert.Equal(t, tt.items, []int{report.Lists[0].Items, report.Lists[1].Items})
		})
	}
}

func TestRoundTripOrdinalsStayWithinNineDigits(t *testing.T) {
	report := render(t, converter.Config{}, converter.Node{
		Kind:     converter.KindEnumeratedList,
		Attrs:    map[string]any{"start": 999999999},
		Children: []converter.Node{item(para(textNode("x"))), item(para(textNode("y")))},
	})

	require.Len(t, report.Lists, 1)
	assert.Equal(t, 2, report.Lists[0].Items)
}

func TestRoundTripAdmonitionAndFootnote(t *testing.T) {
	report := render(t, converter.Config{},
		converter.Node{Kind: converter.KindAdmonition, Attrs: map[string]any{"type": "warning"}, Children: []converter.Node{para(textNode("careful"))}},
		para(textNode("see"), converter.Node{Kind: converter.KindFootnoteReference, Attrs: map[string]any{"refid": "n1"}}),
		converter.Node{Kind: converter.KindFootnote, IDs: []string{"n1"}, Children: []converter.Node{para(textNode("the note"))}},
	)

	assert.Equal(t, []string{"WARNING"}, report.Alerts)
	assert.Equal(t, 1, report.Footnotes)
	assert.Equal(t, 1, report.FootnoteRefs)
}

func TestGoldenOutputsHaveNoProblems(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "converter", "testdata", "*.md"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	checker := New()
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".md"), func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			problems, err := checker.Check(data)
			require.NoError(t, err)
			assert.Empty(t, problems)
		})
	}
}
