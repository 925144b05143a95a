package converter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnresolvedInternalReferenceFails(t *testing.T) {
	root := doc(
		para(text("see "), Node{Kind: KindReference, Attrs: map[string]any{"refid": "missing-section"}, Children: []Node{text("there")}}),
	)

	result, err := newTestConverter(t, Config{}).ConvertTree(root, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
	assert.Equal(t, Result{}, result)

	var refErr *UnresolvedReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "missing-section", refErr.ID)
	assert.Equal(t, "document/paragraph[0]/reference[1]", refErr.Path)
	assert.Contains(t, err.Error(), "missing-section")
}

func TestFootnoteErrors(t *testing.T) {
	t.Run("reference to unknown footnote", func(t *testing.T) {
		root := doc(para(Node{Kind: KindFootnoteReference, Attrs: map[string]any{"refid": "nope"}}))
		_, err := newTestConverter(t, Config{}).ConvertTree(root, nil)
		assert.ErrorIs(t, err, ErrUnresolvedReference)
	})

	t.Run("reference without refid", func(t *testing.T) {
		root := doc(para(Node{Kind: KindFootnoteReference}))
		_, err := newTestConverter(t, Config{}).ConvertTree(root, nil)
		assert.ErrorIs(t, err, ErrMalformedTree)
	})

	t.Run("footnote without id", func(t *testing.T) {
		root := doc(Node{Kind: KindFootnote, Children: []Node{para(text("x"))}})
		_, err := newTestConverter(t, Config{}).ConvertTree(root, nil)
		assert.ErrorIs(t, err, ErrMalformedTree)
	})
}

func TestUnsupportedNodeKind(t *testing.T) {
	root := doc(para(text("a")), Node{Kind: KindBlockQuote, Children: []Node{{Kind: "sidebar"}}})

	result, err := newTestConverter(t, Config{}).ConvertTree(root, nil)
	require.Error(t, err)
	assert.Equal(t, Result{}, result)

	var kindErr *UnsupportedNodeKindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, NodeKind("sidebar"), kindErr.Kind)
	assert.Equal(t, "document/block-quote[1]/sidebar[0]", kindErr.Path)
	assert.ErrorIs(t, err, ErrUnsupportedNodeKind)
}

func TestMalformedTrees(t *testing.T) {
	cell := Node{Kind: KindTableCell, Text: "x"}
	tests := []struct {
		name string
		root Node
		path string
	}{
		{"cell outside row", doc(cell), "document/table-cell[0]"},
		{"row outside table", doc(Node{Kind: KindTableRow, Children: []Node{cell}}), "document/table-row[0]"},
		{"cell directly in table", doc(Node{Kind: KindTable, Children: []Node{cell}}), "document/table[0]/table-cell[0]"},
		{"paragraph in row", doc(Node{Kind: KindTable, Children: []Node{{Kind: KindTableRow, Children: []Node{para(text("x"))}}}}), "document/table[0]/table-row[0]/paragraph[0]"},
		{"paragraph in list", doc(Node{Kind: KindBulletList, Children: []Node{para(text("x"))}}), "document/bullet-list[0]/paragraph[0]"},
		{"list item at top level", doc(item(para(text("x")))), "document/list-item[0]"},
		{"block inside inline", doc(para(text("a"), para(text("b")))), "document/paragraph[0]/paragraph[1]"},
		{"nested document", doc(doc()), "document/document[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestConverter(t, Config{}).ConvertTree(tt.root, nil)
			require.Error(t, err)
			assert.Equal(t, Result{}, result)

			var treeErr *MalformedTreeError
			require.True(t, errors.As(err, &treeErr), "got %v", err)
			assert.Equal(t, tt.path, treeErr.Path)
			assert.ErrorIs(t, err, ErrMalformedTree)
		})
	}
}

func TestRootMustBeDocument(t *testing.T) {
	_, err := newTestConverter(t, Config{}).ConvertTree(para(text("x")), nil)
	assert.ErrorIs(t, err, ErrMalformedTree)
}

func TestTreeTooDeep(t *testing.T) {
	node := para(text("deep"))
	for i := 0; i < 20; i++ {
		node = Node{Kind: KindBlockQuote, Children: []Node{node}}
	}
	root := doc(node)

	_, err := newTestConverter(t, Config{MaxDepth: 10}).ConvertTree(root, nil)
	require.Error(t, err)

	var deepErr *TreeTooDeepError
	require.True(t, errors.As(err, &deepErr))
	assert.Equal(t, 10, deepErr.Limit)
	assert.ErrorIs(t, err, ErrTreeTooDeep)

	_, err = newTestConverter(t, Config{}).ConvertTree(root, nil)
	assert.NoError(t, err)
}

func TestTreeTooDeepDefaultLimit(t *testing.T) {
	node := text("leaf")
	for i := 0; i < DefaultMaxDepth+5; i++ {
		node = Node{Kind: KindEmphasis, Children: []Node{node}}
	}

	_, err := newTestConverter(t, Config{}).ConvertTree(doc(para(node)), nil)
	assert.ErrorIs(t, err, ErrTreeTooDeep)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestConverter(t, Config{}).ConvertWithContext(ctx, doc(para(text("x"))), nil, ConvertOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
