package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NodeKind identifies one variant of the closed set of document tree nodes.
type NodeKind string

const (
	KindDocument          NodeKind = "document"
	KindSection           NodeKind = "section"
	KindTitle             NodeKind = "title"
	KindParagraph         NodeKind = "paragraph"
	KindLiteralBlock      NodeKind = "literal-block"
	KindBulletList        NodeKind = "bullet-list"
	KindEnumeratedList    NodeKind = "enumerated-list"
	KindListItem          NodeKind = "list-item"
	KindDefinitionList    NodeKind = "definition-list"
	KindDefinitionItem    NodeKind = "definition-list-item"
	KindTerm              NodeKind = "term"
	KindDefinition        NodeKind = "definition"
	KindFieldList         NodeKind = "field-list"
	KindField             NodeKind = "field"
	KindFieldName         NodeKind = "field-name"
	KindFieldBody         NodeKind = "field-body"
	KindTable             NodeKind = "table"
	KindTableRow          NodeKind = "table-row"
	KindTableCell         NodeKind = "table-cell"
	KindBlockQuote        NodeKind = "block-quote"
	KindAdmonition        NodeKind = "admonition"
	KindTransition        NodeKind = "transition"
	KindComment           NodeKind = "comment"
	KindRaw               NodeKind = "raw"
	KindFootnote          NodeKind = "footnote"
	KindTarget            NodeKind = "target"
	KindText              NodeKind = "text"
	KindEmphasis          NodeKind = "inline-emphasis"
	KindStrong            NodeKind = "inline-strong"
	KindLiteral           NodeKind = "inline-literal"
	KindStrikethrough     NodeKind = "strikethrough"
	KindLineBreak         NodeKind = "line-break"
	KindReference         NodeKind = "reference"
	KindFootnoteReference NodeKind = "footnote-reference"
	KindImage             NodeKind = "image"
)

var knownKinds = map[NodeKind]bool{
	KindDocument: true, KindSection: true, KindTitle: true, KindParagraph: true,
	KindLiteralBlock: true, KindBulletList: true, KindEnumeratedList: true, KindListItem: true,
	KindDefinitionList: true, KindDefinitionItem: true, KindTerm: true, KindDefinition: true,
	KindFieldList: true, KindField: true, KindFieldName: true, KindFieldBody: true,
	KindTable: true, KindTableRow: true, KindTableCell: true, KindBlockQuote: true,
	KindAdmonition: true, KindTransition: true, KindComment: true, KindRaw: true,
	KindFootnote: true, KindTarget: true, KindText: true, KindEmphasis: true,
	KindStrong: true, KindLiteral: true, KindStrikethrough: true, KindLineBreak: true,
	KindReference: true, KindFootnoteReference: true, KindImage: true,
}

// Known reports whether k belongs to the closed set of supported kinds.
func (k NodeKind) Known() bool { return knownKinds[k] }

// IsInline reports whether k renders inside a line of text.
func (k NodeKind) IsInline() bool {
	switch k {
	case KindText, KindEmphasis, KindStrong, KindLiteral, KindStrikethrough,
		KindLineBreak, KindReference, KindFootnoteReference:
		return true
	default:
		return false
	}
}

// IsList reports whether k is one of the list container kinds.
func (k NodeKind) IsList() bool {
	return k == KindBulletList || k == KindEnumeratedList || k == KindFieldList
}

// Node represents any node in the document tree (section, paragraph, text, etc.).
type Node struct {
	Kind     NodeKind       `json:"kind" yaml:"kind"`
	Text     string         `json:"text,omitempty" yaml:"text,omitempty"`
	IDs      []string       `json:"ids,omitempty" yaml:"ids,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Children []Node         `json:"children,omitempty" yaml:"children,omitempty"`
}

// ID returns the first identifier of the node, or "" if it has none.
func (n Node) ID() string {
	if len(n.IDs) == 0 {
		return ""
	}
	return n.IDs[0]
}

// GetStringAttr returns a string attribute or the default value.
func (n Node) GetStringAttr(key, def string) string {
	switch v := n.Attrs[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return def
	}
}

// GetIntAttr returns an integer attribute or the default value.
// JSON decodes numbers as float64 and YAML as int, both are accepted.
func (n Node) GetIntAttr(key string, def int) int {
	switch v := n.Attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v != math.Trunc(v) {
			return def
		}
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

// GetBoolAttr returns a boolean attribute or the default value.
func (n Node) GetBoolAttr(key string, def bool) bool {
	switch v := n.Attrs[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// PlainText returns the concatenated text of the node and all its descendants.
func (n Node) PlainText() string {
	if len(n.Children) == 0 {
		return n.Text
	}
	var sb strings.Builder
	sb.WriteString(n.Text)
	for _, child := range n.Children {
		sb.WriteString(child.PlainText())
	}
	return sb.String()
}

// SectionNumbers maps a section id to its numeric label sequence, e.g. [2 3].
type SectionNumbers map[string][]int

// Label returns the dotted label of a section ("2.3"), or "" if it is not numbered.
func (sn SectionNumbers) Label(id string) string {
	nums, ok := sn[id]
	if !ok || len(nums) == 0 {
		return ""
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
