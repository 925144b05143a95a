package converter

import (
	"fmt"
	"strconv"
	"strings"
)

// listMemo remembers the last list rendered so that an adjacent list of the
// same kind can switch markers instead of merging with it.
type listMemo struct {
	kind  NodeKind
	depth int
	alt   bool
}

// maxOrdinal is the largest ordered list number Markdown accepts (nine digits).
const maxOrdinal = 999999999

var arabicEnumTypes = map[string]bool{"": true, "arabic": true}

// canInterruptParagraph reports whether a block can follow a paragraph line
// directly. Ordered lists qualify only when they start at 1.
func canInterruptParagraph(node Node) bool {
	switch node.Kind {
	case KindBulletList, KindFieldList:
		return len(node.Children) > 0
	case KindEnumeratedList:
		return len(node.Children) > 0 && node.GetIntAttr("start", 1) == 1
	default:
		return false
	}
}

// alternateList reports whether node directly follows a sibling list with
// the same marker family that used the primary marker.
func (s *state) alternateList(node Node) bool {
	family := markerFamily(node.Kind)
	return markerFamily(s.prevBlock.Kind) == family &&
		markerFamily(s.lastList.kind) == family &&
		s.lastList.depth == len(s.nodePath) &&
		!s.lastList.alt
}

// markerFamily groups list kinds that render with the same markers. Field
// lists are bullet lists in Markdown.
func markerFamily(kind NodeKind) NodeKind {
	if kind == KindFieldList {
		return KindBulletList
	}
	return kind
}

func (s *state) bulletMarker(alt bool) string {
	marker := s.config.BulletMarker
	if alt {
		if marker == '-' {
			marker = '*'
		} else {
			marker = '-'
		}
	}
	return string(marker) + " "
}

// convertList renders bullet and enumerated lists.
func (s *state) convertList(node Node) error {
	ordered := node.Kind == KindEnumeratedList
	alt := s.alternateList(node)

	start := 1
	delim := "."
	if ordered {
		start = node.GetIntAttr("start", 1)
		if last := start + max(len(node.Children)-1, 0); start < 0 || last > maxOrdinal {
			s.addWarning(WarningDegradedStyle, node.Kind, fmt.Sprintf("list numbers from %d out of range for %d items; using 1", start, len(node.Children)))
			start = 1
		}
		if enumType := node.GetStringAttr("enumtype", ""); !arabicEnumTypes[enumType] {
			s.addWarning(WarningDegradedStyle, node.Kind, fmt.Sprintf("enumeration style %q rendered as arabic numbers", enumType))
		}
		if alt {
			delim = ")"
		}
	}

	s.stack.push(Frame{Kind: FrameList, Ordered: ordered})
	for i, item := range node.Children {
		marker := s.bulletMarker(alt)
		if ordered {
			marker = strconv.Itoa(start+i) + delim + " "
		}
		if err := s.convertListItem(item, i, marker, start+i); err != nil {
			return err
		}
	}
	s.stack.pop()

	s.lastList = listMemo{kind: node.Kind, depth: len(s.nodePath), alt: alt}
	return nil
}

// convertListItem renders one item. Items follow each other without a blank
// line; blocks inside an item are separated by blank lines and aligned under
// the marker.
func (s *state) convertListItem(item Node, index int, marker string, ordinal int) error {
	if err := s.enter(item, index); err != nil {
		return err
	}
	defer s.leave()

	if item.Kind != KindListItem {
		return s.malformed("%s inside a list, expected %s", item.Kind, KindListItem)
	}

	if index > 0 {
		s.w.cancelBlank()
	}
	s.stack.startItem(marker)
	s.stack.top().Ordinal = ordinal

	if len(item.Children) == 0 && item.Text != "" {
		s.writeParagraph(EscapeText(item.Text))
	} else if err := s.convertBlocks(item.Children); err != nil {
		return err
	}
	s.flushEmptyItem()
	return nil
}

// flushEmptyItem writes the bare marker of an item that produced no output.
func (s *state) flushEmptyItem() {
	if top := s.stack.top(); top != nil && top.Kind == FrameList && top.markerPending {
		s.w.writeLine("")
	}
}

// convertFieldList renders a field list as a bullet list whose items start
// with the strong field name.
func (s *state) convertFieldList(node Node) error {
	alt := s.alternateList(node)
	marker := s.bulletMarker(alt)

	s.stack.push(Frame{Kind: FrameList})
	for i, field := range node.Children {
		if err := s.convertField(field, i, marker); err != nil {
			return err
		}
	}
	s.stack.pop()

	s.lastList = listMemo{kind: node.Kind, depth: len(s.nodePath), alt: alt}
	return nil
}

func (s *state) convertField(field Node, index int, marker string) error {
	if err := s.enter(field, index); err != nil {
		return err
	}
	defer s.leave()

	if field.Kind != KindField {
		return s.malformed("%s inside a field-list, expected %s", field.Kind, KindField)
	}

	var name string
	var body []Node
	for i, child := range field.Children {
		switch child.Kind {
		case KindFieldName:
			if err := s.enter(child, i); err != nil {
				return err
			}
			text, err := s.inlineContent(child)
			s.leave()
			if err != nil {
				return err
			}
			name = strings.Join(strings.Fields(text), " ")
		case KindFieldBody:
			body = append(body, child.Children...)
		default:
			if err := s.enter(child, i); err != nil {
				return err
			}
			err := s.malformed("%s inside a field", child.Kind)
			s.leave()
			return err
		}
	}

	if index > 0 {
		s.w.cancelBlank()
	}
	s.stack.startItem(marker)

	lead := "**" + name + "**:"
	if name == "" {
		lead = ""
	}
	if len(body) > 0 && body[0].Kind == KindParagraph && lead != "" {
		s.w.setLead(lead + " ")
	} else if lead != "" {
		s.w.writeLine(lead)
		s.w.requestBlank()
	}
	if err := s.convertBlocks(body); err != nil {
		return err
	}
	if pending := s.w.takeLead(); pending != "" {
		s.w.writeLine(strings.TrimSpace(pending))
	}
	s.flushEmptyItem()
	return nil
}

// convertDefinitionList renders each term as a strong paragraph followed by
// its definition blocks.
func (s *state) convertDefinitionList(node Node) error {
	wrote := false
	for i, item := range node.Children {
		if err := s.enter(item, i); err != nil {
			return err
		}
		if item.Kind != KindDefinitionItem {
			err := s.malformed("%s inside a definition-list, expected %s", item.Kind, KindDefinitionItem)
			s.leave()
			return err
		}
		before := s.w.lines
		if wrote {
			s.w.requestBlank()
		}
		err := s.convertDefinitionItem(item)
		s.leave()
		if err != nil {
			return err
		}
		if s.w.lines > before {
			wrote = true
		}
	}
	return nil
}

func (s *state) convertDefinitionItem(item Node) error {
	for i, child := range item.Children {
		if err := s.enter(child, i); err != nil {
			return err
		}
		var err error
		switch child.Kind {
		case KindTerm:
			var text string
			text, err = s.inlineContent(child)
			if err == nil {
				if text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " ")); text != "" {
					s.writeParagraph("**" + text + "**")
				}
			}
		case KindDefinition:
			s.w.requestBlank()
			err = s.convertBlocks(child.Children)
		default:
			err = s.malformed("%s inside a definition-list-item", child.Kind)
		}
		s.leave()
		if err != nil {
			return err
		}
	}
	return nil
}
