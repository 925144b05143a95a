package converter

import (
	"fmt"
	"strings"
)

// inlineContent renders the inline children of node, or its escaped Text
// when it has none.
func (s *state) inlineContent(node Node) (string, error) {
	if len(node.Children) == 0 {
		return EscapeText(node.Text), nil
	}
	return s.convertInlines(node.Children)
}

// convertInlines renders a run of inline siblings. Adjacent emphasis or
// strong siblings alternate delimiter characters so that "*a**b*" cannot
// occur.
func (s *state) convertInlines(children []Node) (string, error) {
	var sb strings.Builder
	alt := false
	for i, child := range children {
		if i > 0 && child.Kind == children[i-1].Kind && (child.Kind == KindEmphasis || child.Kind == KindStrong) {
			alt = !alt
		} else {
			alt = false
		}

		if err := s.enter(child, i); err != nil {
			return "", err
		}
		out, err := s.convertInline(child, alt)
		s.leave()
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// convertInline dispatches an inline node to its handler.
func (s *state) convertInline(node Node, alt bool) (string, error) {
	switch node.Kind {
	case KindText:
		return EscapeText(node.Text), nil
	case KindEmphasis:
		delim := "*"
		if alt || edgeChildIs(node, KindStrong) {
			delim = "_"
		}
		return s.convertDelimited(node, delim)
	case KindStrong:
		delim := "**"
		if alt {
			delim = "__"
		}
		return s.convertDelimited(node, delim)
	case KindStrikethrough:
		return s.convertDelimited(node, "~~")
	case KindLiteral:
		text := node.Text
		if text == "" {
			text = node.PlainText()
		}
		return codeSpan(text), nil
	case KindLineBreak:
		return s.lineBreak(), nil
	case KindReference:
		return s.convertReference(node)
	case KindFootnoteReference:
		return s.convertFootnoteReference(node)
	case KindImage:
		return s.convertImage(node)
	case KindTarget:
		text, err := s.inlineContent(node)
		if err != nil {
			return "", err
		}
		return s.targetAnchors(node) + text, nil
	case KindRaw:
		if !s.config.acceptsRaw(node.GetStringAttr("format", "")) {
			return "", nil
		}
		if node.Text != "" {
			return node.Text, nil
		}
		return node.PlainText(), nil
	case KindComment:
		return "", nil
	default:
		if node.Kind.Known() {
			return "", s.malformed("block node %s inside inline content", node.Kind)
		}
		return "", s.unsupported(node.Kind)
	}
}

func edgeChildIs(node Node, kind NodeKind) bool {
	n := len(node.Children)
	return n > 0 && (node.Children[0].Kind == kind || node.Children[n-1].Kind == kind)
}

func (s *state) isOpen(kind NodeKind) bool {
	for _, open := range s.openInline {
		if open == kind {
			return true
		}
	}
	return false
}

// convertDelimited wraps inline content in delim. A node nested inside one of
// the same kind renders without delimiters, and surrounding whitespace is
// moved outside the delimiters so they stay flanking.
func (s *state) convertDelimited(node Node, delim string) (string, error) {
	nested := s.isOpen(node.Kind)
	s.openInline = append(s.openInline, node.Kind)
	inner, err := s.inlineContent(node)
	s.openInline = s.openInline[:len(s.openInline)-1]
	if err != nil {
		return "", err
	}
	if nested {
		return inner, nil
	}

	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return inner, nil
	}
	start := strings.Index(inner, trimmed)
	leading, trailing := inner[:start], inner[start+len(trimmed):]
	if strings.HasSuffix(trimmed, "\\") && !strings.HasSuffix(trimmed, "\\\\") {
		// A trailing hard break cannot precede a closing delimiter.
		trimmed = strings.TrimSuffix(trimmed, "\\")
		trailing = "\n" + trailing
	}
	return leading + delim + trimmed + delim + trailing, nil
}

func (s *state) lineBreak() string {
	switch {
	case s.stack.inTableCell():
		return "<br>"
	case s.config.HardBreakStyle == HardBreakHTML:
		return "<br>\n"
	default:
		return "\\\n"
	}
}

// convertReference renders a hyperlink. External URIs are used as they are,
// cross-document URIs get the Markdown document suffix and same-document ids
// resolve through the reference table.
func (s *state) convertReference(node Node) (string, error) {
	s.inLink++
	text, err := s.inlineContent(node)
	s.inLink--
	if err != nil {
		return "", err
	}
	if s.inLink > 0 {
		return text, nil
	}

	refuri := strings.TrimSpace(node.GetStringAttr("refuri", ""))
	refid := strings.TrimSpace(node.GetStringAttr("refid", ""))
	title := node.GetStringAttr("title", node.GetStringAttr("reftitle", ""))
	internal := node.GetBoolAttr("internal", false)

	input := LinkRenderInput{
		SourcePath: s.options.SourcePath,
		Title:      title,
		Text:       node.PlainText(),
		Attrs:      cloneAnyMap(node.Attrs),
	}

	var href string
	switch {
	case refuri != "":
		href = refuri
		if internal {
			href = s.documentURI(refuri)
		}
		input.Source = LinkSourceExternal
	case refid != "":
		label, target, err := s.refs.resolveInternal(refid)
		if err != nil {
			return "", &UnresolvedReferenceError{ID: refid, Path: s.path()}
		}
		if strings.TrimSpace(text) == "" {
			text = EscapeText(label)
		}
		if target == "" {
			s.addWarning(WarningDroppedFeature, node.Kind, fmt.Sprintf("target %q emits no anchor; reference rendered as text", refid))
			return text, nil
		}
		href = target
		input.Source = LinkSourceInternal
	default:
		s.addWarning(WarningMissingAttribute, node.Kind, "reference has neither refuri nor refid; rendered as text")
		return text, nil
	}

	input.Href = href
	input.Meta.Filename, input.Meta.Anchor = parseReferenceDetails(href)
	input.Meta.CrossDocument = internal

	output, handled, err := s.applyLinkRenderHook(input)
	if err != nil {
		return "", err
	}
	if handled {
		if output.TextOnly {
			if strings.TrimSpace(text) == "" {
				return EscapeText(output.Title), nil
			}
			return text, nil
		}
		href = output.Href
		if output.Title != "" {
			title = output.Title
		}
	}

	if strings.TrimSpace(text) == "" {
		text = EscapeText(href)
	}
	return "[" + text + "](" + formatDestination(href) + formatTitle(title) + ")", nil
}

// documentURI rewrites the ".html" document suffix of a cross-document URI
// to the configured Markdown suffix, keeping any fragment.
func (s *state) documentURI(uri string) string {
	docPath, fragment, hasFragment := strings.Cut(uri, "#")
	if strings.HasSuffix(docPath, ".html") {
		docPath = strings.TrimSuffix(docPath, ".html") + s.config.DocURISuffix
	}
	if hasFragment {
		return docPath + "#" + fragment
	}
	return docPath
}

// convertFootnoteReference renders "[^n]" with the label assigned on first use.
func (s *state) convertFootnoteReference(node Node) (string, error) {
	refid := strings.TrimSpace(node.GetStringAttr("refid", ""))
	if refid == "" {
		return "", s.malformed("footnote-reference without refid")
	}
	label, err := s.refs.footnoteLabel(refid)
	if err != nil {
		return "", &UnresolvedReferenceError{ID: refid, Path: s.path()}
	}
	return fmt.Sprintf("[^%s]", label), nil
}

// formatDestination returns a link destination that survives Markdown
// parsing, using the angle-bracket form when needed.
func formatDestination(dest string) string {
	if dest == "" {
		return "<>"
	}
	needsBrackets := strings.ContainsAny(dest, " \t<>") || !balancedParens(dest)
	if !needsBrackets {
		return dest
	}
	dest = strings.NewReplacer("<", "%3C", ">", "%3E", "\n", "").Replace(dest)
	return "<" + dest + ">"
}

func balancedParens(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func formatTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	title = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ").Replace(title)
	return ` "` + title + `"`
}
