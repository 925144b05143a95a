package converter

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// convertSection renders the children of a section one heading level deeper.
func (s *state) convertSection(node Node) error {
	savedPrefix := s.sectionPrefix
	s.sectionPrefix = s.sectionNumberPrefix(node)
	defer func() { s.sectionPrefix = savedPrefix }()

	s.stack.push(Frame{Kind: FrameSection})
	if err := s.convertBlocks(node.Children); err != nil {
		return err
	}
	s.stack.pop()
	return nil
}

// convertTitle renders a section or document title as an ATX heading and any
// other title (table, admonition) as a strong paragraph.
func (s *state) convertTitle(node Node) error {
	text, err := s.inlineContent(node)
	if err != nil {
		return err
	}
	text = strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
	if text == "" {
		return nil
	}

	var level int
	switch s.parentKind() {
	case KindDocument:
		level = 1 + s.config.HeadingOffset
	case KindSection:
		level = s.stack.sectionDepth() + s.titleShift + s.config.HeadingOffset
		text = EscapeText(s.sectionPrefix) + text
	default:
		s.writeParagraph("**" + text + "**")
		return nil
	}

	level = min(max(level, 1), 6)
	if strings.HasSuffix(text, "#") && !strings.HasSuffix(text, "\\#") {
		text = text[:len(text)-1] + "\\#"
	}
	s.w.writeLine(strings.Repeat("#", level) + " " + text)
	return nil
}

// parentKind returns the kind of the parent of the node being rendered.
func (s *state) parentKind() NodeKind {
	if len(s.nodePath) < 2 {
		return ""
	}
	kind, _, _ := strings.Cut(s.nodePath[len(s.nodePath)-2], "[")
	return NodeKind(kind)
}

// convertParagraph renders inline children as one paragraph.
func (s *state) convertParagraph(node Node) error {
	children := node.Children
	for len(children) > 0 && children[len(children)-1].Kind == KindLineBreak {
		children = children[:len(children)-1]
	}

	var text string
	var err error
	if len(children) == 0 {
		text = EscapeText(node.Text)
	} else {
		text, err = s.convertInlines(children)
		if err != nil {
			return err
		}
	}

	s.writeParagraph(text)
	return nil
}

// convertLooseInline renders an inline node found at block level as its own
// paragraph.
func (s *state) convertLooseInline(node Node) error {
	text, err := s.convertInline(node, false)
	if err != nil {
		return err
	}
	s.writeParagraph(text)
	return nil
}

// writeParagraph writes rendered inline text as paragraph lines. Inside a
// table cell the paragraph is kept on a single line.
func (s *state) writeParagraph(text string) {
	if s.stack.inTableCell() {
		text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
		if text != "" {
			s.w.writeLine(text)
		}
		return
	}

	var lines []string
	for _, line := range strings.Split(escapeParagraph(text), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}
	s.w.writeLines(strings.Join(lines, "\n"))
}

// convertLiteralBlock renders a fenced code block, or a code span inside a
// table cell.
func (s *state) convertLiteralBlock(node Node) error {
	content := node.Text
	if content == "" {
		content = node.PlainText()
	}
	content = strings.TrimRight(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	if s.stack.inTableCell() {
		if span := codeSpan(content); span != "" {
			s.w.writeLine(span)
		}
		return nil
	}

	lang := s.literalLanguage(node)
	open, closing := codeFence(lang, content)
	s.w.writeLine(open)
	if content != "" {
		s.w.writeLines(content)
	}
	s.w.writeLine(closing)
	return nil
}

func (s *state) literalLanguage(node Node) string {
	lang := strings.TrimSpace(node.GetStringAttr("language", ""))
	if mapped, ok := s.config.LanguageMap[lang]; ok {
		lang = mapped
	}
	switch strings.ToLower(lang) {
	case "", "none", "default":
		return ""
	}
	return strings.Fields(lang)[0]
}

// convertBlockQuote renders children behind a "> " prefix.
func (s *state) convertBlockQuote(node Node) error {
	s.stack.push(Frame{Kind: FrameBlockQuote})
	if err := s.convertBlocks(node.Children); err != nil {
		return err
	}
	s.stack.pop()
	return nil
}

// gitHubAlerts maps admonition types to the five GitHub alert kinds.
var gitHubAlerts = map[string]string{
	"note":      "NOTE",
	"seealso":   "NOTE",
	"tip":       "TIP",
	"hint":      "TIP",
	"important": "IMPORTANT",
	"attention": "IMPORTANT",
	"warning":   "WARNING",
	"caution":   "CAUTION",
	"danger":    "CAUTION",
	"error":     "CAUTION",
}

var titleCaser = cases.Title(language.English)

// admonitionTitle returns the display title of an admonition and the index
// of its title child, or -1 when the title is derived from the type.
func (s *state) admonitionTitle(node Node, kind string) (string, int, error) {
	for i, child := range node.Children {
		if child.Kind == KindTitle {
			text, err := s.inlineContent(child)
			if err != nil {
				return "", -1, err
			}
			return strings.Join(strings.Fields(text), " "), i, nil
		}
	}
	switch kind {
	case "", "admonition":
		return "", -1, nil
	case "seealso":
		return "See also", -1, nil
	}
	return titleCaser.String(kind), -1, nil
}

// convertAdmonition renders note/warning/tip blocks according to AdmonitionStyle.
func (s *state) convertAdmonition(node Node) error {
	kind := strings.ToLower(strings.TrimSpace(node.GetStringAttr("type", "")))
	title, titleIndex, err := s.admonitionTitle(node, kind)
	if err != nil {
		return err
	}

	body := make([]Node, 0, len(node.Children))
	for i, child := range node.Children {
		if i != titleIndex {
			body = append(body, child)
		}
	}

	s.stack.push(Frame{Kind: FrameBlockQuote})
	defer s.stack.pop()

	switch s.config.AdmonitionStyle {
	case AdmonitionGitHub:
		alert, known := gitHubAlerts[kind]
		if !known {
			alert = "NOTE"
		}
		s.w.writeLine("[!" + alert + "]")
		if title != "" && (titleIndex >= 0 || !known || kind == "seealso") {
			s.w.writeLine("**" + title + "**")
			s.w.requestBlank()
		}
		return s.convertBlocks(body)
	case AdmonitionBold:
		if title == "" {
			return s.convertBlocks(body)
		}
		lead := "**" + title + "**:"
		if len(body) == 0 || body[0].Kind != KindParagraph {
			s.w.writeLine(lead)
			s.w.requestBlank()
			return s.convertBlocks(body)
		}
		s.w.setLead(lead + " ")
		if err := s.convertBlocks(body); err != nil {
			return err
		}
		if pending := s.w.takeLead(); pending != "" {
			s.w.writeLine(strings.TrimSpace(pending))
		}
		return nil
	default:
		if title != "" {
			s.w.writeLine("**" + title + "**")
			s.w.requestBlank()
		}
		return s.convertBlocks(body)
	}
}

// convertRawBlock passes raw content through when it targets Markdown.
// Content for any other output format is dropped without a warning.
func (s *state) convertRawBlock(node Node) error {
	if !s.config.acceptsRaw(node.GetStringAttr("format", "")) {
		return nil
	}
	content := node.Text
	if content == "" {
		content = node.PlainText()
	}
	content = strings.Trim(content, "\n")
	if content == "" {
		return nil
	}
	s.w.writeLines(content)
	return nil
}

// convertFootnote renders the footnote body out of line and registers it
// with the resolver. The body is emitted by the trailing footnote block.
func (s *state) convertFootnote(node Node) error {
	id := node.ID()
	if id == "" {
		return s.malformed("footnote without an id")
	}
	body, err := s.captureDetached(func() error {
		return s.convertBlocks(node.Children)
	})
	if err != nil {
		return err
	}
	s.refs.registerFootnote(id, strings.TrimRight(body, "\n"))
	return nil
}

// targetAnchors renders HTML anchors for the ids of an internal target.
func (s *state) targetAnchors(node Node) string {
	if s.config.TargetAnchors != TargetAnchorHTML || node.GetStringAttr("refuri", "") != "" {
		return ""
	}
	var sb strings.Builder
	for _, id := range node.IDs {
		fmt.Fprintf(&sb, `<a id="%s"></a>`, escapeAttr(id))
	}
	return sb.String()
}

// convertTargetBlock emits anchors for an explicit hyperlink target.
func (s *state) convertTargetBlock(node Node) error {
	anchors := s.targetAnchors(node)
	text := ""
	if len(node.Children) > 0 {
		var err error
		text, err = s.convertInlines(node.Children)
		if err != nil {
			return err
		}
	}
	if anchors == "" && strings.TrimSpace(text) == "" {
		return nil
	}
	s.writeParagraph(anchors + text)
	return nil
}

// convertImageBlock renders a block-level image as its own paragraph.
func (s *state) convertImageBlock(node Node) error {
	image, err := s.convertImage(node)
	if err != nil {
		return err
	}
	if image != "" {
		s.w.writeLine(image)
	}
	return nil
}

func escapeAttr(value string) string {
	return strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;").Replace(value)
}
