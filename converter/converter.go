package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Converter converts docutils document trees to GitHub Flavored Markdown.
// It holds only immutable configuration and is safe for concurrent use.
type Converter struct {
	config Config
}

// state is the per-call conversion state: the render stack, the reference
// table and the output writer of exactly one document.
type state struct {
	config   Config
	ctx      context.Context
	options  ConvertOptions
	numbers  SectionNumbers
	warnings []Warning

	stack *renderStack
	w     *mdWriter
	refs  *resolver

	nodePath   []string
	inLink     int
	openInline []NodeKind

	// sectionPrefix is the number prefix of the innermost section title.
	sectionPrefix string
	// titleShift moves section headings one level down below a document title.
	titleShift int
	prevBlock  Node
	lastList   listMemo
}

// New creates a new Converter with the given config.
func New(config Config) (*Converter, error) {
	cfg := config.applyDefaults().clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Converter{
		config: cfg,
	}, nil
}

// Convert takes a JSON-encoded document tree and returns GFM markdown.
func (c *Converter) Convert(input []byte) (Result, error) {
	var root Node
	if err := json.Unmarshal(input, &root); err != nil {
		return Result{}, fmt.Errorf("failed to parse document tree JSON: %w", err)
	}
	return c.ConvertTree(root, nil)
}

// ConvertYAML takes a YAML-encoded document tree and returns GFM markdown.
func (c *Converter) ConvertYAML(input []byte) (Result, error) {
	var root Node
	if err := yaml.Unmarshal(input, &root); err != nil {
		return Result{}, fmt.Errorf("failed to parse document tree YAML: %w", err)
	}
	return c.ConvertTree(root, nil)
}

// ConvertTree translates one document tree using the given section numbers.
func (c *Converter) ConvertTree(root Node, numbers SectionNumbers) (Result, error) {
	return c.ConvertWithContext(context.Background(), root, numbers, ConvertOptions{})
}

// ConvertWithContext translates one document tree. The context is consulted
// before the walk and before every hook call. On error no partial output is
// returned.
func (c *Converter) ConvertWithContext(ctx context.Context, root Node, numbers SectionNumbers, opts ConvertOptions) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &state{
		config:  c.config,
		ctx:     ctx,
		options: opts,
		numbers: numbers,
		stack:   &renderStack{},
		refs:    newResolver(),
	}
	s.w = newMDWriter(s.stack)

	if err := s.checkContext(); err != nil {
		return Result{}, err
	}

	if root.Kind != KindDocument {
		return Result{}, &MalformedTreeError{Reason: fmt.Sprintf("root must be %q, got %q", KindDocument, root.Kind), Path: string(root.Kind)}
	}

	if err := s.collectTargets(root); err != nil {
		return Result{}, err
	}
	for _, child := range root.Children {
		if child.Kind == KindTitle {
			s.titleShift = 1
			break
		}
	}

	s.nodePath = append(s.nodePath, string(KindDocument))
	if err := s.convertBlocks(root.Children); err != nil {
		return Result{}, err
	}
	if err := s.checkContext(); err != nil {
		return Result{}, err
	}
	if s.stack.Depth() != 0 {
		return Result{}, &MalformedTreeError{Reason: "unbalanced render stack", Path: s.path()}
	}

	var sb strings.Builder
	if body := strings.TrimRight(s.w.String(), "\n"); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}

	notes, err := s.refs.flush()
	if err != nil {
		return Result{}, err
	}
	sb.WriteString(notes)

	return Result{
		Markdown: sb.String(),
		Warnings: s.warnings,
	}, nil
}

func (s *state) checkContext() error {
	if s.ctx == nil {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (s *state) addWarning(typ WarningType, kind NodeKind, message string) {
	s.warnings = append(s.warnings, Warning{
		Type:     typ,
		NodeKind: kind,
		Path:     s.path(),
		Message:  message,
	})
}

// enter records the node in the path from the root and enforces MaxDepth.
func (s *state) enter(node Node, index int) error {
	s.nodePath = append(s.nodePath, string(node.Kind)+"["+strconv.Itoa(index)+"]")
	if len(s.nodePath) > s.config.MaxDepth {
		return &TreeTooDeepError{Limit: s.config.MaxDepth, Path: s.path()}
	}
	return nil
}

func (s *state) leave() {
	s.nodePath = s.nodePath[:len(s.nodePath)-1]
}

func (s *state) path() string {
	return strings.Join(s.nodePath, "/")
}

func (s *state) unsupported(kind NodeKind) error {
	return &UnsupportedNodeKindError{Kind: kind, Path: s.path()}
}

func (s *state) malformed(format string, args ...any) error {
	return &MalformedTreeError{Reason: fmt.Sprintf(format, args...), Path: s.path()}
}

// convertBlocks renders a sequence of block children, separating those that
// produced output by a blank line.
func (s *state) convertBlocks(children []Node) error {
	var prev Node
	wrote := false
	for i, child := range children {
		before := s.w.lines
		if wrote {
			s.w.requestBlank()
			if prev.Kind == KindParagraph && canInterruptParagraph(child) && s.tightAfterParagraph() {
				s.w.cancelBlank()
			}
		}
		s.prevBlock = prev
		if err := s.convertChild(child, i); err != nil {
			return err
		}
		if s.w.lines > before {
			wrote = true
			prev = child
		}
	}
	return nil
}

// tightAfterParagraph reports whether a list directly following a paragraph
// stays attached to it, which holds inside list items.
func (s *state) tightAfterParagraph() bool {
	top := s.stack.top()
	return top != nil && top.Kind == FrameList
}

func (s *state) convertChild(node Node, index int) error {
	if err := s.enter(node, index); err != nil {
		return err
	}
	defer s.leave()
	return s.convertBlock(node)
}

// convertBlock dispatches a block-level node to its handler.
func (s *state) convertBlock(node Node) error {
	switch node.Kind {
	case KindSection:
		return s.convertSection(node)
	case KindTitle:
		return s.convertTitle(node)
	case KindParagraph:
		return s.convertParagraph(node)
	case KindLiteralBlock:
		return s.convertLiteralBlock(node)
	case KindBulletList, KindEnumeratedList:
		return s.convertList(node)
	case KindFieldList:
		return s.convertFieldList(node)
	case KindDefinitionList:
		return s.convertDefinitionList(node)
	case KindTable:
		return s.convertTable(node)
	case KindBlockQuote:
		return s.convertBlockQuote(node)
	case KindAdmonition:
		return s.convertAdmonition(node)
	case KindTransition:
		s.w.writeLine("---")
		return nil
	case KindComment:
		return nil
	case KindRaw:
		return s.convertRawBlock(node)
	case KindFootnote:
		return s.convertFootnote(node)
	case KindTarget:
		return s.convertTargetBlock(node)
	case KindImage:
		return s.convertImageBlock(node)
	case KindText, KindEmphasis, KindStrong, KindLiteral, KindStrikethrough,
		KindReference, KindFootnoteReference, KindLineBreak:
		return s.convertLooseInline(node)
	case KindListItem, KindDefinitionItem, KindTerm, KindDefinition,
		KindField, KindFieldName, KindFieldBody:
		return s.malformed("%s outside its parent container", node.Kind)
	case KindTableRow:
		return s.malformed("table-row outside a table")
	case KindTableCell:
		return s.malformed("table-cell outside a table-row")
	case KindDocument:
		return s.malformed("nested document node")
	default:
		return s.unsupported(node.Kind)
	}
}

// collectTargets walks the tree once before rendering so that references
// may point forward: it registers the document title, section anchors,
// explicit targets and footnote ids, and rejects unknown node kinds up front.
func (s *state) collectTargets(root Node) error {
	var walk func(node Node, path string, depth int) error
	walk = func(node Node, path string, depth int) error {
		if depth > s.config.MaxDepth {
			return &TreeTooDeepError{Limit: s.config.MaxDepth, Path: path}
		}
		if !node.Kind.Known() {
			return &UnsupportedNodeKindError{Kind: node.Kind, Path: path}
		}

		switch node.Kind {
		case KindComment, KindRaw:
			// Never rendered as nodes, so nothing inside can be linked to.
			return nil
		case KindDocument:
			for _, child := range node.Children {
				if child.Kind == KindTitle {
					s.refs.reserveHeading(child.PlainText())
				}
			}
		case KindSection:
			title := sectionTitle(node)
			heading := s.headingText(node, title.PlainText())
			s.refs.registerSection(node.IDs, heading, heading)
		case KindTarget:
			if node.GetStringAttr("refuri", "") == "" {
				for _, id := range node.IDs {
					s.refs.registerTarget(id, node.PlainText(), s.config.TargetAnchors == TargetAnchorHTML)
				}
			}
		case KindFootnote:
			for _, id := range node.IDs {
				s.refs.declareFootnote(id)
			}
		}

		for i, child := range node.Children {
			if err := walk(child, path+"/"+string(child.Kind)+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, string(root.Kind), 1)
}

// sectionTitle returns the title child of a section, or an empty node.
func sectionTitle(section Node) Node {
	for _, child := range section.Children {
		if child.Kind == KindTitle {
			return child
		}
	}
	return Node{}
}

// headingText returns the plain heading text of a section including its
// number prefix, which is what GitHub derives the heading anchor from.
func (s *state) headingText(section Node, title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if prefix := s.sectionNumberPrefix(section); prefix != "" {
		return prefix + title
	}
	return title
}

func (s *state) sectionNumberPrefix(section Node) string {
	if s.config.SectionNumbers != SectionNumberPrefix || s.numbers == nil {
		return ""
	}
	for _, id := range section.IDs {
		if label := s.numbers.Label(id); label != "" {
			return label + ". "
		}
	}
	return ""
}

// capture renders fn into a separate writer that shares the render stack and
// returns what it wrote.
func (s *state) capture(fn func() error) (string, error) {
	saved := s.w
	s.w = newMDWriter(s.stack)
	defer func() { s.w = saved }()

	if err := fn(); err != nil {
		return "", err
	}
	return s.w.String(), nil
}

// captureDetached renders fn with an empty render stack, for content that is
// emitted outside its position in the tree (footnote bodies).
func (s *state) captureDetached(fn func() error) (string, error) {
	savedStack := s.stack
	s.stack = &renderStack{}
	defer func() { s.stack = savedStack }()
	return s.capture(fn)
}
