package converter

import "strings"

// FrameKind identifies the container context a frame records.
type FrameKind int

const (
	FrameList FrameKind = iota
	FrameTableCell
	FrameBlockQuote
	FrameSection
)

func (k FrameKind) String() string {
	switch k {
	case FrameList:
		return "list"
	case FrameTableCell:
		return "table-cell"
	case FrameBlockQuote:
		return "block-quote"
	case FrameSection:
		return "section"
	default:
		return "unknown"
	}
}

// Frame is one entry of the render-state stack.
type Frame struct {
	Kind FrameKind
	// Depth is the nesting depth among frames of the same kind, starting at 1.
	Depth int

	// List frames.
	Ordered bool
	Ordinal int
	Marker  string
	// markerPending is set while the current item has not written its first line.
	markerPending bool

	// Table cell frames.
	Column int
	Header bool
}

// renderStack is the per-document stack of container frames.
type renderStack struct {
	frames []Frame
}

func (s *renderStack) push(f Frame) {
	f.Depth = s.countKind(f.Kind) + 1
	s.frames = append(s.frames, f)
}

// pop removes the top frame. Popping an empty stack is a translator bug.
func (s *renderStack) pop() Frame {
	if len(s.frames) == 0 {
		panic("converter: pop on empty render stack")
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// top returns the innermost frame, or nil when the stack is empty.
func (s *renderStack) top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// Depth returns the number of frames on the stack.
func (s *renderStack) Depth() int { return len(s.frames) }

func (s *renderStack) countKind(kind FrameKind) int {
	n := 0
	for _, f := range s.frames {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func (s *renderStack) listDepth() int    { return s.countKind(FrameList) }
func (s *renderStack) sectionDepth() int { return s.countKind(FrameSection) }

func (s *renderStack) inTableCell() bool {
	return s.countKind(FrameTableCell) > 0
}

// startItem sets the marker for the next item of the innermost list.
func (s *renderStack) startItem(marker string) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == FrameList {
			s.frames[i].Marker = marker
			s.frames[i].markerPending = true
			return
		}
	}
}

// base returns the index of the first frame that contributes to line
// prefixes. Content of a table cell is flattened into a single row, so
// frames outside the innermost cell do not apply.
func (s *renderStack) base() int {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == FrameTableCell {
			return i + 1
		}
	}
	return 0
}

// IndentPrefix composes the continuation prefix of every frame on the stack:
// list frames contribute the width of their item marker, block quotes "> ".
func (s *renderStack) IndentPrefix() string {
	var sb strings.Builder
	for _, f := range s.frames[s.base():] {
		switch f.Kind {
		case FrameList:
			sb.WriteString(strings.Repeat(" ", len(f.Marker)))
		case FrameBlockQuote:
			sb.WriteString("> ")
		}
	}
	return sb.String()
}

// linePrefix is IndentPrefix for a content line. Pending item markers are
// emitted in place of their indentation and then consumed.
func (s *renderStack) linePrefix() string {
	var sb strings.Builder
	for i := s.base(); i < len(s.frames); i++ {
		f := &s.frames[i]
		switch f.Kind {
		case FrameList:
			if f.markerPending {
				sb.WriteString(f.Marker)
				f.markerPending = false
			} else {
				sb.WriteString(strings.Repeat(" ", len(f.Marker)))
			}
		case FrameBlockQuote:
			sb.WriteString("> ")
		}
	}
	return sb.String()
}
