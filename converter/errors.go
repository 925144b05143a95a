package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedNodeKind is matched by UnsupportedNodeKindError.
	ErrUnsupportedNodeKind = errors.New("unsupported node kind")
	// ErrUnresolvedReference is matched by UnresolvedReferenceError.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrMalformedTree is matched by MalformedTreeError.
	ErrMalformedTree = errors.New("malformed document tree")
	// ErrTreeTooDeep is matched by TreeTooDeepError.
	ErrTreeTooDeep = errors.New("document tree too deep")
	// ErrAlreadyFlushed is returned when the footnote table is flushed twice.
	ErrAlreadyFlushed = errors.New("reference table already flushed")
)

// UnsupportedNodeKindError is returned for a node kind outside the supported set.
type UnsupportedNodeKindError struct {
	Kind NodeKind
	Path string
}

func (e *UnsupportedNodeKindError) Error() string {
	return fmt.Sprintf("unsupported node kind %q at %s", e.Kind, e.Path)
}

func (e *UnsupportedNodeKindError) Is(target error) bool { return target == ErrUnsupportedNodeKind }

// UnresolvedReferenceError is returned when an internal reference target or a
// footnote body was never registered.
type UnresolvedReferenceError struct {
	ID   string
	Path string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unresolved reference %q", e.ID)
	}
	return fmt.Sprintf("unresolved reference %q at %s", e.ID, e.Path)
}

func (e *UnresolvedReferenceError) Is(target error) bool { return target == ErrUnresolvedReference }

// MalformedTreeError is returned when the tree violates a structural rule,
// e.g. a table cell outside a table row.
type MalformedTreeError struct {
	Reason string
	Path   string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed tree at %s: %s", e.Path, e.Reason)
}

func (e *MalformedTreeError) Is(target error) bool { return target == ErrMalformedTree }

// TreeTooDeepError is returned when nesting exceeds Config.MaxDepth.
type TreeTooDeepError struct {
	Limit int
	Path  string
}

func (e *TreeTooDeepError) Error() string {
	return fmt.Sprintf("tree nesting exceeds %d levels at %s", e.Limit, e.Path)
}

func (e *TreeTooDeepError) Is(target error) bool { return target == ErrTreeTooDeep }
