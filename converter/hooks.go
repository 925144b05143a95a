package converter

import (
	"context"
	"errors"
)

// ErrUnresolved indicates that a link or image reference could not be resolved by a hook.
var ErrUnresolved = errors.New("unresolved link or image reference")

// ResolutionMode controls how unresolved hook results are handled.
type ResolutionMode string

const (
	// ResolutionBestEffort continues conversion and falls back to built-in behavior.
	ResolutionBestEffort ResolutionMode = "best_effort"
	// ResolutionStrict fails conversion when a hook returns ErrUnresolved.
	ResolutionStrict ResolutionMode = "strict"
)

// ConvertOptions carries optional per-conversion context.
type ConvertOptions struct {
	// SourcePath identifies the document being converted; it is passed to hooks.
	SourcePath string
}

// LinkSource identifies which reference attribute produced a link.
type LinkSource string

const (
	LinkSourceExternal LinkSource = "refuri"
	LinkSourceInternal LinkSource = "refid"
)

// LinkMetadata exposes typed metadata for link hooks.
type LinkMetadata struct {
	Filename string
	Anchor   string
	// CrossDocument is set for toolchain-generated references to another document.
	CrossDocument bool
}

// ImageMetadata exposes typed metadata for image hooks.
type ImageMetadata struct {
	Filename string
}

// LinkRenderHook can rewrite link output during tree -> Markdown conversion.
type LinkRenderHook func(ctx context.Context, in LinkRenderInput) (LinkRenderOutput, error)

// ImageRenderHook can override image output during tree -> Markdown conversion.
type ImageRenderHook func(ctx context.Context, in ImageRenderInput) (ImageRenderOutput, error)

// LinkRenderInput describes a reference being rendered.
type LinkRenderInput struct {
	Source     LinkSource
	SourcePath string
	Href       string
	Title      string
	Text       string
	Meta       LinkMetadata
	Attrs      map[string]any
}

// LinkRenderOutput contains hook-provided link rendering data.
type LinkRenderOutput struct {
	Href     string
	Title    string
	TextOnly bool
	Handled  bool
}

// ImageRenderInput describes an image node being rendered.
type ImageRenderInput struct {
	SourcePath string
	URI        string
	Alt        string
	Title      string
	Meta       ImageMetadata
	Attrs      map[string]any
}

// ImageRenderOutput contains hook-provided markdown for image rendering.
type ImageRenderOutput struct {
	Markdown string
	Handled  bool
}
