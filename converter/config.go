package converter

import (
	"fmt"
	"strings"
)

// SectionNumberStyle controls whether section numbers prefix headings.
type SectionNumberStyle string

const (
	SectionNumberPrefix SectionNumberStyle = "prefix"
	SectionNumberNone   SectionNumberStyle = "none"
)

// HardBreakStyle controls how hard line breaks are rendered.
type HardBreakStyle string

const (
	HardBreakBackslash HardBreakStyle = "backslash"
	HardBreakHTML      HardBreakStyle = "html"
)

// TableEscapeStyle controls how pipe characters inside table cells are escaped.
type TableEscapeStyle string

const (
	TableEscapeBackslash TableEscapeStyle = "backslash"
	TableEscapeEntity    TableEscapeStyle = "entity"
)

// TableBreakStyle controls how block boundaries inside a table cell are flattened.
type TableBreakStyle string

const (
	TableBreakHTML  TableBreakStyle = "html"
	TableBreakSpace TableBreakStyle = "space"
)

// AdmonitionStyle controls how note/warning/tip admonitions are rendered.
type AdmonitionStyle string

const (
	AdmonitionGitHub AdmonitionStyle = "github"
	AdmonitionBold   AdmonitionStyle = "bold"
	AdmonitionQuote  AdmonitionStyle = "quote"
)

// TargetAnchorStyle controls whether explicit targets emit an HTML anchor.
type TargetAnchorStyle string

const (
	TargetAnchorHTML TargetAnchorStyle = "html"
	TargetAnchorNone TargetAnchorStyle = "none"
)

// DefaultMaxDepth is the nesting limit used when Config.MaxDepth is zero.
const DefaultMaxDepth = 200

// Config holds all converter configuration options.
type Config struct {
	BulletMarker    rune               `json:"bulletMarker,omitempty" yaml:"-"`
	HeadingOffset   int                `json:"headingOffset,omitempty" yaml:"headingOffset,omitempty"`
	SectionNumbers  SectionNumberStyle `json:"sectionNumbers,omitempty" yaml:"sectionNumbers,omitempty"`
	HardBreakStyle  HardBreakStyle     `json:"hardBreakStyle,omitempty" yaml:"hardBreakStyle,omitempty"`
	TableEscape     TableEscapeStyle   `json:"tableEscape,omitempty" yaml:"tableEscape,omitempty"`
	TableBreak      TableBreakStyle    `json:"tableBreak,omitempty" yaml:"tableBreak,omitempty"`
	AdmonitionStyle AdmonitionStyle    `json:"admonitionStyle,omitempty" yaml:"admonitionStyle,omitempty"`
	TargetAnchors   TargetAnchorStyle  `json:"targetAnchors,omitempty" yaml:"targetAnchors,omitempty"`
	DocURISuffix    string             `json:"docURISuffix,omitempty" yaml:"docURISuffix,omitempty"`
	RawFormats      []string           `json:"rawFormats,omitempty" yaml:"rawFormats,omitempty"`
	LanguageMap     map[string]string  `json:"languageMap,omitempty" yaml:"languageMap,omitempty"`
	MaxDepth        int                `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	ResolutionMode  ResolutionMode     `json:"resolutionMode,omitempty" yaml:"resolutionMode,omitempty"`
	LinkHook        LinkRenderHook     `json:"-" yaml:"-"`
	ImageHook       ImageRenderHook    `json:"-" yaml:"-"`
}

func (c Config) applyDefaults() Config {
	if c.BulletMarker == 0 {
		c.BulletMarker = '-'
	}
	if c.SectionNumbers == "" {
		c.SectionNumbers = SectionNumberPrefix
	}
	if c.HardBreakStyle == "" {
		c.HardBreakStyle = HardBreakBackslash
	}
	if c.TableEscape == "" {
		c.TableEscape = TableEscapeBackslash
	}
	if c.TableBreak == "" {
		c.TableBreak = TableBreakHTML
	}
	if c.AdmonitionStyle == "" {
		c.AdmonitionStyle = AdmonitionGitHub
	}
	if c.TargetAnchors == "" {
		c.TargetAnchors = TargetAnchorHTML
	}
	if c.DocURISuffix == "" {
		c.DocURISuffix = ".md"
	}
	if c.RawFormats == nil {
		c.RawFormats = []string{"markdown", "md"}
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.ResolutionMode == "" {
		c.ResolutionMode = ResolutionBestEffort
	}

	return c
}

// clone returns a deep copy of Config for slice and map-backed fields.
func (c Config) clone() Config {
	cloned := c
	cloned.LanguageMap = cloneStringMap(c.LanguageMap)
	if c.RawFormats != nil {
		cloned.RawFormats = append([]string(nil), c.RawFormats...)
	}
	return cloned
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.BulletMarker != '-' && c.BulletMarker != '*' && c.BulletMarker != '+' {
		return fmt.Errorf("invalid bulletMarker %q: must be one of -, *, +", c.BulletMarker)
	}
	if c.HeadingOffset < 0 || c.HeadingOffset > 5 {
		return fmt.Errorf("headingOffset must be between 0 and 5, got %d", c.HeadingOffset)
	}
	if c.SectionNumbers != SectionNumberPrefix && c.SectionNumbers != SectionNumberNone {
		return fmt.Errorf("invalid sectionNumbers %q", c.SectionNumbers)
	}
	if c.HardBreakStyle != HardBreakBackslash && c.HardBreakStyle != HardBreakHTML {
		return fmt.Errorf("invalid hardBreakStyle %q", c.HardBreakStyle)
	}
	if c.TableEscape != TableEscapeBackslash && c.TableEscape != TableEscapeEntity {
		return fmt.Errorf("invalid tableEscape %q", c.TableEscape)
	}
	if c.TableBreak != TableBreakHTML && c.TableBreak != TableBreakSpace {
		return fmt.Errorf("invalid tableBreak %q", c.TableBreak)
	}
	if c.AdmonitionStyle != AdmonitionGitHub && c.AdmonitionStyle != AdmonitionBold && c.AdmonitionStyle != AdmonitionQuote {
		return fmt.Errorf("invalid admonitionStyle %q", c.AdmonitionStyle)
	}
	if c.TargetAnchors != TargetAnchorHTML && c.TargetAnchors != TargetAnchorNone {
		return fmt.Errorf("invalid targetAnchors %q", c.TargetAnchors)
	}
	if strings.ContainsAny(c.DocURISuffix, " \t\n#?") {
		return fmt.Errorf("invalid docURISuffix %q", c.DocURISuffix)
	}
	for _, format := range c.RawFormats {
		if strings.TrimSpace(format) == "" {
			return fmt.Errorf("rawFormats must not contain empty entries")
		}
	}
	for from, to := range c.LanguageMap {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("languageMap keys and values must be non-empty")
		}
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("maxDepth must be positive, got %d", c.MaxDepth)
	}
	if c.ResolutionMode != ResolutionBestEffort && c.ResolutionMode != ResolutionStrict {
		return fmt.Errorf("invalid resolutionMode %q", c.ResolutionMode)
	}

	return nil
}

func (c Config) acceptsRaw(formats string) bool {
	for _, format := range strings.Fields(strings.ToLower(formats)) {
		for _, accepted := range c.RawFormats {
			if strings.EqualFold(format, accepted) {
				return true
			}
		}
	}
	return false
}

func cloneStringMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}

	dst := make(map[string]string, len(src))
	for key, value := range src {
		dst[key] = value
	}

	return dst
}
