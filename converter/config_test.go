package converter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := (Config{}).applyDefaults()

	assert.Equal(t, rune('-'), cfg.BulletMarker)
	assert.Equal(t, 0, cfg.HeadingOffset)
	assert.Equal(t, SectionNumberPrefix, cfg.SectionNumbers)
	assert.Equal(t, HardBreakBackslash, cfg.HardBreakStyle)
	assert.Equal(t, TableEscapeBackslash, cfg.TableEscape)
	assert.Equal(t, TableBreakHTML, cfg.TableBreak)
	assert.Equal(t, AdmonitionGitHub, cfg.AdmonitionStyle)
	assert.Equal(t, TargetAnchorHTML, cfg.TargetAnchors)
	assert.Equal(t, ".md", cfg.DocURISuffix)
	assert.Equal(t, []string{"markdown", "md"}, cfg.RawFormats)
	assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, ResolutionBestEffort, cfg.ResolutionMode)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		BulletMarker:    '*',
		AdmonitionStyle: AdmonitionQuote,
		RawFormats:      []string{},
		MaxDepth:        7,
	}.applyDefaults()

	assert.Equal(t, rune('*'), cfg.BulletMarker)
	assert.Equal(t, AdmonitionQuote, cfg.AdmonitionStyle)
	assert.Empty(t, cfg.RawFormats)
	assert.Equal(t, 7, cfg.MaxDepth)
}

func TestValidateValid(t *testing.T) {
	cfg := Config{
		BulletMarker:    '+',
		HeadingOffset:   2,
		SectionNumbers:  SectionNumberNone,
		HardBreakStyle:  HardBreakHTML,
		TableEscape:     TableEscapeEntity,
		TableBreak:      TableBreakSpace,
		AdmonitionStyle: AdmonitionBold,
		TargetAnchors:   TargetAnchorNone,
		DocURISuffix:    ".html",
		RawFormats:      []string{"markdown", "html"},
		LanguageMap:     map[string]string{"py3": "python"},
		MaxDepth:        50,
		ResolutionMode:  ResolutionStrict,
	}

	require.NoError(t, cfg.Validate())
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bullet marker", func(c *Config) { c.BulletMarker = 'x' }, "bulletMarker"},
		{"heading offset too high", func(c *Config) { c.HeadingOffset = 9 }, "headingOffset"},
		{"heading offset negative", func(c *Config) { c.HeadingOffset = -1 }, "headingOffset"},
		{"section numbers", func(c *Config) { c.SectionNumbers = "roman" }, "sectionNumbers"},
		{"hard break", func(c *Config) { c.HardBreakStyle = "newline" }, "hardBreakStyle"},
		{"table escape", func(c *Config) { c.TableEscape = "none" }, "tableEscape"},
		{"table break", func(c *Config) { c.TableBreak = "newline" }, "tableBreak"},
		{"admonition style", func(c *Config) { c.AdmonitionStyle = "panel" }, "admonitionStyle"},
		{"target anchors", func(c *Config) { c.TargetAnchors = "span" }, "targetAnchors"},
		{"doc uri suffix", func(c *Config) { c.DocURISuffix = ".md#x" }, "docURISuffix"},
		{"empty raw format", func(c *Config) { c.RawFormats = []string{" "} }, "rawFormats"},
		{"empty language value", func(c *Config) { c.LanguageMap = map[string]string{"py": ""} }, "languageMap"},
		{"max depth", func(c *Config) { c.MaxDepth = -3 }, "maxDepth"},
		{"resolution mode", func(c *Config) { c.ResolutionMode = "lenient" }, "resolutionMode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := (Config{}).applyDefaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			_, err = New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfigJSONSerializationExcludesHooks(t *testing.T) {
	cfg := Config{
		AdmonitionStyle: AdmonitionBold,
		LinkHook: func(_ context.Context, _ LinkRenderInput) (LinkRenderOutput, error) {
			return LinkRenderOutput{}, nil
		},
		ImageHook: func(_ context.Context, _ ImageRenderInput) (ImageRenderOutput, error) {
			return ImageRenderOutput{}, nil
		},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "bold", decoded["admonitionStyle"])
	assert.NotContains(t, decoded, "LinkHook")
	assert.NotContains(t, decoded, "ImageHook")
	assert.NotContains(t, decoded, "linkHook")
}

func TestZeroConfigIsUsable(t *testing.T) {
	conv, err := New(Config{})
	require.NoError(t, err)

	result, err := conv.ConvertTree(doc(para(text("hello"))), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n\n", result.Markdown)
}

func TestNewClonesMutableConfig(t *testing.T) {
	languages := map[string]string{"py3": "python"}
	formats := []string{"markdown"}

	conv, err := New(Config{LanguageMap: languages, RawFormats: formats})
	require.NoError(t, err)

	languages["py3"] = "ruby"
	formats[0] = "html"

	assert.Equal(t, "python", conv.config.LanguageMap["py3"])
	assert.Equal(t, []string{"markdown"}, conv.config.RawFormats)
}

func TestAcceptsRaw(t *testing.T) {
	cfg := (Config{}).applyDefaults()

	assert.True(t, cfg.acceptsRaw("markdown"))
	assert.True(t, cfg.acceptsRaw("html MD"))
	assert.False(t, cfg.acceptsRaw("html"))
	assert.False(t, cfg.acceptsRaw(""))

	cfg.RawFormats = []string{"html"}
	assert.True(t, cfg.acceptsRaw("HTML"))
	assert.False(t, cfg.acceptsRaw("markdown"))
}
