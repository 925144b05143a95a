package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a*b", `a\*b`},
		{"[link]", `\[link\]`},
		{"back\\slash", `back\\slash`},
		{"`code`", "\\`code\\`"},
		{"snake_case_name", "snake_case_name"},
		{"_leading and trailing_", `\_leading and trailing\_`},
		{"~strike~", `\~strike\~`},
		{"<tag>", `\<tag\>`},
		{"AT&T", "AT&T"},
		{"&amp; &#42; &#x2A;", "&amp;amp; &amp;#42; &amp;#x2A;"},
		{"日本_語", "日本_語"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeText(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "*a\\*b*", Format(FormatEmphasis, "a*b"))
	assert.Equal(t, "**x**", Format(FormatStrong, "x"))
	assert.Equal(t, "~~x~~", Format(FormatStrikethrough, "x"))
	assert.Equal(t, "`a*b`", Format(FormatLiteral, "a*b"))
}

func TestEscapeLineStart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"# heading", `\# heading`},
		{"> quote", `\> quote`},
		{"- item", `\- item`},
		{"-dash", "-dash"},
		{"* item", `\* item`},
		{"+", `\+`},
		{"1. one", `1\. one`},
		{"12) twelve", `12\) twelve`},
		{"1.5 version", "1.5 version"},
		{"===", `\===`},
		{"---", `\---`},
		{"| cell", `\| cell`},
		{"word", "word"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLineStart(tt.in))
		})
	}
}

func TestCodeSpan(t *testing.T) {
	assert.Equal(t, "`x`", codeSpan("x"))
	assert.Equal(t, "``a`b``", codeSpan("a`b"))
	assert.Equal(t, "```  a``b  ```", codeSpan(" a``b "))
	assert.Equal(t, "`` `x ``", codeSpan("`x"))
	assert.Equal(t, "`a b`", codeSpan("a\nb"))
	assert.Equal(t, "", codeSpan(""))
}

func TestCodeFence(t *testing.T) {
	tests := []struct {
		name      string
		lang      string
		content   string
		wantOpen  string
		wantClose string
	}{
		{"plain", "", "x", "```", "```"},
		{"language", "go", "x", "```go", "```"},
		{"three backticks inside", "", "a\n```\nb", "````", "````"},
		{"five backticks inside", "md", "`````", "``````md", "``````"},
		{"backtick in info string", "a`b", "~~~~", "~~~~~a`b", "~~~~~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, closing := codeFence(tt.lang, tt.content)
			assert.Equal(t, tt.wantOpen, open)
			assert.Equal(t, tt.wantClose, closing)
		})
	}
}

func TestEscapeTableCell(t *testing.T) {
	assert.Equal(t, `a\|b`, escapeTableCell("a|b", TableEscapeBackslash))
	assert.Equal(t, `a\|b`, escapeTableCell(`a\|b`, TableEscapeBackslash))
	assert.Equal(t, `a\\\|b`, escapeTableCell(`a\\|b`, TableEscapeBackslash))
	assert.Equal(t, "a&#124;b", escapeTableCell("a|b", TableEscapeEntity))
	assert.Equal(t, "a b", escapeTableCell("a\nb", TableEscapeBackslash))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "getting-started", Slugify("Getting Started"))
	assert.Equal(t, "23-api-reference", Slugify("2.3. API Reference"))
	assert.Equal(t, "whats-new-in-v2", Slugify("What's new in v2?"))
	assert.Equal(t, "snake_case", Slugify("snake_case"))
	assert.Equal(t, "über-uns", Slugify("Über uns"))
}
