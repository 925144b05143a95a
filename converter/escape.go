package converter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatKind selects the inline formatting applied by Format.
type FormatKind int

const (
	FormatEmphasis FormatKind = iota
	FormatStrong
	FormatLiteral
	FormatStrikethrough
)

// Format escapes text and wraps it in the delimiters of the given kind.
// Literal text is wrapped in a code span and is never backslash-escaped.
func Format(kind FormatKind, text string) string {
	switch kind {
	case FormatEmphasis:
		return "*" + EscapeText(text) + "*"
	case FormatStrong:
		return "**" + EscapeText(text) + "**"
	case FormatStrikethrough:
		return "~~" + EscapeText(text) + "~~"
	default:
		return codeSpan(text)
	}
}

// EscapeText backslash-escapes characters that Markdown would otherwise
// interpret as inline markup.
func EscapeText(s string) string {
	if !strings.ContainsAny(s, "\\`*_[]<>~&") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i, r := range s {
		switch r {
		case '\\', '`', '*', '[', ']', '<', '>', '~':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '_':
			if isWord(utf8.DecodeLastRuneInString(s[:i])) && isWord(utf8.DecodeRuneInString(s[i+1:])) {
				sb.WriteByte('_')
			} else {
				sb.WriteString("\\_")
			}
		case '&':
			if charRefPattern.MatchString(s[i:]) {
				sb.WriteString("&amp;")
			} else {
				sb.WriteByte('&')
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var charRefPattern = regexp.MustCompile(`^&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`)

func isWord(r rune, _ int) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

var (
	orderedStartPattern = regexp.MustCompile(`^(\d{1,9})([.)])(\s|$)`)
	setextPattern       = regexp.MustCompile(`^(=+|-+)\s*$`)
)

// escapeLineStart escapes characters that would start a block construct when
// they appear at the beginning of a line of paragraph text.
func escapeLineStart(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	lead := line[:len(line)-len(trimmed)]
	if trimmed == "" {
		return line
	}

	if m := orderedStartPattern.FindStringSubmatch(trimmed); m != nil {
		return lead + m[1] + "\\" + trimmed[len(m[1]):]
	}
	if setextPattern.MatchString(trimmed) {
		return lead + "\\" + trimmed
	}

	switch trimmed[0] {
	case '#', '>', '|':
		return lead + "\\" + trimmed
	case '-', '+', '*':
		if len(trimmed) == 1 || trimmed[1] == ' ' || trimmed[1] == '\t' {
			return lead + "\\" + trimmed
		}
	}
	return line
}

// escapeParagraph applies line-start escaping to every line of rendered
// paragraph text and strips leading whitespace that would turn a line into
// an indented code block.
func escapeParagraph(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(strings.TrimLeft(line, " \t"))
	}
	return strings.Join(lines, "\n")
}

// longestRun returns the length of the longest run of ch in s.
func longestRun(s string, ch byte) int {
	longest, current := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == ch {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// codeSpan wraps text in a backtick run longer than any run inside it.
func codeSpan(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	if text == "" {
		return ""
	}
	fence := strings.Repeat("`", longestRun(text, '`')+1)
	pad := ""
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") ||
		(strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") && strings.TrimSpace(text) != "") {
		pad = " "
	}
	return fence + pad + text + pad + fence
}

// codeFence returns the opening and closing fence lines for a literal block.
// The fence is longer than any run of the fence character in content.
func codeFence(lang, content string) (string, string) {
	fenceChar := byte('`')
	if strings.ContainsRune(lang, '`') {
		fenceChar = '~'
	}
	n := longestRun(content, fenceChar) + 1
	if n < 3 {
		n = 3
	}
	fence := strings.Repeat(string(fenceChar), n)
	return fence + lang, fence
}

// escapeTableCell makes flattened cell text safe inside a pipe table row.
func escapeTableCell(text string, style TableEscapeStyle) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	if style == TableEscapeEntity {
		return strings.ReplaceAll(text, "|", "&#124;")
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '|' && (i == 0 || text[i-1] != '\\' || precededByEscapedBackslash(text, i)) {
			sb.WriteString("\\|")
			continue
		}
		sb.WriteByte(text[i])
	}
	return sb.String()
}

// precededByEscapedBackslash reports whether the backslash run before i has
// even length, i.e. the pipe at i is not already escaped.
func precededByEscapedBackslash(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 0
}

var slugStrip = regexp.MustCompile(`[^\p{L}\p{N}\- _]+`)

// Slugify builds the GitHub-style anchor of a heading text.
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
