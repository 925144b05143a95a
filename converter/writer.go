package converter

import "strings"

// mdWriter writes block output line by line, prefixing every line with the
// indentation of the current render stack and keeping blank lines single.
type mdWriter struct {
	sb    strings.Builder
	stack *renderStack

	lines        int
	pendingBlank bool
	blankPrefix  string
	lastBlank    bool
	lead         string
}

func newMDWriter(stack *renderStack) *mdWriter {
	return &mdWriter{stack: stack, lastBlank: true}
}

// requestBlank asks for a blank line before the next content line. The
// blank line carries the prefix in effect now, before the next block pushes
// its own frames.
func (w *mdWriter) requestBlank() {
	if w.lines > 0 && !w.pendingBlank {
		w.pendingBlank = true
		w.blankPrefix = strings.TrimRight(w.stack.IndentPrefix(), " ")
	}
}

func (w *mdWriter) cancelBlank() { w.pendingBlank = false }

// setLead stores text that is written after the prefix of the next content line.
func (w *mdWriter) setLead(lead string) { w.lead = lead }

// takeLead returns and clears a lead that was never written.
func (w *mdWriter) takeLead() string {
	lead := w.lead
	w.lead = ""
	return lead
}

// writeLines writes text as one or more lines.
func (w *mdWriter) writeLines(text string) {
	for _, line := range strings.Split(text, "\n") {
		w.writeLine(line)
	}
}

// writeLine writes a single line of content. An empty line inside a block
// (e.g. in a fenced code block) only gets the trimmed prefix.
func (w *mdWriter) writeLine(line string) {
	if w.pendingBlank && !w.lastBlank {
		w.sb.WriteString(w.blankPrefix)
		w.sb.WriteByte('\n')
		w.lastBlank = true
	}
	w.pendingBlank = false

	prefix := w.stack.linePrefix()
	if w.lead != "" {
		line = w.lead + line
		w.lead = ""
	}
	if line == "" {
		w.sb.WriteString(strings.TrimRight(prefix, " "))
	} else {
		w.sb.WriteString(prefix)
		w.sb.WriteString(line)
	}
	w.sb.WriteByte('\n')
	w.lines++
	w.lastBlank = false
}

func (w *mdWriter) String() string { return w.sb.String() }
