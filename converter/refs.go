package converter

import (
	"fmt"
	"strconv"
	"strings"
)

// refTarget is a registered internal reference target.
type refTarget struct {
	label string
	// anchor is empty for a target that emits nothing to link to.
	anchor string
}

type footnoteEntry struct {
	id    string
	label string
	body  string
	has   bool
	// numbered is set once the entry has a label and a place in the flush order.
	numbered bool
}

// resolver is the per-document reference table. Section and target anchors
// are registered before the walk, footnote labels are assigned on first use.
type resolver struct {
	targets   map[string]refTarget
	anchors   map[string]int
	footnotes map[string]*footnoteEntry
	order     []*footnoteEntry
	next      int
	flushed   bool
}

func newResolver() *resolver {
	return &resolver{
		targets:   make(map[string]refTarget),
		anchors:   make(map[string]int),
		footnotes: make(map[string]*footnoteEntry),
	}
}

// uniqueAnchor deduplicates heading slugs the way GitHub does: the second
// "intro" becomes "intro-1", the third "intro-2".
func (r *resolver) uniqueAnchor(slug string) string {
	n, seen := r.anchors[slug]
	r.anchors[slug] = n + 1
	if !seen {
		return slug
	}
	candidate := slug + "-" + strconv.Itoa(n)
	for {
		if _, taken := r.anchors[candidate]; !taken {
			r.anchors[candidate] = 1
			return candidate
		}
		n++
		candidate = slug + "-" + strconv.Itoa(n)
	}
}

// registerSection maps all ids of a section to the anchor of its heading.
func (r *resolver) registerSection(ids []string, heading, label string) {
	anchor := r.uniqueAnchor(Slugify(heading))
	for _, id := range ids {
		if _, ok := r.targets[id]; !ok {
			r.targets[id] = refTarget{label: label, anchor: anchor}
		}
	}
}

// registerTarget maps an explicit target id to an anchor of the same name.
// Without an emitted anchor the target is known but not linkable.
func (r *resolver) registerTarget(id, label string, anchored bool) {
	if _, ok := r.targets[id]; ok {
		return
	}
	if !anchored {
		r.targets[id] = refTarget{label: label}
		return
	}
	r.anchors[id]++
	r.targets[id] = refTarget{label: label, anchor: id}
}

// reserveHeading claims the anchor of a heading that no id refers to.
func (r *resolver) reserveHeading(heading string) {
	if slug := Slugify(heading); slug != "" {
		r.uniqueAnchor(slug)
	}
}

// declareFootnote records that a footnote with id exists in the document.
func (r *resolver) declareFootnote(id string) {
	if _, ok := r.footnotes[id]; ok {
		return
	}
	r.footnotes[id] = &footnoteEntry{id: id}
}

// resolveInternal returns the link label and target of a registered id. The
// target is empty when the id has no anchor in the output.
func (r *resolver) resolveInternal(id string) (string, string, error) {
	t, ok := r.targets[id]
	if !ok {
		return "", "", &UnresolvedReferenceError{ID: id}
	}
	if t.anchor == "" {
		return t.label, "", nil
	}
	return t.label, "#" + t.anchor, nil
}

// footnoteLabel assigns the next number to a footnote on first reference.
func (r *resolver) footnoteLabel(id string) (string, error) {
	entry, ok := r.footnotes[id]
	if !ok {
		return "", &UnresolvedReferenceError{ID: id}
	}
	r.assign(entry)
	return entry.label, nil
}

func (r *resolver) assign(entry *footnoteEntry) {
	if entry.numbered {
		return
	}
	entry.numbered = true
	r.next++
	entry.label = strconv.Itoa(r.next)
	r.order = append(r.order, entry)
}

// registerFootnote stores the rendered body of a footnote and returns its label.
func (r *resolver) registerFootnote(id, body string) string {
	entry, ok := r.footnotes[id]
	if !ok {
		entry = &footnoteEntry{id: id}
		r.footnotes[id] = entry
	}
	entry.body = body
	entry.has = true
	r.assign(entry)
	return entry.label
}

// flush renders the trailing footnote block. It may be called once.
func (r *resolver) flush() (string, error) {
	if r.flushed {
		return "", ErrAlreadyFlushed
	}
	r.flushed = true

	var sb strings.Builder
	for i, entry := range r.order {
		if !entry.has {
			return "", &UnresolvedReferenceError{ID: entry.id}
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		body := strings.TrimRight(entry.body, "\n")
		lines := strings.Split(body, "\n")
		fmt.Fprintf(&sb, "[^%s]: %s\n", entry.label, lines[0])
		for _, line := range lines[1:] {
			if line == "" {
				sb.WriteByte('\n')
				continue
			}
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
