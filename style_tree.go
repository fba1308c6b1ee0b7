package glyphflow

import "strings"

// WhiteSpaceCollapse selects the TreeBuilder's whitespace handling, per
// spec §4.3.
type WhiteSpaceCollapse uint8

const (
	WhiteSpacePreserve WhiteSpaceCollapse = iota
	WhiteSpaceCollapseMode
)

// treeNode is one pushed scope: its style and the span that was
// current when it was pushed (for pop).
type treeNode struct {
	parent  int // -1 for the root
	style   ComputedStyle
	spanIdx int // index into resolved span table, -1 until first committed text
}

// TreeBuilder resolves a hierarchically-scoped style tree into the same
// flat (style table + style runs + concatenated text) shape that
// RangedBuilder produces, following
// parley::resolve::tree::TreeStyleBuilder: a stack of scopes is
// pushed/popped as the caller walks a DOM-like tree, text is
// accumulated uncommitted until the next push/pop/finish, at which
// point whitespace-collapse rules are applied and the span is
// committed against whichever scope is current.
type TreeBuilder struct {
	nodes       []treeNode
	table       []ComputedStyle
	runs        []StyleSpan
	collapse    WhiteSpaceCollapse
	text        strings.Builder
	uncommitted strings.Builder
	current     int
	isSpanFirst bool
	lastWasRun  bool
}

// NewTreeBuilder starts a builder with rootStyle applied to the whole
// tree unless overridden by a pushed scope.
func NewTreeBuilder(rootStyle ComputedStyle) *TreeBuilder {
	b := &TreeBuilder{
		nodes:       []treeNode{{parent: -1, style: rootStyle, spanIdx: -1}},
		collapse:    WhiteSpacePreserve,
		current:     0,
		isSpanFirst: true,
	}
	return b
}

// SetWhiteSpaceCollapse sets the collapse mode applied when the next
// uncommitted text is flushed.
func (b *TreeBuilder) SetWhiteSpaceCollapse(mode WhiteSpaceCollapse) {
	b.collapse = mode
}

// PushText appends text to the uncommitted buffer for the current
// scope.
func (b *TreeBuilder) PushText(text string) {
	if text != "" {
		b.uncommitted.WriteString(text)
	}
}

// PushStyleSpan commits any uncommitted text to the current scope,
// then pushes a new child scope with the given style.
func (b *TreeBuilder) PushStyleSpan(style ComputedStyle) {
	b.flush(false)
	b.nodes = append(b.nodes, treeNode{parent: b.current, style: style, spanIdx: -1})
	b.current = len(b.nodes) - 1
	b.isSpanFirst = true
}

// PushStyleModificationSpan pushes a child scope whose style is the
// current scope's style with apply run against it — the equivalent of
// parley's push_style_modification_span.
func (b *TreeBuilder) PushStyleModificationSpan(apply func(*ComputedStyle)) {
	style := b.nodes[b.current].style
	apply(&style)
	b.PushStyleSpan(style)
}

// PopStyleSpan commits any uncommitted text (trimming its trailing
// edge under collapse mode) and returns to the parent scope. It panics
// if called at the root, mirroring the teacher's "popped root style".
func (b *TreeBuilder) PopStyleSpan() {
	b.flush(true)
	parent := b.nodes[b.current].parent
	if parent < 0 {
		panic("glyphflow: TreeBuilder: popped root style")
	}
	b.current = parent
}

// flush applies whitespace-collapse to the uncommitted buffer and
// appends the result as a new style run, unless it collapses to
// empty.
func (b *TreeBuilder) flush(isSpanLast bool) {
	raw := b.uncommitted.String()
	b.uncommitted.Reset()

	text := raw
	if b.collapse == WhiteSpaceCollapseMode {
		text = collapseWhitespace(text, b.isSpanFirst || b.lastWasRun && endsWithASCIISpace(b.text.String()), isSpanLast)
	}
	if text == "" {
		return
	}

	start := b.text.Len()
	styleIdx := b.resolveStyleID()
	b.runs = append(b.runs, StyleSpan{Range: ByteRange{Start: start, End: start + len(text)}, Style: b.table[styleIdx]})
	b.text.WriteString(text)
	b.isSpanFirst = false
	b.lastWasRun = true
}

func endsWithASCIISpace(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// collapseWhitespace applies CSS white-space: collapse rules: trim the
// leading edge if trimStart (span-first, or immediately following
// whitespace-ending text), trim the trailing edge if trimEnd, then
// collapse internal whitespace runs to single spaces.
func collapseWhitespace(s string, trimStart, trimEnd bool) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	runes := []rune(s)
	// Determine effective leading/trailing trim by scanning once and
	// writing single spaces for whitespace runs, then trim the result.
	for _, r := range runes {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
		if isSpace {
			if lastWasSpace {
				continue
			}
			b.WriteByte(' ')
			lastWasSpace = true
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	out := b.String()
	if trimStart {
		out = strings.TrimPrefix(out, " ")
	}
	if trimEnd {
		out = strings.TrimSuffix(out, " ")
	}
	return out
}

// resolveStyleID returns (assigning if necessary) the style-table
// index for the current scope, so repeated visits to the same scope
// reuse one table entry.
func (b *TreeBuilder) resolveStyleID() int {
	n := &b.nodes[b.current]
	if n.spanIdx >= 0 {
		return n.spanIdx
	}
	idx := len(b.table)
	b.table = append(b.table, n.style)
	n.spanIdx = idx
	return idx
}

// Finish pops any remaining open scopes, flushes trailing text, and
// returns the concatenated text plus one style span per committed text
// run, in the RangedBuilder's output shape. Adjacent spans with equal
// styles are not merged.
func (b *TreeBuilder) Finish() (text string, spans []StyleSpan) {
	for b.nodes[b.current].parent >= 0 {
		b.PopStyleSpan()
	}
	b.flush(true)
	return b.text.String(), b.runs
}
