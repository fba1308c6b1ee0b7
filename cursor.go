package glyphflow

import (
	"sort"

	"golang.org/x/image/math/fixed"
)

// Rect is an axis-aligned box in layout space (the same coordinate
// space as Cluster/Run advances and Line.Metrics.Baseline), used for
// caret and selection geometry.
type Rect struct {
	X0, X1 fixed.Int26_6
	Y0, Y1 fixed.Int26_6
}

// ComputeVisualOrder fills in every Line's VisualOrder by reordering its
// line items for display, following UAX #9's L2 rule at line-item
// granularity: repeatedly reverse maximal runs of items whose bidi
// level is at least the level under consideration, walking down from
// the highest level present to the lowest odd level. An InlineBox
// carries no bidi level of its own (it has no text direction), so it is
// treated as level 0, so it is never inside any reversal: it keeps its
// position, and odd-level items on either side of it reverse as
// separate runs.
//
// This is a from-scratch completion of cross-run reordering: the
// corpus's alignment.rs and run.rs only reorder a single run's own
// clusters (reversing for RTL), never multiple line items against each
// other, so there was no existing line-level algorithm to adapt.
func ComputeVisualOrder(layout *Layout) {
	for i := range layout.Lines {
		line := &layout.Lines[i]
		items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
		levels := make([]uint8, len(items))
		for j, it := range items {
			if it.Kind == LineItemRun {
				levels[j] = layout.Runs[it.Index].BidiLevel
			}
		}
		line.VisualOrder = visualOrderFromLevels(levels)
	}
}

func visualOrderFromLevels(levels []uint8) []int {
	order := identityOrder(len(levels))
	if len(levels) == 0 {
		return order
	}
	var maxLevel uint8
	minOdd := uint8(255)
	for _, l := range levels {
		if l > maxLevel {
			maxLevel = l
		}
		if l%2 == 1 && l < minOdd {
			minOdd = l
		}
	}
	if minOdd > maxLevel {
		return order
	}
	for level := maxLevel; ; level-- {
		i := 0
		for i < len(order) {
			if levels[order[i]] >= level {
				j := i
				for j < len(order) && levels[order[j]] >= level {
					j++
				}
				for a, b := i, j-1; a < b; a, b = a+1, b-1 {
					order[a], order[b] = order[b], order[a]
				}
				i = j
			} else {
				i++
			}
		}
		if level == minOdd {
			break
		}
	}
	return order
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// clusterIndexForByte returns the index into layout.Clusters of the
// rightmost cluster whose Range.Start <= i, following widget/index.go's
// closestToRune (sort.Search for the first position past the target,
// then step back one).
func clusterIndexForByte(layout *Layout, i int) int {
	clusters := layout.Clusters
	idx := sort.Search(len(clusters), func(k int) bool {
		return clusters[k].Range.Start > i
	})
	if idx > 0 {
		idx--
	}
	return idx
}

// SnapToClusterBoundary rounds i to whichever edge (start or end) of
// its containing cluster is nearer, so a byte offset obtained from an
// external source (not guaranteed to land on a grapheme boundary) can
// be turned into a valid Cursor.Index.
func SnapToClusterBoundary(layout *Layout, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= layout.TextLen || len(layout.Clusters) == 0 {
		return layout.TextLen
	}
	idx := clusterIndexForByte(layout, i)
	c := layout.Clusters[idx]
	if i-c.Range.Start <= c.Range.End-i {
		return c.Range.Start
	}
	return c.Range.End
}

// CursorFromByteIndex clamps i into the text and snaps it to the
// nearest cluster boundary, per spec §4.8's from_byte_index.
func CursorFromByteIndex(layout *Layout, i int, affinity Affinity) Cursor {
	if i < 0 {
		i = 0
	}
	if i > layout.TextLen {
		i = layout.TextLen
	}
	return Cursor{Index: SnapToClusterBoundary(layout, i), Affinity: affinity}
}

// LineIndexForCursor finds the line a cursor belongs to, using affinity
// to disambiguate a cursor sitting exactly on a line boundary (the
// shared byte offset between one line's end and the next one's start):
// Upstream attaches it to the end of the preceding line, Downstream to
// the start of the following one.
func LineIndexForCursor(layout *Layout, c Cursor) int {
	if len(layout.Lines) == 0 {
		return 0
	}
	idx := sort.Search(len(layout.Lines), func(i int) bool {
		return layout.Lines[i].TextRange.End > c.Index
	})
	if idx >= len(layout.Lines) {
		idx = len(layout.Lines) - 1
	}
	if c.Affinity == Upstream && idx > 0 && layout.Lines[idx].TextRange.Start == c.Index {
		idx--
	}
	return idx
}

// LineIndexForY finds the line whose vertical band contains y, per
// spec §4.8's from_point ("find the line whose vertical band contains
// y"), following widget/index.go's closestToXY (sort.Search on each
// position's descender edge).
func LineIndexForY(layout *Layout, y int) int {
	if len(layout.Lines) == 0 {
		return 0
	}
	idx := sort.Search(len(layout.Lines), func(i int) bool {
		m := layout.Lines[i].Metrics
		return int(m.Baseline+m.Descent) >= y
	})
	if idx >= len(layout.Lines) {
		idx = len(layout.Lines) - 1
	}
	return idx
}

// HitResult is the outcome of a point hit test: the resolved cursor,
// the line it landed on, and the cursor's resolved visual x (relative
// to the line's own origin, alignment offset included).
type HitResult struct {
	Cursor Cursor
	Line   int
	X      fixed.Int26_6
}

// CursorFromPoint implements spec §4.8's from_point: locate the line
// under y, then walk its items in visual order accumulating advances,
// choosing whichever side of the first cluster whose span contains x
// the point falls on — left half snaps to the cluster's visual-entry
// edge (Downstream for LTR, Upstream for RTL, since that edge is the
// lower logical byte for LTR and the higher one for RTL), right half to
// its visual-exit edge. Falls off the end of the line onto its final
// boundary if x is beyond every cluster's extent.
func CursorFromPoint(layout *Layout, x fixed.Int26_6, y int) HitResult {
	if len(layout.Lines) == 0 {
		return HitResult{}
	}
	lineIdx := LineIndexForY(layout, y)
	line := layout.Lines[lineIdx]
	items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
	order := line.VisualOrder
	if len(order) != len(items) {
		order = identityOrder(len(items))
	}

	cursorX := line.Metrics.Offset
	for _, oi := range order {
		item := items[oi]
		if item.Kind != LineItemRun {
			box := layout.Boxes[item.Index]
			mid := cursorX + box.Width/2
			if x < cursorX+box.Width {
				if x < mid {
					return HitResult{Cursor: Cursor{Index: box.Index, Affinity: Downstream}, Line: lineIdx, X: cursorX}
				}
				return HitResult{Cursor: Cursor{Index: box.Index, Affinity: Upstream}, Line: lineIdx, X: cursorX + box.Width}
			}
			cursorX += box.Width
			continue
		}
		run := layout.Runs[item.Index]
		rtl := run.BidiLevel&1 != 0
		n := run.ClusterRange.Count
		for k := 0; k < n; k++ {
			ci := k
			if rtl {
				ci = n - 1 - k
			}
			gi := run.ClusterRange.Offset + ci
			c := layout.Clusters[gi]
			if x < cursorX+c.Advance {
				mid := cursorX + c.Advance/2
				if x < mid {
					return HitResult{Cursor: visualLeftCursor(layout, gi), Line: lineIdx, X: cursorX}
				}
				return HitResult{Cursor: visualRightCursor(layout, gi), Line: lineIdx, X: cursorX + c.Advance}
			}
			cursorX += c.Advance
		}
	}
	return HitResult{Cursor: Cursor{Index: line.TextRange.End, Affinity: Upstream}, Line: lineIdx, X: cursorX}
}

// visualLeftCursor returns the Cursor that sits at the visual-left edge
// of the cluster at global index gi: its lower byte offset for an LTR
// cluster, its higher one (displayed reversed) for an RTL cluster.
func visualLeftCursor(layout *Layout, gi int) Cursor {
	c := layout.Clusters[gi]
	if c.BidiLevel&1 != 0 {
		return Cursor{Index: c.Range.End, Affinity: Upstream}
	}
	return Cursor{Index: c.Range.Start, Affinity: Downstream}
}

// visualRightCursor is visualLeftCursor's mirror: the cluster's
// visual-right edge.
func visualRightCursor(layout *Layout, gi int) Cursor {
	c := layout.Clusters[gi]
	if c.BidiLevel&1 != 0 {
		return Cursor{Index: c.Range.Start, Affinity: Downstream}
	}
	return Cursor{Index: c.Range.End, Affinity: Upstream}
}

// visualClusterSequence returns, for a line, the global cluster indices
// (into layout.Clusters) in left-to-right visual order — the sequence
// next_visual/previous_visual/caret geometry walk.
func visualClusterSequence(layout *Layout, lineIdx int) []int {
	line := layout.Lines[lineIdx]
	items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
	order := line.VisualOrder
	if len(order) != len(items) {
		order = identityOrder(len(items))
	}
	var seq []int
	for _, oi := range order {
		item := items[oi]
		if item.Kind != LineItemRun {
			continue
		}
		run := layout.Runs[item.Index]
		n := run.ClusterRange.Count
		if run.BidiLevel&1 != 0 {
			for k := n - 1; k >= 0; k-- {
				seq = append(seq, run.ClusterRange.Offset+k)
			}
		} else {
			for k := 0; k < n; k++ {
				seq = append(seq, run.ClusterRange.Offset+k)
			}
		}
	}
	return seq
}

// visualSlot locates c among seq's len(seq)+1 boundary positions: slot
// i (0 <= i < len(seq)) is the boundary immediately left of seq[i];
// slot len(seq) is the boundary right of the line's last cluster.
// Returns -1 if c belongs to neither edge of any cluster in seq (it is
// not on this line).
func visualSlot(layout *Layout, seq []int, c Cursor) int {
	for i, gi := range seq {
		if visualLeftCursor(layout, gi) == c {
			return i
		}
	}
	for i, gi := range seq {
		if visualRightCursor(layout, gi) == c {
			return i + 1
		}
	}
	return -1
}

// visualBoundary is visualSlot's inverse: the Cursor at boundary slot.
func visualBoundary(layout *Layout, seq []int, slot int) Cursor {
	if slot <= 0 {
		return visualLeftCursor(layout, seq[0])
	}
	if slot >= len(seq) {
		return visualRightCursor(layout, seq[len(seq)-1])
	}
	return visualLeftCursor(layout, seq[slot])
}

// NextVisual moves one cluster in visual (left-to-right screen) order,
// crossing bidi run boundaries transparently; at a line's visual end it
// wraps onto the following line's first visual position, per spec
// §4.8.
func NextVisual(layout *Layout, c Cursor) Cursor {
	lineIdx := LineIndexForCursor(layout, c)
	seq := visualClusterSequence(layout, lineIdx)
	if len(seq) == 0 {
		return c
	}
	slot := visualSlot(layout, seq, c)
	if slot < 0 {
		slot = 0
	}
	if slot < len(seq) {
		return visualBoundary(layout, seq, slot+1)
	}
	if lineIdx+1 < len(layout.Lines) {
		nextSeq := visualClusterSequence(layout, lineIdx+1)
		if len(nextSeq) > 0 {
			return visualBoundary(layout, nextSeq, 0)
		}
		return Cursor{Index: layout.Lines[lineIdx+1].TextRange.Start, Affinity: Downstream}
	}
	return c
}

// PreviousVisual is NextVisual's mirror.
func PreviousVisual(layout *Layout, c Cursor) Cursor {
	lineIdx := LineIndexForCursor(layout, c)
	seq := visualClusterSequence(layout, lineIdx)
	if len(seq) == 0 {
		return c
	}
	slot := visualSlot(layout, seq, c)
	if slot < 0 {
		slot = len(seq)
	}
	if slot > 0 {
		return visualBoundary(layout, seq, slot-1)
	}
	if lineIdx > 0 {
		prevSeq := visualClusterSequence(layout, lineIdx-1)
		if len(prevSeq) > 0 {
			return visualBoundary(layout, prevSeq, len(prevSeq))
		}
		return Cursor{Index: layout.Lines[lineIdx-1].TextRange.End, Affinity: Upstream}
	}
	return c
}

// NextLogical moves one grapheme cluster forward in byte order,
// ignoring visual presentation entirely.
func NextLogical(layout *Layout, c Cursor) Cursor {
	if c.Index >= layout.TextLen {
		return c
	}
	idx := clusterIndexForByte(layout, c.Index)
	if idx < len(layout.Clusters) {
		return Cursor{Index: layout.Clusters[idx].Range.End, Affinity: Downstream}
	}
	return Cursor{Index: layout.TextLen, Affinity: Upstream}
}

// PreviousLogical is NextLogical's mirror.
func PreviousLogical(layout *Layout, c Cursor) Cursor {
	if c.Index <= 0 {
		return c
	}
	idx := clusterIndexForByte(layout, c.Index-1)
	return Cursor{Index: layout.Clusters[idx].Range.Start, Affinity: Downstream}
}

// NextLine and PreviousLine move vertically while holding hPos (the
// sticky "visual x", per spec §4.8) constant, so a long vertical
// traversal stays in the same visual column rather than drifting
// toward whatever the nearer line's glyph boundaries happen to be.
// Callers capture hPos once (e.g. from VisualCaret's X) before the
// first vertical move and keep reusing the returned value across a run
// of NextLine/PreviousLine calls, only refreshing it on a horizontal
// move.
func NextLine(layout *Layout, c Cursor, hPos fixed.Int26_6) Cursor {
	lineIdx := LineIndexForCursor(layout, c)
	if lineIdx+1 >= len(layout.Lines) {
		return c
	}
	target := layout.Lines[lineIdx+1]
	return CursorFromPoint(layout, hPos, int(target.Metrics.Baseline)).Cursor
}

// PreviousLine is NextLine's mirror.
func PreviousLine(layout *Layout, c Cursor, hPos fixed.Int26_6) Cursor {
	lineIdx := LineIndexForCursor(layout, c)
	if lineIdx == 0 {
		return c
	}
	target := layout.Lines[lineIdx-1]
	return CursorFromPoint(layout, hPos, int(target.Metrics.Baseline)).Cursor
}

// caretX resolves a cursor already known to belong to lineIdx to its
// visual x offset within the line, by walking items in visual order
// (mirroring CursorFromPoint) until a cluster edge exactly matches c.
func caretX(layout *Layout, lineIdx int, c Cursor) fixed.Int26_6 {
	line := layout.Lines[lineIdx]
	items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
	order := line.VisualOrder
	if len(order) != len(items) {
		order = identityOrder(len(items))
	}
	x := line.Metrics.Offset
	for _, oi := range order {
		item := items[oi]
		if item.Kind != LineItemRun {
			box := layout.Boxes[item.Index]
			if c.Index == box.Index {
				return x
			}
			x += box.Width
			continue
		}
		run := layout.Runs[item.Index]
		n := run.ClusterRange.Count
		rtl := run.BidiLevel&1 != 0
		for k := 0; k < n; k++ {
			ci := k
			if rtl {
				ci = n - 1 - k
			}
			gi := run.ClusterRange.Offset + ci
			cl := layout.Clusters[gi]
			if visualLeftCursor(layout, gi) == c {
				return x
			}
			if visualRightCursor(layout, gi) == c {
				return x + cl.Advance
			}
			x += cl.Advance
		}
	}
	return x
}

// VisualCaret returns a 1-unit-wide rectangle at the cursor's resolved
// line and x position, spanning the line's ascent/descent, per spec
// §4.8.
func VisualCaret(layout *Layout, c Cursor) Rect {
	lineIdx := LineIndexForCursor(layout, c)
	line := layout.Lines[lineIdx]
	x := caretX(layout, lineIdx, c)
	return Rect{
		X0: x, X1: x + fixed.I(1),
		Y0: line.Metrics.Baseline - line.Metrics.Ascent,
		Y1: line.Metrics.Baseline + line.Metrics.Descent,
	}
}

// Geometry implements spec §4.8's geometry_with: one or more
// axis-aligned rectangles per line covered by the selection, following
// widget/index.go's locate (full lines between the endpoints' lines
// contribute a single full-width rectangle; the endpoints' own lines
// are walked precisely). rects, if non-nil, is reused as returned
// capacity allows, mirroring locate's allocation-avoidance parameter.
func (s Selection) Geometry(layout *Layout, rects []Rect) []Rect {
	rects = rects[:0]
	start, end := s.Anchor, s.Focus
	if start.Index > end.Index {
		start, end = end, start
	}
	if len(layout.Lines) == 0 {
		return rects
	}
	startLine := LineIndexForCursor(layout, start)
	endLine := LineIndexForCursor(layout, end)
	for li := startLine; li <= endLine; li++ {
		line := layout.Lines[li]
		lo, hi := start.Index, end.Index
		if li != startLine {
			lo = line.TextRange.Start
		}
		if li != endLine {
			hi = line.TextRange.End
		}
		rects = append(rects, lineSelectionRects(layout, li, lo, hi)...)
	}
	return rects
}

// lineSelectionRects computes one line's selection fragments: clusters
// covered by the half-open logical range [lo,hi) are accumulated into a
// visual-x span; a gap in coverage (which a bidi reorder can introduce,
// since logically-adjacent text need not be visually adjacent) flushes
// the span and starts a new one.
func lineSelectionRects(layout *Layout, lineIdx int, lo, hi int) []Rect {
	line := layout.Lines[lineIdx]
	items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
	order := line.VisualOrder
	if len(order) != len(items) {
		order = identityOrder(len(items))
	}
	y0 := line.Metrics.Baseline - line.Metrics.Ascent
	y1 := line.Metrics.Baseline + line.Metrics.Descent

	var rects []Rect
	x := line.Metrics.Offset
	var spanStart fixed.Int26_6
	inSpan := false
	flush := func(xEnd fixed.Int26_6) {
		if inSpan {
			rects = append(rects, Rect{X0: spanStart, X1: xEnd, Y0: y0, Y1: y1})
			inSpan = false
		}
	}
	mark := func(start int, width fixed.Int26_6) {
		covered := start >= lo && start < hi
		if covered && !inSpan {
			spanStart, inSpan = x, true
		} else if !covered {
			flush(x)
		}
		x += width
	}
	for _, oi := range order {
		item := items[oi]
		if item.Kind != LineItemRun {
			box := layout.Boxes[item.Index]
			mark(box.Index, box.Width)
			continue
		}
		run := layout.Runs[item.Index]
		n := run.ClusterRange.Count
		rtl := run.BidiLevel&1 != 0
		for k := 0; k < n; k++ {
			ci := k
			if rtl {
				ci = n - 1 - k
			}
			cl := layout.Clusters[run.ClusterRange.Offset+ci]
			mark(cl.Range.Start, cl.Advance)
		}
	}
	flush(x)
	return rects
}
