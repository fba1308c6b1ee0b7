package glyphflow

import (
	"sort"
	"unicode/utf8"

	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/glyphflow/glyphflow/ucd"
)

// LayoutOptions configures NewLayout's build pipeline: the shaper and
// line breaker to drive (typically shared across many Layouts, since
// both own their own small caches), the Unicode property table, the
// measure to wrap against, the requested alignment and base direction,
// the root font size for Rem resolution, and any inline boxes to
// splice into the flow.
type LayoutOptions struct {
	Shaper     *Shaper
	Breaker    *LineBreaker
	Table      ucd.Table
	MaxWidthPx int
	Alignment  Alignment
	Direction  BaseDirection
	RootSizePx float32
	Boxes      []InlineBox
}

// NewLayout runs the full staged pipeline -- paragraph splitting, bidi
// and script analysis, itemization, per-item shaping, line breaking,
// visual ordering, and alignment -- over text and its already-resolved
// style spans (as produced by RangedBuilder, TreeBuilder, and
// ResolveUnits), producing a frozen Layout. It plays the role
// text/gotext.go's shaperImpl.LayoutRunes plays for the teacher: the
// one function that turns raw styled text into something the rest of
// the package (cursor, access, align) can walk.
func NewLayout(text string, styles []StyleSpan, opts LayoutOptions) (*Layout, error) {
	if opts.Shaper == nil || opts.Breaker == nil {
		panic("glyphflow: NewLayout requires a Shaper and a LineBreaker")
	}
	table := opts.Table
	if table == nil {
		table = ucd.Default
	}
	rootSizePx := opts.RootSizePx
	if rootSizePx == 0 {
		rootSizePx = 16
		if len(styles) > 0 {
			rootSizePx = styles[0].Style.SizePx
		}
	}

	l := &Layout{TextLen: len(text), Styles: styles, Boxes: opts.Boxes}

	paragraphs := SplitParagraphs(text, table)
	for pi, prange := range paragraphs {
		if err := buildParagraph(l, text, prange, styles, opts, table, rootSizePx, pi == len(paragraphs)-1); err != nil {
			return nil, err
		}
	}

	markWordBoundaries(l.Clusters)
	assignLineYPositions(l.Lines)
	ComputeVisualOrder(l)

	alignWidth := fixed.I(opts.MaxWidthPx)
	if opts.MaxWidthPx <= 0 {
		alignWidth = AlignmentWidth(l)
	}
	l.alignWidth = alignWidth
	Align(l, opts.Alignment, alignWidth)

	return l, nil
}

// localStyle is a StyleSpan clipped to one paragraph's byte range, in
// paragraph-local offsets, carrying the index into the original styles
// slice so Item.StyleIndex still refers to the caller's spans.
type localStyle struct {
	Range ByteRange
	Index int
}

func localStylesFor(styles []StyleSpan, prange ByteRange) []localStyle {
	var out []localStyle
	for i, s := range styles {
		start, end := s.Range.Start, s.Range.End
		if start < prange.Start {
			start = prange.Start
		}
		if end > prange.End {
			end = prange.End
		}
		if start >= end {
			continue
		}
		out = append(out, localStyle{Range: ByteRange{start - prange.Start, end - prange.Start}, Index: i})
	}
	return out
}

// buildParagraph runs analysis, shaping, and line breaking for one
// paragraph and appends its Runs/Clusters/Glyphs/LineItems/Lines onto
// l, following text/gotext.go's shapeAndWrapText composed per
// paragraph (splitBidi → splitByScript → per-item shape → wrapper).
func buildParagraph(l *Layout, text string, prange ByteRange, styles []StyleSpan, opts LayoutOptions, table ucd.Table, rootSizePx float32, isLastParagraph bool) error {
	ptext := text[prange.Start:prange.End]
	if ptext == "" {
		return nil
	}
	hasExplicitBreak := endsWithMandatoryBreak(ptext, table)

	bidiRuns, err := ResolveBidi(ptext, opts.Direction)
	if err != nil {
		return err
	}
	scriptRuns := SplitScriptRuns(ptext)
	localStyles := localStylesFor(styles, prange)
	if len(localStyles) == 0 {
		return nil
	}

	items := itemizeParagraph(ptext, localStyles, bidiRuns, scriptRuns)
	if len(items) == 0 {
		return nil
	}

	itemRuneStarts := make([]int, len(items))
	itemRuneCounts := make([]int, len(items))
	runeCursor := 0
	for i, it := range items {
		itemRuneStarts[i] = runeCursor
		n := utf8.RuneCountInString(ptext[it.Range.Start:it.Range.End])
		itemRuneCounts[i] = n
		runeCursor += n
	}

	var paragraphStyle ComputedStyle
	outputs := make([]shaping.Output, len(items))
	for i := range items {
		item := &items[i]
		style := styles[item.StyleIndex].Style
		if i == 0 {
			paragraphStyle = style
		}
		if rec, ok := opts.Shaper.ResolveFace(style, item.Script); ok {
			item.Face = rec.Face.Face()
		}
		itemText := ptext[item.Range.Start:item.Range.End]
		sizePx := floatToFixed(style.SizePx)
		out, _ := opts.Shaper.ShapeItem(itemText, *item, style, sizePx)
		out.Runes.Offset = itemRuneStarts[i]
		out.Runes.Count = itemRuneCounts[i]
		outputs[i] = out
	}

	paragraphRunes := []rune(ptext)
	lines, _ := opts.Breaker.BreakParagraph(paragraphRunes, outputs, opts.MaxWidthPx, paragraphStyle)

	itemIdx := 0
	for li, shapingLine := range lines {
		lineItemStart := len(l.LineItems)
		clusterRunStart := len(l.Clusters)
		var lineAdvance, lineAscent, lineDescent, lineLeading fixed.Int26_6
		numSpaces := 0

		for _, out := range shapingLine {
			for itemIdx < len(items)-1 && out.Runes.Offset >= itemRuneStarts[itemIdx]+itemRuneCounts[itemIdx] {
				itemIdx++
			}
			item := items[itemIdx]
			style := styles[item.StyleIndex].Style
			byteBase := prange.Start + item.Range.Start

			run, clusters, glyphs := BuildRun(out, text, byteBase, item.StyleIndex, item.BidiLevel, style, rootSizePx, table)

			glyphOffsetBase := len(l.Glyphs)
			clusterOffsetBase := len(l.Clusters)
			run.ClusterRange = struct{ Offset, Count int }{clusterOffsetBase, len(clusters)}
			run.GlyphRange = struct{ Offset, Count int }{glyphOffsetBase, len(glyphs)}

			runIndex := len(l.Runs)
			l.Runs = append(l.Runs, run)
			l.Clusters = append(l.Clusters, clusters...)
			l.Glyphs = append(l.Glyphs, glyphs...)
			l.LineItems = append(l.LineItems, LineItem{Kind: LineItemRun, Index: runIndex})

			lineAdvance += run.Advance
			if run.Metrics.Ascent > lineAscent {
				lineAscent = run.Metrics.Ascent
			}
			if run.Metrics.Descent > lineDescent {
				lineDescent = run.Metrics.Descent
			}
			if run.Metrics.Leading > lineLeading {
				lineLeading = run.Metrics.Leading
			}
			for _, c := range clusters {
				if c.Whitespace.IsSpaceOrNBSP() {
					numSpaces++
				}
			}
		}

		lineClusters := l.Clusters[clusterRunStart:]
		trailingWS := trailingWhitespaceAdvance(lineClusters)

		var textRange ByteRange
		if len(lineClusters) > 0 {
			textRange = ByteRange{Start: lineClusters[0].Range.Start, End: lineClusters[len(lineClusters)-1].Range.End}
		}

		isLastLineOfParagraph := li == len(lines)-1
		l.Lines = append(l.Lines, Line{
			TextRange: textRange,
			ItemRange: struct{ Offset, Count int }{lineItemStart, len(l.LineItems) - lineItemStart},
			Metrics: LineMetrics{
				Ascent:             lineAscent,
				Descent:            lineDescent,
				Leading:            lineLeading,
				Advance:            lineAdvance,
				TrailingWhitespace: trailingWS,
			},
			BreakReason: classifyBreak(isLastLineOfParagraph, hasExplicitBreak, isLastParagraph),
			NumSpaces:   numSpaces,
		})
	}
	return nil
}

// endsWithMandatoryBreak reports whether ptext (a SplitParagraphs
// range, which always includes its own terminator) ends on a
// mandatory line-break character.
func endsWithMandatoryBreak(ptext string, table ucd.Table) bool {
	if ptext == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(ptext)
	return table.Properties(r).IsMandatoryLineBreak
}

// itemizeParagraph merges the style, bidi, and script partitions of a
// paragraph into maximal substrings sharing all three, following
// text/gotext.go's splitByFaces/splitByScript/splitBidi composition
// (there applied one partition at a time over a single shared input;
// here collapsed into one boundary merge since all three partitions
// are already fully computed up front).
func itemizeParagraph(ptext string, localStyles []localStyle, bidiRuns []BidiRun, scriptRuns []ScriptRun) []Item {
	n := len(ptext)
	var styleRanges, bidiRanges, scriptRanges []ByteRange
	for _, s := range localStyles {
		styleRanges = append(styleRanges, s.Range)
	}
	for _, r := range bidiRuns {
		bidiRanges = append(bidiRanges, r.Range)
	}
	for _, r := range scriptRuns {
		scriptRanges = append(scriptRanges, r.Range)
	}
	bounds := mergeBoundaries(n, styleRanges, bidiRanges, scriptRanges)

	var items []Item
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		if start >= end {
			continue
		}
		ls, ok := findCoveringLocalStyle(localStyles, start)
		if !ok {
			continue
		}
		items = append(items, Item{
			Range:      ByteRange{start, end},
			Script:     findCoveringScript(scriptRuns, start),
			BidiLevel:  findCoveringBidiLevel(bidiRuns, start),
			StyleIndex: ls.Index,
		})
	}
	return items
}

// mergeBoundaries collects every partition's start/end offsets (plus
// the paragraph's own 0 and n) into one sorted, deduplicated boundary
// list.
func mergeBoundaries(n int, partitions ...[]ByteRange) []int {
	set := make(map[int]bool, n)
	set[0] = true
	set[n] = true
	for _, p := range partitions {
		for _, r := range p {
			set[r.Start] = true
			set[r.End] = true
		}
	}
	bounds := make([]int, 0, len(set))
	for b := range set {
		if b >= 0 && b <= n {
			bounds = append(bounds, b)
		}
	}
	sort.Ints(bounds)
	return bounds
}

func findCoveringLocalStyle(styles []localStyle, offset int) (localStyle, bool) {
	for _, s := range styles {
		if offset >= s.Range.Start && offset < s.Range.End {
			return s, true
		}
	}
	return localStyle{}, false
}

func findCoveringBidiLevel(runs []BidiRun, offset int) uint8 {
	for _, r := range runs {
		if offset >= r.Range.Start && offset < r.Range.End {
			return r.Level
		}
	}
	return 0
}

func findCoveringScript(runs []ScriptRun, offset int) language.Script {
	for _, r := range runs {
		if offset >= r.Range.Start && offset < r.Range.End {
			return r.Script
		}
	}
	return language.Common
}

// markWordBoundaries marks the first cluster of every word (a maximal
// run of non-whitespace clusters) across the whole logically-ordered
// cluster sequence: a cluster starts a word if it is non-whitespace
// and either the very first cluster or immediately preceded by a
// whitespace-classified one. access.go's BuildNodes walks these flags
// to split WordLengths.
func markWordBoundaries(clusters []Cluster) {
	for i := range clusters {
		if clusters[i].Whitespace != NotWhitespace {
			clusters[i].IsWordBoundary = false
			continue
		}
		clusters[i].IsWordBoundary = i == 0 || clusters[i-1].Whitespace != NotWhitespace
	}
}

// assignLineYPositions accumulates each line's baseline and top-of-line
// offset down the page, following text/gotext.go's calculateYOffsets:
// each line descends by the previous line's descent and leading plus
// its own ascent.
func assignLineYPositions(lines []Line) {
	var y fixed.Int26_6
	for i := range lines {
		m := &lines[i].Metrics
		y += m.Ascent
		m.Baseline = y
		m.YOffset = y - m.Ascent
		y += m.Descent + m.Leading
	}
}
