package glyphflow

import "sort"

// Property is a single style assignment over a byte range: the
// mutator applies one computed-style property to every span it fully
// or partially covers.
type Property struct {
	Range  ByteRange
	Apply  func(*ComputedStyle)
}

// RangedBuilder resolves a ranged declaration list into a flat,
// coalesced sequence of StyleSpans, following
// parley::resolve::range::RangedStyleBuilder: initialize with one
// default span, then for each property split the spans it partially
// covers and apply it to every span it fully covers, then merge
// adjacent equal spans once at the end.
//
// Properties are applied in the order Push is called; per spec §9's
// "Open question", when two pushed properties' ranges overlap on the
// same underlying field, the most recently pushed one wins at that
// byte — this falls out naturally from applying properties strictly
// in call order and never reordering them.
type RangedBuilder struct {
	textLen int
	def     ComputedStyle
	spans   []StyleSpan
}

// NewRangedBuilder starts a builder for text of length textLen, with
// defaultStyle applied to the whole range.
func NewRangedBuilder(textLen int, defaultStyle ComputedStyle) *RangedBuilder {
	return &RangedBuilder{
		textLen: textLen,
		def:     defaultStyle,
		spans:   []StyleSpan{{Range: ByteRange{0, textLen}, Style: defaultStyle}},
	}
}

// Push applies prop to every span overlapping prop.Range, splitting
// the spans at prop.Range's endpoints first if they fall in a span's
// interior.
func (b *RangedBuilder) Push(prop Property) {
	r := prop.Range
	if r.Start >= r.End || r.Start < 0 || r.End > b.textLen {
		return
	}
	b.splitAt(r.Start)
	b.splitAt(r.End)
	for i := range b.spans {
		s := &b.spans[i]
		if s.Range.Start >= r.Start && s.Range.End <= r.End {
			prop.Apply(&s.Style)
		}
	}
}

// splitAt ensures offset is a span boundary, splitting the span that
// contains it in its interior (if any) into two spans with identical
// style.
func (b *RangedBuilder) splitAt(offset int) {
	if offset == 0 || offset == b.textLen {
		return
	}
	i := b.spanContaining(offset)
	if i < 0 {
		return
	}
	s := b.spans[i]
	if s.Range.Start == offset || s.Range.End == offset {
		return
	}
	left := StyleSpan{Range: ByteRange{s.Range.Start, offset}, Style: s.Style}
	right := StyleSpan{Range: ByteRange{offset, s.Range.End}, Style: s.Style}
	b.spans = append(b.spans, StyleSpan{})
	copy(b.spans[i+2:], b.spans[i+1:])
	b.spans[i] = left
	b.spans[i+1] = right
}

// spanContaining finds the span index whose range contains offset via
// binary search over the (sorted, non-overlapping) span list.
func (b *RangedBuilder) spanContaining(offset int) int {
	i := sort.Search(len(b.spans), func(i int) bool {
		return b.spans[i].Range.End > offset
	})
	if i < len(b.spans) && b.spans[i].Range.Start <= offset {
		return i
	}
	return -1
}

// Finish merges adjacent spans with identical computed style and
// returns the final span list.
func (b *RangedBuilder) Finish() []StyleSpan {
	if len(b.spans) == 0 {
		return nil
	}
	out := b.spans[:1]
	for _, s := range b.spans[1:] {
		last := &out[len(out)-1]
		if last.Range.End == s.Range.Start && stylesEqual(last.Style, s.Style) {
			last.Range.End = s.Range.End
			continue
		}
		out = append(out, s)
	}
	return out
}

func stylesEqual(a, b ComputedStyle) bool {
	if len(a.Families) != len(b.Families) || len(a.Variations) != len(b.Variations) || len(a.Features) != len(b.Features) {
		return false
	}
	for i := range a.Families {
		if a.Families[i] != b.Families[i] {
			return false
		}
	}
	for i := range a.Variations {
		if a.Variations[i] != b.Variations[i] {
			return false
		}
	}
	for i := range a.Features {
		if a.Features[i] != b.Features[i] {
			return false
		}
	}
	return a.Attrs == b.Attrs &&
		a.SizePx == b.SizePx &&
		a.Locale == b.Locale &&
		a.Underline == b.Underline &&
		a.Strikethrough == b.Strikethrough &&
		a.LineHeight == b.LineHeight &&
		a.WordSpacing == b.WordSpacing &&
		a.LetterSpacing == b.LetterSpacing &&
		a.WordBreak == b.WordBreak &&
		a.OverflowWrap == b.OverflowWrap &&
		a.TextWrapMode == b.TextWrapMode &&
		a.BaseDirection == b.BaseDirection
}

// ResolveUnits resolves em/rem-relative fields against rootSizePx (the
// root font-size) and the final computed SizePx of each span (for
// em-relative line-height/word-spacing/letter-spacing on that same
// span), per spec §4.3's final paragraph. Em/Rem line-heights become
// Px, and word-spacing/letter-spacing become Px lengths.
func ResolveUnits(spans []StyleSpan, rootSizePx float32) {
	for i := range spans {
		s := &spans[i].Style
		s.LineHeight.Value = resolveLineHeight(s.LineHeight, s.SizePx, rootSizePx)
		if s.LineHeight.Kind == LineHeightEm || s.LineHeight.Kind == LineHeightRem {
			s.LineHeight.Kind = LineHeightPx
		}
		s.WordSpacing = Length{Unit: UnitPx, Value: ResolveLength(s.WordSpacing, s.SizePx, rootSizePx)}
		s.LetterSpacing = Length{Unit: UnitPx, Value: ResolveLength(s.LetterSpacing, s.SizePx, rootSizePx)}
	}
}

func resolveLineHeight(lh LineHeight, sizePx, rootSizePx float32) float32 {
	switch lh.Kind {
	case LineHeightPx:
		return lh.Value
	case LineHeightEm:
		return lh.Value * sizePx
	case LineHeightRem:
		return lh.Value * rootSizePx
	case LineHeightFactor:
		return lh.Value // font-size-relative factor, resolved by the run metrics consumer
	case LineHeightNormal:
		return 1.0 // metrics-relative 1.0, resolved by the run metrics consumer
	default:
		return lh.Value
	}
}

// ResolveLength converts a Length to pixels given the span's computed
// font size and the root font size (for Rem).
func ResolveLength(l Length, sizePx, rootSizePx float32) float32 {
	switch l.Unit {
	case UnitEm:
		return l.Value * sizePx
	case UnitRem:
		return l.Value * rootSizePx
	default:
		return l.Value
	}
}
