// Package glyphflow is a rich-text layout engine: given a run of
// Unicode text with ranges of style properties and optional inline
// boxes, it produces a laid-out structure of lines, glyph runs, and
// positioned items, together with navigable cursor and selection
// objects. It does not rasterize pixels.
package glyphflow

import (
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	gfont "github.com/glyphflow/glyphflow/font"
	"golang.org/x/image/math/fixed"
)

// Alignment selects how a line's free space (alignment_width - advance)
// is distributed.
type Alignment uint8

const (
	Start Alignment = iota
	End
	Middle
	Justify
)

// Affinity disambiguates a byte-index cursor that sits exactly on a
// line boundary: Upstream belongs to the previous line, Downstream to
// the next.
type Affinity uint8

const (
	Upstream Affinity = iota
	Downstream
)

// BreakReason records why a line ended.
type BreakReason uint8

const (
	// BreakNone means the paragraph ran out of text; there was no
	// explicit break.
	BreakNone BreakReason = iota
	// BreakExplicit means the line ended at a mandatory break
	// (newline or paragraph separator).
	BreakExplicit
	// BreakWrap means the line ended at a greedy-fit wrap point.
	BreakWrap
	// BreakEmergency means the line ended at an emergency break
	// (overflow-wrap=anywhere, or an unbreakable word exceeding the
	// measure).
	BreakEmergency
)

// Whitespace classifies a cluster's whitespace kind, used by both the
// line breaker's word-break policy and alignment's space-or-nbsp
// detection for justify.
type Whitespace uint8

const (
	NotWhitespace Whitespace = iota
	Space
	NoBreakSpace
	Tab
	Newline
)

// IsSpaceOrNBSP reports whether w is justifiable whitespace.
func (w Whitespace) IsSpaceOrNBSP() bool { return w == Space || w == NoBreakSpace }

// WordBreak is the CSS word-break policy.
type WordBreak uint8

const (
	WordBreakNormal WordBreak = iota
	WordBreakBreakAll
	WordBreakKeepAll
)

// OverflowWrap is the CSS overflow-wrap policy.
type OverflowWrap uint8

const (
	OverflowWrapNormal OverflowWrap = iota
	OverflowWrapBreakWord
	OverflowWrapAnywhere
)

// TextWrapMode toggles whether a paragraph wraps at all.
type TextWrapMode uint8

const (
	WrapNormal TextWrapMode = iota
	NoWrap
)

// BaseDirection is the paragraph's requested base direction.
type BaseDirection uint8

const (
	DirectionAuto BaseDirection = iota
	DirectionLTR
	DirectionRTL
)

// LineHeightKind tags which of LineHeight's interpretations applies.
type LineHeightKind uint8

const (
	LineHeightNormal LineHeightKind = iota // metrics-relative 1.0
	LineHeightFactor                       // font-size-relative factor
	LineHeightPx
	LineHeightEm
	LineHeightRem
)

// LineHeight is a tagged line-height value in one of five CSS-derived
// modes.
type LineHeight struct {
	Kind  LineHeightKind
	Value float32
}

// Length is a tagged Px/Em/Rem length, used for word-spacing and
// letter-spacing; font-size is not a Length but a plain pixel value
// (ComputedStyle.SizePx).
type LengthUnit uint8

const (
	UnitPx LengthUnit = iota
	UnitEm
	UnitRem
)

type Length struct {
	Unit  LengthUnit
	Value float32
}

// Decoration describes an underline or strikethrough.
type Decoration struct {
	Enabled bool
	// Size and Offset are Px; zero means "use the font's metrics".
	Size, Offset float32
}

// FeatureTag is a 4-byte OpenType feature tag paired with its value,
// per spec §6 ("font-features (list of tag+u16)").
type FeatureTag struct {
	Tag   string
	Value uint16
}

// VariationTag is a 4-byte OpenType variation-axis tag paired with its
// value, per spec §6 ("font-variations (list of tag+f32)").
type VariationTag struct {
	Tag   string
	Value float32
}

// ComputedStyle is the fully-resolved style for a StyleSpan: every
// property named in spec §6's closed set.
type ComputedStyle struct {
	Families     []string
	Attrs        gfont.Attributes
	SizePx       float32
	Variations   []VariationTag
	Features     []FeatureTag
	Locale       language.Language
	Underline    Decoration
	Strikethrough Decoration
	LineHeight   LineHeight
	WordSpacing  Length
	LetterSpacing Length
	WordBreak    WordBreak
	OverflowWrap OverflowWrap
	TextWrapMode TextWrapMode
	BaseDirection BaseDirection
}

// StyleSpan is the computed style for a contiguous byte range.
// Immutable once a Layout is built.
type StyleSpan struct {
	Range ByteRange
	Style ComputedStyle
}

// BidiRun is a maximal substring with uniform embedding level.
type BidiRun struct {
	Range ByteRange
	Level uint8 // 0-125; even = LTR, odd = RTL
}

// Item is a maximal substring with uniform (style, script, embedding
// level, chosen font).
type Item struct {
	Range      ByteRange
	Script     language.Script
	BidiLevel  uint8
	StyleIndex int
	Face       font.Face
}

// Cluster is one grapheme-like shaping unit.
type Cluster struct {
	Range ByteRange
	// Advance is the total x-advance contributed by this cluster's
	// glyphs.
	Advance fixed.Int26_6
	// GlyphOffset/GlyphLen index into the owning Run's glyph slice.
	// GlyphLen == GlyphLenLigated means this cluster's glyphs live on
	// a neighbouring cluster (it was ligated away).
	GlyphOffset int
	GlyphLen    int
	Whitespace  Whitespace
	IsWordBoundary bool
	IsEmoji        bool
	BidiLevel      uint8
}

// GlyphLenLigated is the reserved sentinel meaning "ligated into a
// neighbour"; this cluster's glyphs live on an adjacent cluster.
const GlyphLenLigated = 0xFF

// Glyph is a single rendered, positioned glyph.
type Glyph struct {
	GlyphID    font.GID
	X, Y       fixed.Int26_6
	Advance    fixed.Int26_6
	StyleIndex int
}

// RunMetrics holds the vertical metrics of a Run, in the teacher's
// fixed-point representation.
type RunMetrics struct {
	Ascent, Descent, Leading   fixed.Int26_6
	UnderlinePos, UnderlineThk fixed.Int26_6
	StrikethroughPos, StrikethroughThk fixed.Int26_6
	LineHeight fixed.Int26_6
}

// Run is a contiguous span of clusters sharing font, size, and bidi
// level.
type Run struct {
	Face         font.Face
	SizePx       fixed.Int26_6
	Metrics      RunMetrics
	ClusterRange struct{ Offset, Count int }
	GlyphRange   struct{ Offset, Count int }
	BidiLevel    uint8
	Advance      fixed.Int26_6
}

// InlineBox is an externally supplied rectangle embedded at a byte
// index, participating in line metrics like a zero-width cluster.
type InlineBox struct {
	ID     uint64
	Index  int
	Width  fixed.Int26_6
	Height fixed.Int26_6
}

// LineItemKind tags a Line's line_items entries.
type LineItemKind uint8

const (
	LineItemRun LineItemKind = iota
	LineItemInlineBox
)

// LineItem references either a Run or an InlineBox, by index, stored
// in logical order within Layout.LineItems (visual order is derived
// via VisualOrder).
type LineItem struct {
	Kind  LineItemKind
	Index int // index into Layout.Runs or Layout.Boxes
}

// LineMetrics aggregates a Line's vertical placement and free-space
// bookkeeping.
type LineMetrics struct {
	Ascent, Descent, Leading  fixed.Int26_6
	Baseline                  fixed.Int26_6
	YOffset                   fixed.Int26_6
	Advance                   fixed.Int26_6
	TrailingWhitespace        fixed.Int26_6
	// Offset is the horizontal start position alignment assigns the
	// line (0 for Start and Justify, which widens spaces instead;
	// positive for End/Middle).
	Offset fixed.Int26_6
}

// Line is one output line.
type Line struct {
	TextRange  ByteRange
	ItemRange  struct{ Offset, Count int }
	Metrics    LineMetrics
	BreakReason BreakReason
	Alignment  Alignment
	NumSpaces  int
	// VisualOrder lists indices into the line's item range (relative,
	// 0-based) in left-to-right visual order.
	VisualOrder []int
}

// Layout is the whole frozen result of a layout build.
type Layout struct {
	TextLen int
	Styles  []StyleSpan
	Clusters []Cluster
	Glyphs   []Glyph
	Runs     []Run
	LineItems []LineItem
	Lines    []Line
	Boxes    []InlineBox

	// alignWidth is the width alignment/justify measures against; it
	// is set by NewLayout.
	alignWidth fixed.Int26_6
}

// Cursor is a logical position: a byte index plus an affinity. It is a
// pure value; derived fields (line, run, cluster, visual x) are
// recomputed on demand against a specific Layout.
type Cursor struct {
	Index    int
	Affinity Affinity
}

// Selection is an anchor/focus pair of cursors.
type Selection struct {
	Anchor, Focus Cursor
}

// TextRange returns the byte range between the selection's endpoints
// in byte order (Anchor may be after Focus).
func (s Selection) TextRange() ByteRange {
	a, b := s.Anchor.Index, s.Focus.Index
	if a > b {
		a, b = b, a
	}
	return ByteRange{Start: a, End: b}
}
