// Package ucd provides a per-codepoint Unicode property lookup used by
// the analysis stage: script, general category, grapheme-cluster-break
// class, bidi class, and a handful of single-bit flags, packed the way
// a compiled Unicode data trie would be, but backed here by the
// standard library's own category tables rather than a bespoke trie —
// see DESIGN.md for why.
package ucd

import (
	"unicode"

	"golang.org/x/text/unicode/bidi"
)

// GeneralCategory is a coarse Unicode general-category bucket.
type GeneralCategory uint8

const (
	CategoryOther GeneralCategory = iota
	CategoryLetter
	CategoryMark
	CategoryNumber
	CategoryPunctuation
	CategorySymbol
	CategorySeparator
)

// GraphemeClusterBreak is the Unicode UAX #29 grapheme-cluster-break
// property value of a codepoint, coarsened to the classes this module
// needs in order to form clusters.
type GraphemeClusterBreak uint8

const (
	GCBOther GraphemeClusterBreak = iota
	GCBControl
	GCBExtend
	GCBZWJ
	GCBRegionalIndicator
	GCBPrepend
	GCBSpacingMark
	GCBL
	GCBV
	GCBT
	GCBLV
	GCBLVT
)

// Properties is the packed per-codepoint record the analysis stage
// consults. It mirrors the fields spec §4.1 names: script is left to
// the caller (via github.com/go-text/typesetting/language, which
// already provides richer script tables than a single bit-field could
// hold; golang.org/x/text/unicode/bidi supplies only BidiClass) — Table
// only packs the remaining fields that genuinely are boolean or small
// enums.
type Properties struct {
	Category             GeneralCategory
	GraphemeClusterBreak  GraphemeClusterBreak
	BidiClass             bidi.Class
	IsEmojiOrPictographic bool
	IsVariationSelector   bool
	IsRegionalIndicator   bool
	IsMandatoryLineBreak  bool
}

// Table is the abstract capability the analysis stage depends on,
// matching spec §6's "Unicode data" external interface: a single
// properties(ch) lookup function. Callers who want a smaller binary,
// or who want to feed synthetic data in tests, may supply their own
// implementation.
type Table interface {
	Properties(ch rune) Properties
}

// Default is the built-in Table, backed by the standard library's
// unicode range tables and golang.org/x/text/unicode/bidi's class
// lookup.
var Default Table = defaultTable{}

type defaultTable struct{}

func (defaultTable) Properties(ch rune) Properties {
	return Lookup(ch)
}

// Lookup computes the Properties of a single codepoint.
func Lookup(ch rune) Properties {
	return Properties{
		Category:              categoryOf(ch),
		GraphemeClusterBreak:  gcbOf(ch),
		BidiClass:             bidi.LookupRune(ch).Class(),
		IsEmojiOrPictographic: isEmojiOrPictographic(ch),
		IsVariationSelector:   ch >= 0xFE00 && ch <= 0xFE0F || ch >= 0xE0100 && ch <= 0xE01EF,
		IsRegionalIndicator:   ch >= 0x1F1E6 && ch <= 0x1F1FF,
		IsMandatoryLineBreak:  isMandatoryLineBreak(ch),
	}
}

func categoryOf(ch rune) GeneralCategory {
	switch {
	case unicode.IsLetter(ch):
		return CategoryLetter
	case unicode.Is(unicode.Mn, ch), unicode.Is(unicode.Mc, ch), unicode.Is(unicode.Me, ch):
		return CategoryMark
	case unicode.IsNumber(ch):
		return CategoryNumber
	case unicode.IsPunct(ch):
		return CategoryPunctuation
	case unicode.IsSymbol(ch):
		return CategorySymbol
	case unicode.IsSpace(ch), unicode.Is(unicode.Zl, ch), unicode.Is(unicode.Zp, ch):
		return CategorySeparator
	default:
		return CategoryOther
	}
}

// gcbOf approximates the UAX #29 grapheme-cluster-break property using
// the Unicode categories and ranges available through the standard
// library, sufficient to drive cluster formation per spec §4.4: ZWJ
// and regional-indicator pairing, plus the Hangul L/V/T/LV/LVT classes
// that make up complete Hangul syllables.
func gcbOf(ch rune) GraphemeClusterBreak {
	switch {
	case ch == 0x200D:
		return GCBZWJ
	case ch >= 0x1F1E6 && ch <= 0x1F1FF:
		return GCBRegionalIndicator
	case unicode.Is(unicode.Cc, ch):
		return GCBControl
	case unicode.Is(unicode.Mn, ch), unicode.Is(unicode.Me, ch), ch == 0xFF9E, ch == 0xFF9F:
		return GCBExtend
	case unicode.Is(unicode.Mc, ch):
		return GCBSpacingMark
	case isHangulL(ch):
		return GCBL
	case isHangulV(ch):
		return GCBV
	case isHangulT(ch):
		return GCBT
	case isHangulLV(ch):
		return GCBLV
	case isHangulLVT(ch):
		return GCBLVT
	case unicode.Is(unicode.Cf, ch) && ch != 0x200D:
		return GCBPrepend
	default:
		return GCBOther
	}
}

func isHangulL(ch rune) bool  { return ch >= 0x1100 && ch <= 0x115F || ch >= 0xA960 && ch <= 0xA97C }
func isHangulV(ch rune) bool  { return ch >= 0x1160 && ch <= 0x11A7 || ch >= 0xD7B0 && ch <= 0xD7C6 }
func isHangulT(ch rune) bool  { return ch >= 0x11A8 && ch <= 0x11FF || ch >= 0xD7CB && ch <= 0xD7FB }
func isHangulLV(ch rune) bool { return isCompleteSyllable(ch) && (ch-0xAC00)%28 == 0 }
func isHangulLVT(ch rune) bool {
	return isCompleteSyllable(ch) && (ch-0xAC00)%28 != 0
}
func isCompleteSyllable(ch rune) bool { return ch >= 0xAC00 && ch <= 0xD7A3 }

// isEmojiOrPictographic reports whether ch is plausibly emoji or
// pictographic for the purposes of ZWJ-sequence joining: the emoji
// presentation and symbol ranges, excluding plain ASCII digits/'#'/'*'
// which only become emoji with an explicit keycap sequence.
func isEmojiOrPictographic(ch rune) bool {
	switch {
	case ch >= 0x1F000 && ch <= 0x1FFFF:
		return true
	case ch >= 0x2600 && ch <= 0x27BF:
		return true
	case ch >= 0x2300 && ch <= 0x23FF:
		return true
	case ch == 0x203C || ch == 0x2049:
		return true
	default:
		return false
	}
}

// isMandatoryLineBreak reports the spec §4.1 mandatory-line-break
// flag: LF, CR, NEL, and the Unicode paragraph separator.
func isMandatoryLineBreak(ch rune) bool {
	switch ch {
	case '\n', '\r', 0x0085, 0x2029:
		return true
	default:
		return false
	}
}

// NeedsBidiResolution reports whether ch's bidi class requires the
// full Unicode Bidirectional Algorithm to be run (as opposed to being
// trivially left-to-right and skippable): the explicit formatting
// classes plus the three classes that can flip a paragraph's
// direction (R, AL, AN).
func NeedsBidiResolution(p Properties) bool {
	switch p.BidiClass {
	case bidi.R, bidi.AL, bidi.AN,
		bidi.LRE, bidi.LRO, bidi.RLE, bidi.RLO, bidi.PDF,
		bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI:
		return true
	default:
		return false
	}
}
