package glyphflow

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"

	"github.com/glyphflow/glyphflow/ucd"
)

// ResolveBidi computes maximal equal-direction BidiRuns over text under
// the given base direction, following text/gotext.go's splitBidi: the
// paragraph's default direction is derived from base (LTR/RTL), or left
// to the Unicode Bidirectional Algorithm's own first-strong-character
// detection when base is DirectionAuto, then golang.org/x/text/unicode/bidi
// resolves runs which are translated from rune to byte offsets.
//
// Like the teacher, this only distinguishes two levels (0 = LTR, 1 =
// RTL) rather than exposing the full UBA embedding-level stack; nested
// embeddings collapse to their net direction. This mirrors
// golang.org/x/text/unicode/bidi's own public surface, which reports
// per-run Direction() but not raw levels.
func ResolveBidi(text string, base BaseDirection) ([]BidiRun, error) {
	if text == "" {
		return nil, nil
	}
	def := bidi.LeftToRight
	if base == DirectionRTL {
		def = bidi.RightToLeft
	}
	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(def)); err != nil {
		return nil, err
	}
	order, err := p.Order()
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	runeToByte := make([]int, len(runes)+1)
	off := 0
	for i, r := range runes {
		runeToByte[i] = off
		off += utf8.RuneLen(r)
	}
	runeToByte[len(runes)] = len(text)

	var runs []BidiRun
	for i := 0; i < order.NumRuns(); i++ {
		run := order.Run(i)
		start, end := run.Pos()
		level := uint8(0)
		if run.Direction() == bidi.RightToLeft {
			level = 1
		}
		br := BidiRun{Range: ByteRange{Start: runeToByte[start], End: runeToByte[end+1]}, Level: level}
		if n := len(runs); n > 0 && runs[n-1].Level == level && runs[n-1].Range.End == br.Range.Start {
			runs[n-1].Range.End = br.Range.End
			continue
		}
		runs = append(runs, br)
	}
	if len(runs) == 0 {
		runs = []BidiRun{{Range: ByteRange{0, len(text)}, Level: 0}}
	}
	return runs, nil
}

// ScriptRun is a maximal substring assigned a single resolved script.
type ScriptRun struct {
	Range  ByteRange
	Script language.Script
}

// SplitScriptRuns partitions text into ScriptRuns, propagating script
// through Common and Inherited runs so neutrals (punctuation,
// combining marks) inherit the neighbouring resolved script, following
// text/gotext.go's splitByScript (per-rune language.LookupScript with
// Common-run absorption).
func SplitScriptRuns(text string) []ScriptRun {
	if text == "" {
		return nil
	}
	type scriptedRune struct {
		offset int
		size   int
		script language.Script
	}
	var runes []scriptedRune
	for i, r := range text {
		sc := language.LookupScript(r)
		runes = append(runes, scriptedRune{offset: i, size: utf8.RuneLen(r), script: sc})
	}

	firstResolved := 0
	for firstResolved < len(runes) && isPropagatingScript(runes[firstResolved].script) {
		firstResolved++
	}
	resolved := language.Common
	if firstResolved < len(runes) {
		resolved = runes[firstResolved].script
	} else if len(runes) > 0 {
		resolved = runes[0].script
	}

	var out []ScriptRun
	runStart := 0
	current := resolved
	for i := range runes {
		sc := runes[i].script
		if isPropagatingScript(sc) || sc == current {
			continue
		}
		end := runes[i].offset
		if end > runStart {
			out = append(out, ScriptRun{Range: ByteRange{runStart, end}, Script: current})
		}
		runStart = end
		current = sc
	}
	out = append(out, ScriptRun{Range: ByteRange{runStart, len(text)}, Script: current})
	return out
}

func isPropagatingScript(s language.Script) bool {
	return s == language.Common || s == language.Inherited
}

// ClusterBoundaries reports the byte offsets at which a new grapheme
// cluster starts, computed from the GCB property plus regional-
// indicator pairing and emoji extended sequences: ZWJ joins contiguous
// emoji-or-pictographic characters; VS16 (U+FE0F) extends the
// preceding base rather than starting a new cluster, per spec §4.4.
func ClusterBoundaries(text string, table ucd.Table) []int {
	if text == "" {
		return nil
	}
	type rc struct {
		offset int
		r      rune
		p      ucd.Properties
	}
	var rs []rc
	for i, r := range text {
		rs = append(rs, rc{offset: i, r: r, p: table.Properties(r)})
	}

	bounds := []int{0}
	riRun := 0
	for i := 1; i < len(rs); i++ {
		prev, cur := rs[i-1], rs[i]
		if !isGraphemeBoundary(prev, cur, &riRun) {
			continue
		}
		bounds = append(bounds, cur.offset)
	}
	return bounds
}

// isGraphemeBoundary applies a simplified but order-faithful subset of
// UAX #29's grapheme cluster boundary rules (GB3-GB9c, plus GB12/13 for
// regional indicators), sufficient for line layout: it does not break
// before Extend/ZWJ/SpacingMark, does not break within
// CR×LF/Hangul-syllable sequences, does not break an
// emoji-or-pictographic base joined by ZWJ to a following
// emoji-or-pictographic, does not break before a variation selector,
// and pairs regional indicators two at a time.
func isGraphemeBoundary(prev, cur struct {
	offset int
	r      rune
	p      ucd.Properties
}, riRun *int) bool {
	// GB3: CR x LF
	if prev.r == '\r' && cur.r == '\n' {
		return false
	}
	// GB9, GB9a: x Extend, x SpacingMark
	if cur.p.GraphemeClusterBreak == ucd.GCBExtend || cur.p.GraphemeClusterBreak == ucd.GCBSpacingMark || cur.p.GraphemeClusterBreak == ucd.GCBZWJ {
		return false
	}
	if cur.p.IsVariationSelector {
		return false
	}
	// GB9b: Prepend x
	if prev.p.GraphemeClusterBreak == ucd.GCBPrepend {
		return false
	}
	// ZWJ-joined emoji sequences: (Extended_Pictographic ZWJ) x Extended_Pictographic
	if prev.p.GraphemeClusterBreak == ucd.GCBZWJ && cur.p.IsEmojiOrPictographic {
		return false
	}
	// GB6-GB8: Hangul syllable sequences
	switch {
	case prev.p.GraphemeClusterBreak == ucd.GCBL && (cur.p.GraphemeClusterBreak == ucd.GCBL || cur.p.GraphemeClusterBreak == ucd.GCBV || cur.p.GraphemeClusterBreak == ucd.GCBLV || cur.p.GraphemeClusterBreak == ucd.GCBLVT):
		return false
	case (prev.p.GraphemeClusterBreak == ucd.GCBLV || prev.p.GraphemeClusterBreak == ucd.GCBV) && (cur.p.GraphemeClusterBreak == ucd.GCBV || cur.p.GraphemeClusterBreak == ucd.GCBT):
		return false
	case (prev.p.GraphemeClusterBreak == ucd.GCBLVT || prev.p.GraphemeClusterBreak == ucd.GCBT) && cur.p.GraphemeClusterBreak == ucd.GCBT:
		return false
	}
	// GB12/13: regional indicator pairing
	if prev.p.GraphemeClusterBreak == ucd.GCBRegionalIndicator && cur.p.GraphemeClusterBreak == ucd.GCBRegionalIndicator {
		*riRun++
		if *riRun%2 == 1 {
			return false
		}
		return true
	}
	*riRun = 0
	return true
}

// ClusterForm is one of the three text forms a cluster's source text
// can be tried in, in the order parley's CharCluster::map attempts
// them: the font may cover the original text, the fully decomposed
// (NFD) form, or the fully composed (NFC) form better than the others.
type ClusterForm uint8

const (
	FormOriginal ClusterForm = iota
	FormNFD
	FormNFC
)

// NormalizationForms returns the NFD and NFC renderings of a cluster's
// source text, for the shaper to try alongside the original in that
// order, following parley's decomposed()/composed() (decompose first;
// compose is itself derived from the decomposed form, not the
// original, matching Unicode's canonical composition algorithm).
func NormalizationForms(clusterText string) (nfd, nfc string) {
	return norm.NFD.String(clusterText), norm.NFC.String(clusterText)
}

// ClassifyWhitespace maps a rune to the spec's closed Whitespace
// taxonomy.
func ClassifyWhitespace(r rune) Whitespace {
	switch r {
	case ' ':
		return Space
	case ' ':
		return NoBreakSpace
	case '\t':
		return Tab
	case '\n', '\r', '', ' ':
		return Newline
	default:
		if unicode.IsSpace(r) {
			return Space
		}
		return NotWhitespace
	}
}
