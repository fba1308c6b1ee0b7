package glyphflow

import (
	"unicode/utf8"

	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/glyphflow/glyphflow/ucd"
)

// SplitParagraphs divides text into paragraphs at mandatory line-break
// characters (LF, CR, NEL, U+2029), following the paragraph-at-a-time
// splitting text/gotext.go's layoutText performs before shaping
// (there, one paragraph per `\n`-terminated chunk of a bufio.Reader or
// string). Each returned range includes its terminating break
// character, if any; the final paragraph may lack one.
func SplitParagraphs(text string, table ucd.Table) []ByteRange {
	if text == "" {
		return []ByteRange{{0, 0}}
	}
	var out []ByteRange
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if table.Properties(r).IsMandatoryLineBreak {
			end := i + size
			if r == '\r' && end < len(text) && text[end] == '\n' {
				end++
			}
			out = append(out, ByteRange{start, end})
			start = end
			i = end
			continue
		}
		i += size
	}
	if start < len(text) || len(out) == 0 {
		out = append(out, ByteRange{start, len(text)})
	}
	return out
}

// LineBreaker wraps shaped paragraph outputs into Lines, delegating
// the UAX#14/UAX#29 candidate search to
// go-text/typesetting/shaping.LineWrapper, following
// text/gotext.go's shapeAndWrapText.
type LineBreaker struct {
	wrapper shaping.LineWrapper
}

// NewLineBreaker returns a ready-to-use LineBreaker.
func NewLineBreaker() *LineBreaker { return &LineBreaker{} }

// breakPolicy translates the module's word-break/overflow-wrap style
// properties into shaping.LineWrapper's three-way BreakPolicy, per
// spec §4.6: break-all and overflow-wrap:anywhere both relax the
// wrapper to break within words whenever it helps fit more text;
// keep-all forbids it outright; the default only breaks within a word
// when the word alone cannot fit a line.
func breakPolicy(wordBreak WordBreak, overflowWrap OverflowWrap) shaping.LineBreakPolicy {
	switch {
	case wordBreak == WordBreakKeepAll:
		return shaping.Never
	case wordBreak == WordBreakBreakAll, overflowWrap == OverflowWrapAnywhere, overflowWrap == OverflowWrapBreakWord:
		return shaping.Always
	default:
		return shaping.WhenNecessary
	}
}

// unboundedWidth is used in place of a real measure when TextWrapMode
// is NoWrap: per spec §9's Open Question decision, a paragraph that
// must not wrap is shaped as a single overflowing line rather than
// being clipped or erroring.
const unboundedWidth = 1 << 29

// BreakParagraph wraps a paragraph's shaped Items into lines at
// maxWidth (in the same fixed-point-derived integer units as
// shaping.Output.Advance.Ceil()), honoring style's wrap-mode and
// word-break/overflow-wrap policy.
func (b *LineBreaker) BreakParagraph(paragraph []rune, outputs []shaping.Output, maxWidth int, style ComputedStyle) ([]shaping.Line, int) {
	width := maxWidth
	if style.TextWrapMode == NoWrap {
		width = unboundedWidth
	}
	wc := shaping.WrapConfig{BreakPolicy: breakPolicy(style.WordBreak, style.OverflowWrap)}
	return b.wrapper.WrapParagraph(wc, width, paragraph, shaping.NewSliceIterator(outputs))
}

// classifyBreak reports why a line ended: BreakWrap for any line that
// is not its paragraph's last; for a paragraph's last line, BreakExplicit
// when the paragraph ends in its own mandatory break or is followed by
// another paragraph, and BreakNone at the true end of all text.
func classifyBreak(isLastLineOfParagraph, paragraphHasExplicitBreak, isLastParagraph bool) BreakReason {
	if !isLastLineOfParagraph {
		return BreakWrap
	}
	if paragraphHasExplicitBreak {
		return BreakExplicit
	}
	if isLastParagraph {
		return BreakNone
	}
	return BreakExplicit
}

// trailingWhitespaceAdvance sums the advance of a line's trailing
// whitespace clusters (any kind other than NotWhitespace, Newline
// included), which alignment
// excludes from the line's measured advance per spec §4.7.
func trailingWhitespaceAdvance(clusters []Cluster) fixed.Int26_6 {
	var sum fixed.Int26_6
	for i := len(clusters) - 1; i >= 0; i-- {
		c := clusters[i]
		if c.Whitespace == NotWhitespace {
			break
		}
		sum += c.Advance
	}
	return sum
}
