package glyphflow

import (
	"testing"

	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/glyphflow/glyphflow/ucd"
)

func TestSplitParagraphsEmptyText(t *testing.T) {
	got := SplitParagraphs("", ucd.Default)
	if len(got) != 1 || got[0] != (ByteRange{0, 0}) {
		t.Fatalf("got %+v, want one empty range", got)
	}
}

func TestSplitParagraphsNoBreaks(t *testing.T) {
	got := SplitParagraphs("hello world", ucd.Default)
	if len(got) != 1 || got[0] != (ByteRange{0, 11}) {
		t.Fatalf("got %+v, want one range covering the whole text", got)
	}
}

func TestSplitParagraphsSplitsAtLF(t *testing.T) {
	got := SplitParagraphs("ab\ncd", ucd.Default)
	want := []ByteRange{{0, 3}, {3, 5}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestSplitParagraphsCRLFStaysTogether(t *testing.T) {
	got := SplitParagraphs("ab\r\ncd", ucd.Default)
	want := []ByteRange{{0, 4}, {4, 6}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestSplitParagraphsTrailingBreakHasNoEmptyFinalParagraph(t *testing.T) {
	got := SplitParagraphs("ab\n", ucd.Default)
	if len(got) != 1 || got[0] != (ByteRange{0, 3}) {
		t.Fatalf("got %+v, want a single paragraph ending at the break", got)
	}
}

func TestBreakPolicyKeepAllIsNever(t *testing.T) {
	if got := breakPolicy(WordBreakKeepAll, OverflowWrapNormal); got != shaping.Never {
		t.Fatalf("got %v, want Never", got)
	}
}

func TestBreakPolicyBreakAllIsAlways(t *testing.T) {
	if got := breakPolicy(WordBreakBreakAll, OverflowWrapNormal); got != shaping.Always {
		t.Fatalf("got %v, want Always", got)
	}
}

func TestBreakPolicyOverflowWrapAnywhereIsAlways(t *testing.T) {
	if got := breakPolicy(WordBreakNormal, OverflowWrapAnywhere); got != shaping.Always {
		t.Fatalf("got %v, want Always", got)
	}
}

func TestBreakPolicyDefaultIsWhenNecessary(t *testing.T) {
	if got := breakPolicy(WordBreakNormal, OverflowWrapNormal); got != shaping.WhenNecessary {
		t.Fatalf("got %v, want WhenNecessary", got)
	}
}

func TestClassifyBreakNonLastLineIsWrap(t *testing.T) {
	if got := classifyBreak(false, true, false); got != BreakWrap {
		t.Fatalf("got %v, want BreakWrap", got)
	}
}

func TestClassifyBreakExplicitParagraphBreak(t *testing.T) {
	if got := classifyBreak(true, true, false); got != BreakExplicit {
		t.Fatalf("got %v, want BreakExplicit", got)
	}
}

func TestClassifyBreakTrueEndOfText(t *testing.T) {
	if got := classifyBreak(true, false, true); got != BreakNone {
		t.Fatalf("got %v, want BreakNone", got)
	}
}

func TestClassifyBreakNonFinalParagraphWithoutOwnBreak(t *testing.T) {
	if got := classifyBreak(true, false, false); got != BreakExplicit {
		t.Fatalf("got %v, want BreakExplicit", got)
	}
}

func TestTrailingWhitespaceAdvanceSumsTrailingRun(t *testing.T) {
	clusters := []Cluster{
		{Advance: fixed.I(10), Whitespace: NotWhitespace},
		{Advance: fixed.I(5), Whitespace: Space},
		{Advance: fixed.I(3), Whitespace: Tab},
	}
	got := trailingWhitespaceAdvance(clusters)
	if got != fixed.I(8) {
		t.Fatalf("got %v, want %v", got, fixed.I(8))
	}
}

func TestTrailingWhitespaceAdvanceNoneWhenLineEndsInText(t *testing.T) {
	clusters := []Cluster{
		{Advance: fixed.I(10), Whitespace: Space},
		{Advance: fixed.I(5), Whitespace: NotWhitespace},
	}
	if got := trailingWhitespaceAdvance(clusters); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}
