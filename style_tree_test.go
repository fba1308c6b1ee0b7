package glyphflow

import "testing"

func TestTreeBuilderSimpleNesting(t *testing.T) {
	b := NewTreeBuilder(ComputedStyle{SizePx: 16})
	b.PushText("hello ")
	b.PushStyleSpan(ComputedStyle{SizePx: 24})
	b.PushText("world")
	b.PopStyleSpan()
	b.PushText("!")
	text, spans := b.Finish()

	if text != "hello world!" {
		t.Fatalf("text = %q, want %q", text, "hello world!")
	}
	if len(spans) != 3 {
		t.Fatalf("spans = %+v, want 3", spans)
	}
	if spans[1].Style.SizePx != 24 {
		t.Fatalf("middle span size = %v, want 24", spans[1].Style.SizePx)
	}
	if spans[0].Style.SizePx != 16 || spans[2].Style.SizePx != 16 {
		t.Fatalf("outer spans should keep root size: %+v", spans)
	}
}

func TestTreeBuilderPushStyleModificationSpanInheritsAndModifies(t *testing.T) {
	b := NewTreeBuilder(ComputedStyle{SizePx: 16, Locale: "en"})
	b.PushStyleModificationSpan(func(s *ComputedStyle) { s.SizePx = 32 })
	b.PushText("x")
	b.PopStyleSpan()
	_, spans := b.Finish()
	if len(spans) != 1 {
		t.Fatalf("spans = %+v, want 1", spans)
	}
	if spans[0].Style.SizePx != 32 || spans[0].Style.Locale != "en" {
		t.Fatalf("modification span = %+v, want SizePx=32 Locale=en (inherited)", spans[0].Style)
	}
}

func TestTreeBuilderPopAtRootPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected PopStyleSpan at root to panic")
		}
	}()
	b := NewTreeBuilder(ComputedStyle{})
	b.PopStyleSpan()
}

func TestTreeBuilderWhiteSpaceCollapseTrimsAndFolds(t *testing.T) {
	b := NewTreeBuilder(ComputedStyle{})
	b.SetWhiteSpaceCollapse(WhiteSpaceCollapseMode)
	b.PushText("  hello   world  \n")
	text, _ := b.Finish()
	if text != "hello world" {
		t.Fatalf("collapsed text = %q, want %q", text, "hello world")
	}
}

func TestTreeBuilderWhiteSpacePreserveKeepsRunsVerbatim(t *testing.T) {
	b := NewTreeBuilder(ComputedStyle{})
	b.PushText("  hello   world  ")
	text, _ := b.Finish()
	if text != "  hello   world  " {
		t.Fatalf("preserved text = %q, want verbatim", text)
	}
}

func TestTreeBuilderEqualStyledSiblingScopesKeepSeparateSpans(t *testing.T) {
	b := NewTreeBuilder(ComputedStyle{SizePx: 16})
	b.PushStyleSpan(ComputedStyle{SizePx: 20})
	b.PushText("a")
	b.PopStyleSpan()
	b.PushStyleSpan(ComputedStyle{SizePx: 20})
	// A different scope instance, so resolveStyleID assigns independently
	// even though the style value is equal; Finish just needs both spans
	// present with the same effective style.
	b.PushText("b")
	b.PopStyleSpan()
	_, spans := b.Finish()
	if len(spans) != 2 {
		t.Fatalf("spans = %+v, want 2", spans)
	}
	if spans[0].Style.SizePx != 20 || spans[1].Style.SizePx != 20 {
		t.Fatalf("both spans should carry SizePx 20: %+v", spans)
	}
}
