package ucd

import "testing"

func TestMandatoryLineBreakFlags(t *testing.T) {
	for _, ch := range []rune{'\n', '\r', 0x0085, 0x2029} {
		if p := Lookup(ch); !p.IsMandatoryLineBreak {
			t.Errorf("Lookup(%U).IsMandatoryLineBreak = false, want true", ch)
		}
	}
	if p := Lookup('a'); p.IsMandatoryLineBreak {
		t.Error("Lookup('a').IsMandatoryLineBreak = true, want false")
	}
}

func TestZWJAndRegionalIndicatorClasses(t *testing.T) {
	if got := Lookup(0x200D).GraphemeClusterBreak; got != GCBZWJ {
		t.Errorf("ZWJ class = %v, want GCBZWJ", got)
	}
	if got := Lookup(0x1F1FA).GraphemeClusterBreak; got != GCBRegionalIndicator {
		t.Errorf("regional indicator class = %v, want GCBRegionalIndicator", got)
	}
}

func TestHangulSyllableClasses(t *testing.T) {
	// U+AC00 HANGUL SYLLABLE GA is an LV (leading+vowel, no trailing) syllable.
	if got := Lookup(0xAC00).GraphemeClusterBreak; got != GCBLV {
		t.Errorf("0xAC00 class = %v, want GCBLV", got)
	}
	// U+AC01 HANGUL SYLLABLE GAG has a trailing consonant: LVT.
	if got := Lookup(0xAC01).GraphemeClusterBreak; got != GCBLVT {
		t.Errorf("0xAC01 class = %v, want GCBLVT", got)
	}
}

func TestEmojiFlag(t *testing.T) {
	if !Lookup(0x1F600).IsEmojiOrPictographic { // grinning face
		t.Error("expected 0x1F600 to be flagged emoji/pictographic")
	}
	if Lookup('a').IsEmojiOrPictographic {
		t.Error("expected 'a' to not be flagged emoji/pictographic")
	}
}

func TestNeedsBidiResolution(t *testing.T) {
	if !NeedsBidiResolution(Lookup(0x05D0)) { // Hebrew Alef, class R
		t.Error("expected Hebrew letter to need bidi resolution")
	}
	if NeedsBidiResolution(Lookup('a')) {
		t.Error("expected plain Latin letter to not need bidi resolution")
	}
}
