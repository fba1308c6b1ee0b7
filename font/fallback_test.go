package font

import "testing"

func TestCanonicalLocaleHanScriptBuckets(t *testing.T) {
	cases := []struct {
		locale     string
		wantBucket string
		wantIsDef  bool
	}{
		{"ja", "ja", false},
		{"ko", "ko", false},
		{"zh-TW", "zh-tw", false},
		{"zh-HK", "zh-tw", false},
		{"zh-CN", "zh-cn", true},
		{"zh", "zh-cn", true},
	}
	for _, c := range cases {
		bucket, isDefault := canonicalLocale("Hani", c.locale)
		if bucket != c.wantBucket || isDefault != c.wantIsDef {
			t.Errorf("canonicalLocale(Hani, %q) = (%q, %v), want (%q, %v)",
				c.locale, bucket, isDefault, c.wantBucket, c.wantIsDef)
		}
	}
}

func TestCanonicalLocaleArabicEquivalence(t *testing.T) {
	bucket, isDefault := canonicalLocale("Arab", "ur")
	if isDefault || bucket != "ar" {
		t.Fatalf("expected ur to bucket under ar, got (%q, %v)", bucket, isDefault)
	}
}

func TestFallbackMapGetUsesBucketThenDefault(t *testing.T) {
	m := NewFallbackMap()
	m.Set(FallbackKey{Script: "Hani"}, []string{"Noto Sans CJK SC"})
	m.Set(FallbackKey{Script: "Hani", Locale: "ja"}, []string{"Noto Sans CJK JP"})

	got := m.Get(FallbackKey{Script: "Hani", Locale: "ja"})
	if len(got) != 1 || got[0] != "Noto Sans CJK JP" {
		t.Fatalf("got %v, want [Noto Sans CJK JP]", got)
	}

	got = m.Get(FallbackKey{Script: "Hani", Locale: "zh-CN"})
	if len(got) != 1 || got[0] != "Noto Sans CJK SC" {
		t.Fatalf("got %v, want default [Noto Sans CJK SC]", got)
	}
}
