package font

import (
	"strings"

	"github.com/go-text/typesetting/language"
)

// FallbackKey identifies a (script, locale) bucket used to look up an
// ordered list of fallback families. Locale is a BCP-47 language tag;
// the empty string means "no locale refinement, use the script's
// default".
type FallbackKey struct {
	Script language.Script
	Locale string
}

// perScriptFallback holds the default family list for a script plus
// any locale-specific refinements.
type perScriptFallback struct {
	def    []string
	others map[string][]string
}

// FallbackMap maps FallbackKeys to ordered candidate family lists, the
// way a platform font-fallback provider (fontconfig, Android
// fonts.xml, Core Text, DirectWrite) would populate it at startup.
type FallbackMap struct {
	byScript map[language.Script]*perScriptFallback
}

// NewFallbackMap creates an empty fallback map.
func NewFallbackMap() *FallbackMap {
	return &FallbackMap{byScript: make(map[language.Script]*perScriptFallback)}
}

func (m *FallbackMap) entry(script language.Script) *perScriptFallback {
	e, ok := m.byScript[script]
	if !ok {
		e = &perScriptFallback{others: make(map[string][]string)}
		m.byScript[script] = e
	}
	return e
}

// Set installs families as the fallback list for key, replacing any
// existing list for that exact key.
func (m *FallbackMap) Set(key FallbackKey, families []string) {
	e := m.entry(key.Script)
	if key.Locale == "" {
		e.def = families
		return
	}
	e.others[key.Locale] = families
}

// Append adds families to the end of the existing fallback list for
// key.
func (m *FallbackMap) Append(key FallbackKey, families []string) {
	e := m.entry(key.Script)
	if key.Locale == "" {
		e.def = append(e.def, families...)
		return
	}
	e.others[key.Locale] = append(e.others[key.Locale], families...)
}

// Get returns the fallback family list for key, applying the
// canonical locale bucketing (canonicalLocale) before lookup, and
// falling back to the script's locale-less default when no bucket
// matches.
func (m *FallbackMap) Get(key FallbackKey) []string {
	e, ok := m.byScript[key.Script]
	if !ok {
		return nil
	}
	bucket, isDefault := canonicalLocale(key.Script, key.Locale)
	if !isDefault {
		if fams, ok := e.others[bucket]; ok {
			return fams
		}
	}
	return e.def
}

// canonicalLocale buckets a requested locale into the coarser set of
// locale buckets fallback providers actually key on, following the
// table used by the upstream font-fallback resolver this module's
// fallback behavior is ported from. It returns the bucket key and
// whether that bucket is the script's unrefined default.
func canonicalLocale(script language.Script, locale string) (bucket string, isDefault bool) {
	base, region := splitLocale(locale)
	switch script {
	case "Arab":
		switch base {
		case "ar", "fa", "ks", "la", "ota", "sd", "ug", "ur":
			return "ar", false
		}
		switch base + "-" + region {
		case "ar-ir", "ku-iq", "ku-ir", "pa-pk", "ps-af", "ps-pk":
			return "ar", false
		}
	case "Beng":
		switch base {
		case "bn", "as", "mni":
			return "bn", false
		}
	case "Deva":
		switch base {
		case "hi", "bh", "bho", "brx", "doi", "hne", "kok", "mai", "mr", "bne", "sa", "sat":
			return "hi", false
		}
	case "Ethi":
		switch base {
		case "gez", "am", "byn", "sid", "tig", "wal":
			return "am", false
		}
		switch base + "-" + region {
		case "ti-er", "ti-et":
			return "am", false
		}
	case "Hani":
		switch base {
		case "ja":
			return "ja", false
		case "ko":
			return "ko", false
		case "zh":
			switch region {
			case "hk", "tw", "mo", "hant":
				return "zh-tw", false
			}
			return "zh-cn", true
		}
	case "Hebr":
		switch base {
		case "he", "yi":
			return "he", false
		}
	case "Tibt":
		switch base {
		case "bo", "dz":
			return "bo", false
		}
	}
	return "", true
}

func splitLocale(locale string) (base, region string) {
	locale = strings.ToLower(locale)
	parts := strings.Split(locale, "-")
	if len(parts) == 0 {
		return "", ""
	}
	base = parts[0]
	if len(parts) > 1 {
		region = parts[len(parts)-1]
	}
	return base, region
}
