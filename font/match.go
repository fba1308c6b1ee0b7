package font

import (
	"sort"

	"github.com/go-text/typesetting/opentype/api/metadata"
)

// matchStretch returns the best stretch among candidates for query,
// defaulting to narrower matches first when query is condensed (or
// normal) and wider matches first otherwise, exactly as CSS Fonts
// Level 3 §5.2 prescribes.
func matchStretch(candidates []Record, query metadata.Stretch) metadata.Stretch {
	var narrower, wider metadata.Stretch
	for _, c := range candidates {
		stretch := c.Attrs.Stretch
		switch {
		case stretch > query:
			if wider == 0 || stretch-query < wider-query {
				wider = stretch
			}
		case stretch < query:
			if query-stretch < query-narrower {
				narrower = stretch
			}
		default:
			return query
		}
	}
	if query <= metadata.StretchNormal {
		if narrower != 0 {
			return narrower
		}
		return wider
	}
	if wider != 0 {
		return wider
	}
	return narrower
}

// styleOblique mirrors the matching library's convention that oblique
// and italic are matched identically.
const styleOblique = metadata.StyleItalic

func matchStyle(candidates []Record, query metadata.Style) metadata.Style {
	var has [metadata.StyleItalic + 1]bool
	for _, c := range candidates {
		has[c.Attrs.Style] = true
	}
	if !has[metadata.StyleNormal] && !has[metadata.StyleItalic] && len(candidates) > 0 {
		// No candidate is normal or italic (e.g. an unset style); keep
		// them by matching the style they carry.
		return candidates[0].Attrs.Style
	}
	switch query {
	case metadata.StyleItalic:
		if has[metadata.StyleItalic] {
			return metadata.StyleItalic
		}
		if has[styleOblique] {
			return styleOblique
		}
		return metadata.StyleNormal
	default: // StyleNormal and any non-italic value
		if has[metadata.StyleNormal] {
			return metadata.StyleNormal
		}
		if has[styleOblique] {
			return styleOblique
		}
		return metadata.StyleItalic
	}
}

// matchWeight implements the CSS font-weight selection rule: within
// [400,500] try fatter up to 500 first, then thinner, then fatter
// beyond 500; below 400 try thinner then fatter; above 500 try fatter
// then thinner.
func matchWeight(candidates []Record, query metadata.Weight) metadata.Weight {
	var fatter, thinner metadata.Weight
	for _, c := range candidates {
		w := c.Attrs.Weight
		switch {
		case w > query:
			if fatter == 0 || w-query < fatter-query {
				fatter = w
			}
		case w < query:
			if query-w < query-thinner {
				thinner = w
			}
		default:
			return query
		}
	}
	switch {
	case query >= 400 && query <= 500:
		if fatter != 0 && fatter <= 500 {
			return fatter
		}
		if thinner != 0 {
			return thinner
		}
		return fatter
	case query < 400:
		if thinner != 0 {
			return thinner
		}
		return fatter
	default:
		if fatter != 0 {
			return fatter
		}
		return thinner
	}
}

func filterByStretch(candidates []Record, stretch metadata.Stretch) []Record {
	n := 0
	for _, c := range candidates {
		if c.Attrs.Stretch == stretch {
			candidates[n] = c
			n++
		}
	}
	return candidates[:n]
}

func filterByStyle(candidates []Record, style metadata.Style) []Record {
	n := 0
	for _, c := range candidates {
		if c.Attrs.Style == style {
			candidates[n] = c
			n++
		}
	}
	return candidates[:n]
}

func filterByWeight(candidates []Record, weight metadata.Weight) []Record {
	n := 0
	for _, c := range candidates {
		if c.Attrs.Weight == weight {
			candidates[n] = c
			n++
		}
	}
	return candidates[:n]
}

// retainBestMatches narrows candidates to those closest to query by
// the three-step CSS Fonts Level 3 §5.2 procedure: stretch, then
// style, then weight. User-loaded faces sort ahead of platform-
// provided ones among equally good matches.
func retainBestMatches(candidates []Record, query metadata.Aspect) []Record {
	query.SetDefaults()

	candidates = filterByStretch(candidates, matchStretch(candidates, query.Stretch))
	candidates = filterByStyle(candidates, matchStyle(candidates, query.Style))
	candidates = filterByWeight(candidates, matchWeight(candidates, query.Weight))

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].UserLoaded && !candidates[j].UserLoaded
	})
	return candidates
}
