package font

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Generic family names, as defined by
// https://www.w3.org/TR/css-fonts-4/#generic-font-families
const (
	Serif     = "serif"
	SansSerif = "sans-serif"
	Monospace = "monospace"
	Cursive   = "cursive"
	Fantasy   = "fantasy"
	Math      = "math"
	Emoji     = "emoji"
	SystemUI  = "system-ui"
)

func isGenericFamily(family string) bool {
	switch family {
	case Serif, SansSerif, Monospace, Cursive, Fantasy, Math, Emoji, SystemUI:
		return true
	default:
		return false
	}
}

func normalizeFamily(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}

// Registry maps family names (including generic families) and aliases
// to the ordered set of faces registered for them, and resolves a
// Font request to the best matching Record via CSS font matching.
type Registry struct {
	// byFamily maps a normalized family name to the records registered
	// under it, in insertion order.
	byFamily map[string][]Record
	// aliases maps a normalized alias to its canonical normalized family.
	aliases map[string]string
	// generic maps a generic family to an ordered list of concrete
	// family names to try.
	generic map[string][]string

	families []string // insertion-ordered, for deterministic iteration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byFamily: make(map[string][]Record),
		aliases:  make(map[string]string),
		generic:  make(map[string][]string),
	}
}

// Alias registers alternateName as another spelling of canonical (e.g.
// "Helvetica" -> "Arial"). Lookups on alternateName resolve to
// canonical's records.
func (r *Registry) Alias(alternateName, canonical string) {
	r.aliases[normalizeFamily(alternateName)] = normalizeFamily(canonical)
}

// SetGeneric sets the ordered family list a generic family (serif,
// sans-serif, ...) expands to.
func (r *Registry) SetGeneric(generic string, families ...string) {
	r.generic[generic] = families
}

// Register adds a face under the given family name.
func (r *Registry) Register(family string, rec Record) {
	key := normalizeFamily(family)
	if _, ok := r.byFamily[key]; !ok {
		r.families = append(r.families, key)
	}
	rec.Family = key
	r.byFamily[key] = append(r.byFamily[key], rec)
}

// resolveFamily follows aliases and expands generic families into a
// concrete candidate list, preserving order and de-duplicating.
func (r *Registry) resolveFamily(family string) []string {
	key := normalizeFamily(family)
	if canon, ok := r.aliases[key]; ok {
		key = canon
	}
	if isGenericFamily(key) {
		if families, ok := r.generic[key]; ok {
			return families
		}
		return nil
	}
	return []string{key}
}

// candidatesForFamilies gathers every Record registered under any of
// the requested families, in family-priority order.
func (r *Registry) candidatesForFamilies(families []string) []Record {
	var out []Record
	seen := make(map[string]bool)
	for _, want := range families {
		for _, f := range r.resolveFamily(want) {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, r.byFamily[f]...)
		}
	}
	return out
}

// Match resolves req to the best Record using CSS Fonts Level 3 §5.2
// matching (stretch, then style, then weight) over the union of faces
// registered under req's requested families. It returns false if no
// family in req.Families (after alias/generic expansion) has any
// registered face.
func (r *Registry) Match(req Font) (Record, bool) {
	candidates := r.candidatesForFamilies(req.Families)
	if len(candidates) == 0 {
		return Record{}, false
	}
	best := retainBestMatches(candidates, req.Attrs)
	if len(best) == 0 {
		return Record{}, false
	}
	return best[0], true
}

// Families returns the registered family names in sorted order.
func (r *Registry) Families() []string {
	out := slices.Clone(r.families)
	slices.Sort(out)
	return out
}
