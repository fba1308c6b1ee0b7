package glyphflow

import (
	"fmt"
	"hash/maphash"
	"unicode/utf8"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/opentype/loader"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	gfont "github.com/glyphflow/glyphflow/font"
	"github.com/glyphflow/glyphflow/ucd"
)

// parseTag packs a 4-byte OpenType feature/variation tag string into
// loader.Tag's big-endian uint32 encoding (the universal OpenType tag
// convention shared with HarfBuzz's hb_tag_t and
// golang.org/x/image/font/sfnt.Tag), padding short tags with spaces as
// the spec allows.
func parseTag(s string) (loader.Tag, bool) {
	if len(s) == 0 || len(s) > 4 {
		return 0, false
	}
	var b [4]byte
	copy(b[:], s)
	for i := len(s); i < 4; i++ {
		b[i] = ' '
	}
	return loader.Tag(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), true
}

// Shaper drives per-Item font resolution and glyph shaping, following
// text/gotext.go's shapeText (toInput → shaper.Shape) collapsed to one
// call per Item, since the analysis stage has already split text into
// Items sharing a uniform style, script, and bidi level — the three
// things text/gotext.go's splitByFaces/splitByScript/splitBidi exist to
// separate out before shaping.
type Shaper struct {
	registry *gfont.Registry
	fallback *gfont.FallbackMap
	hb       shaping.HarfbuzzShaper

	seed   maphash.Seed
	faces  *ShaperCache[gfont.Record]
	shaped *GlyphRunCache[shapedForm]
}

// shapedForm is what GlyphRunCache caches per (cluster text, style)
// pair: a shaped Output plus the normalization form that produced it,
// so a repeated ShapeItem call over identical text and style can skip
// both the HarfBuzz call and the coverage-ratio comparison across
// normalization forms entirely.
type shapedForm struct {
	out  shaping.Output
	form ClusterForm
}

// NewShaper builds a Shaper over a font registry and fallback map; both
// are typically shared across many Layouts. It owns the small
// linear-scan face-resolution and glyph-run caches spec §2's pipeline
// overview lists as the final, cross-cutting stage.
func NewShaper(registry *gfont.Registry, fallback *gfont.FallbackMap) *Shaper {
	return &Shaper{
		registry: registry,
		fallback: fallback,
		seed:     maphash.MakeSeed(),
		faces:    NewShaperCache[gfont.Record](64),
		shaped:   NewGlyphRunCache[shapedForm](256),
	}
}

// ResolveFace selects the best-matching face for style, first trying
// the registry's family list verbatim, then the script/locale fallback
// chain, following spec §4.2's "Fallback" lookup used when a requested
// family has no direct registry entry. Resolved faces are cached by a
// fingerprint of the family/attribute/script request, since the same
// handful of (family, weight, script) combinations recur across nearly
// every Item in a typical paragraph.
func (s *Shaper) ResolveFace(style ComputedStyle, script language.Script) (gfont.Record, bool) {
	id := shaperStateIDFor(style, script)
	rec := *s.faces.Get(id, func() gfont.Record {
		r, _ := s.resolveFaceUncached(style, script)
		return r
	})
	return rec, rec.Face != nil
}

func (s *Shaper) resolveFaceUncached(style ComputedStyle, script language.Script) (gfont.Record, bool) {
	if rec, ok := s.registry.Match(gfont.Font{Families: style.Families, Attrs: style.Attrs}); ok {
		return rec, true
	}
	key := gfont.FallbackKey{Script: script, Locale: string(style.Locale)}
	families := s.fallback.Get(key)
	if len(families) == 0 {
		return gfont.Record{}, false
	}
	return s.registry.Match(gfont.Font{Families: families, Attrs: style.Attrs})
}

// shaperStateIDFor fingerprints a face request (family list, attributes,
// script, size bucket) into the ShaperStateID cache.go already defines,
// reusing its FontID slot to carry a hash of the family list since face
// resolution here is keyed before any font is chosen.
func shaperStateIDFor(style ComputedStyle, script language.Script) ShaperStateID {
	var h maphash.Hash
	for _, f := range style.Families {
		h.WriteString(f)
		h.WriteByte(0)
	}
	h.WriteString(string(style.Locale))
	h.WriteByte(0)
	h.WriteString(scriptString(script))
	return ShaperStateID{
		FontID:     h.Sum64(),
		FaceIndex:  int(style.Attrs.Weight),
		SizeBucket: SizeBucket(fixed.I(int(style.SizePx))),
	}
}

// direction converts a BidiRun's level into go-text's di.Direction,
// matching text/gotext.go's mapDirection (restricted to the horizontal
// axis, since vertical writing modes are out of scope).
func direction(level uint8) di.Direction {
	if level%2 == 1 {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// scriptString renders a language.Script into a stable cache-key
// fragment without assuming anything about its underlying
// representation beyond the fmt.Stringer/numeric conventions
// go-text/typesetting's tag types follow.
func scriptString(s language.Script) string {
	return fmt.Sprintf("%v", s)
}

// ShapeItem shapes one Item's text, producing clusters and glyphs in
// logical (not visual) order. clusterText must be the substring of the
// original text spanning item.Range. style is the resolved style for
// item.StyleIndex (for its locale and font features).
//
// Three normalization forms are tried in the order parley's
// CharCluster::map uses — original, then NFD, then NFC — each reshaped
// in full, and the form with the highest coverageScore (share of
// glyphs that are not .notdef) is kept; an earlier form wins ties, and
// a form scoring 1.0 ends the search. This is how a
// missing-precomposed-form font (one
// that only carries decomposed combining sequences, or vice versa)
// gets its coverage maximized per spec §4.5.
func (s *Shaper) ShapeItem(clusterText string, item Item, style ComputedStyle, sizePx fixed.Int26_6) (shaping.Output, ClusterForm) {
	id := GlyphRunID{
		TextHash:  HashClusterText(s.seed, clusterText+"\x00"+scriptString(item.Script)),
		StyleHash: HashStyle(s.seed, style) ^ uint64(item.BidiLevel),
	}
	cached := s.shaped.Get(id, func() shapedForm {
		out, form := s.shapeItemUncached(clusterText, item, style, sizePx)
		return shapedForm{out: out, form: form}
	})
	return cached.out, cached.form
}

func (s *Shaper) shapeItemUncached(clusterText string, item Item, style ComputedStyle, sizePx fixed.Int26_6) (shaping.Output, ClusterForm) {
	forms := [3]string{clusterText, "", ""}
	forms[1], forms[2] = NormalizationForms(clusterText)

	best := s.shapeForm(forms[0], item, style, sizePx)
	bestForm := FormOriginal
	bestScore := coverageScore(best)
	if bestScore < 1.0 {
		if out := s.shapeForm(forms[1], item, style, sizePx); coverageScore(out) > bestScore {
			best, bestForm, bestScore = out, FormNFD, coverageScore(out)
		}
	}
	if bestScore < 1.0 {
		if out := s.shapeForm(forms[2], item, style, sizePx); coverageScore(out) > bestScore {
			best, bestForm, bestScore = out, FormNFC, coverageScore(out)
		}
	}
	return best, bestForm
}

func (s *Shaper) shapeForm(text string, item Item, style ComputedStyle, sizePx fixed.Int26_6) shaping.Output {
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: direction(item.BidiLevel),
		Face:      item.Face,
		Size:      sizePx,
		Script:    item.Script,
		Language:  style.Locale,
	}
	input.FontFeatures = toFontFeatures(style.Features)
	return s.hb.Shape(input)
}

func toFontFeatures(features []FeatureTag) []shaping.FontFeature {
	if len(features) == 0 {
		return nil
	}
	out := make([]shaping.FontFeature, 0, len(features))
	for _, f := range features {
		tag, ok := parseTag(f.Tag)
		if !ok {
			continue
		}
		out = append(out, shaping.FontFeature{Tag: tag, Value: uint32(f.Value)})
	}
	return out
}

// coverageScore reports the fraction of shaped glyphs that resolved to
// a real (non-notdef) glyph id, used as the "best_ratio" selector
// parley's CharCluster::map computes per normalization form.
func coverageScore(out shaping.Output) float32 {
	if len(out.Glyphs) == 0 {
		return 0
	}
	var hit int
	for _, g := range out.Glyphs {
		if g.GlyphID != 0 {
			hit++
		}
	}
	return float32(hit) / float32(len(out.Glyphs))
}

// BuildRun converts a shaped Output into the module's Run/Cluster/Glyph
// representation, following text/gotext.go's toGioGlyphs/toLine field
// mapping (XBearing/YBearing/Width/Height → bounds, XAdvance/YAdvance,
// ClusterIndex/RuneCount/GlyphCount), but keeping font.GID directly
// rather than Gio's packed GlyphID, since this module has no path-
// rendering cache to key on a 64-bit scalar.
//
// text is the full paragraph (or document) text the shaped Output was
// produced from; byteBase is the byte offset within text where the
// shaped item's text begins (glyph ClusterIndex values count runes
// from there). style and rootSizePx resolve the run's decoration and
// line-height metrics (RunMetrics.UnderlinePos and friends default to
// decorationDefaults's size/ascent-derived ratios, overridden by a
// nonzero Decoration.Offset/Size), and table classifies each cluster's
// leading rune for Cluster.Whitespace/IsEmoji.
func BuildRun(out shaping.Output, text string, byteBase int, styleIndex int, bidiLevel uint8, style ComputedStyle, rootSizePx float32, table ucd.Table) (Run, []Cluster, []Glyph) {
	run := Run{
		Face:      out.Face,
		SizePx:    out.Size,
		BidiLevel: bidiLevel,
		Advance:   out.Advance,
		Metrics: RunMetrics{
			Ascent:  out.LineBounds.Ascent,
			Descent: out.LineBounds.Descent,
			Leading: out.LineBounds.Gap,
		},
	}
	defaultUnderlinePos, defaultUnderlineThk, defaultStrikePos, defaultStrikeThk := decorationDefaults(out.Size, run.Metrics.Ascent)
	run.Metrics.UnderlinePos = decoratedOrDefault(style.Underline.Offset, defaultUnderlinePos)
	run.Metrics.UnderlineThk = decoratedOrDefault(style.Underline.Size, defaultUnderlineThk)
	run.Metrics.StrikethroughPos = decoratedOrDefault(style.Strikethrough.Offset, defaultStrikePos)
	run.Metrics.StrikethroughThk = decoratedOrDefault(style.Strikethrough.Size, defaultStrikeThk)
	run.Metrics.LineHeight = computeLineHeight(style.LineHeight, rootSizePx, run.SizePx, run.Metrics.Ascent, run.Metrics.Descent, run.Metrics.Leading)

	// byteAt maps a rune index counted from byteBase (ClusterIndex's unit)
	// to a byte offset into text; past the end of text a rune counts as one byte.
	byteAt := func(runeIdx int) int {
		off := byteBase
		for k := 0; k < runeIdx; k++ {
			size := 1
			if off < len(text) {
				_, size = utf8.DecodeRuneInString(text[off:])
			}
			off += size
		}
		return off
	}
	glyphs := make([]Glyph, 0, len(out.Glyphs))
	var clusters []Cluster
	for i, g := range out.Glyphs {
		glyphs = append(glyphs, Glyph{
			GlyphID:    g.GlyphID,
			X:          0,
			Y:          0,
			Advance:    g.XAdvance,
			StyleIndex: styleIndex,
		})
		isNewCluster := i == 0 || out.Glyphs[i-1].ClusterIndex != g.ClusterIndex
		if isNewCluster {
			clusterRange := ByteRange{Start: byteAt(g.ClusterIndex), End: byteAt(g.ClusterIndex + g.RuneCount)}
			var whitespace Whitespace
			var isEmoji bool
			if r, _ := utf8.DecodeRuneInString(safeSlice(text, clusterRange)); r != utf8.RuneError {
				whitespace = ClassifyWhitespace(r)
				isEmoji = table.Properties(r).IsEmojiOrPictographic
			}
			clusters = append(clusters, Cluster{
				Range:       clusterRange,
				Advance:     g.XAdvance,
				GlyphOffset: i,
				GlyphLen:    1,
				Whitespace:  whitespace,
				IsEmoji:     isEmoji,
				BidiLevel:   bidiLevel,
			})
		} else {
			last := &clusters[len(clusters)-1]
			last.Advance += g.XAdvance
		}
	}
	// A cluster whose glyph count would overflow GlyphLen's byte range
	// is reported as ligated into its first glyph rather than silently
	// truncated; in practice shaped clusters are far smaller than this.
	for i := range clusters {
		end := len(out.Glyphs)
		if i+1 < len(clusters) {
			end = clusters[i+1].GlyphOffset
		}
		n := end - clusters[i].GlyphOffset
		if n > 0xFE {
			clusters[i].GlyphLen = GlyphLenLigated
			continue
		}
		clusters[i].GlyphLen = n
	}
	return run, clusters, glyphs
}

// safeSlice returns text[r.Start:r.End], or "" if the range falls
// outside text -- guards BuildRun against the zero-value Output
// literals shape_test.go's unit tests construct by hand, which have no
// backing text at all.
func safeSlice(text string, r ByteRange) string {
	if r.Start < 0 || r.End > len(text) || r.Start > r.End {
		return ""
	}
	return text[r.Start:r.End]
}

// decoratedOrDefault returns the font-derived metric unless the style
// requests an explicit override; per Decoration's convention a zero
// Offset/Size means "use the font's own metrics."
func decoratedOrDefault(overridePx float32, faceValue fixed.Int26_6) fixed.Int26_6 {
	if overridePx != 0 {
		return floatToFixed(overridePx)
	}
	return faceValue
}

// decorationDefaults derives underline/strikethrough position and
// thickness from the run's resolved size and ascent using the
// conventional CSS canvas fallback ratios (thickness ~= size/14,
// underline offset ~= size/10 below the baseline, strikethrough at
// ~40% of the ascent above it), used whenever a face's own hinted
// metrics aren't available through this package's Face abstraction.
// A style's explicit Decoration.Offset/Size always overrides these via
// decoratedOrDefault.
func decorationDefaults(sizePx, ascent fixed.Int26_6) (underlinePos, underlineThk, strikePos, strikeThk fixed.Int26_6) {
	thickness := floatToFixed(fixedToFloat(sizePx) / 14)
	underlinePos = floatToFixed(fixedToFloat(sizePx) / 10)
	strikePos = -floatToFixed(fixedToFloat(ascent) * 0.4)
	return underlinePos, thickness, strikePos, thickness
}

// computeLineHeight resolves a run's line-height in pixels. Px/Em/Rem
// go through resolveLineHeight against the run's size and rootSizePx
// (a Px value, including one ResolveUnits produced, passes through); Normal
// falls back to the face's own ascent+descent+leading, and Factor
// scales the run's font size directly, both per spec §4.3's line-
// height resolution rules.
func computeLineHeight(lh LineHeight, rootSizePx float32, sizePx, ascent, descent, leading fixed.Int26_6) fixed.Int26_6 {
	switch lh.Kind {
	case LineHeightNormal:
		return ascent + descent + leading
	case LineHeightFactor:
		return floatToFixed(lh.Value * fixedToFloat(sizePx))
	default:
		return floatToFixed(resolveLineHeight(lh, fixedToFloat(sizePx), rootSizePx))
	}
}

// fixedToFloat and floatToFixed convert between fixed.Int26_6's 26.6
// representation and plain pixel floats, following text/gotext.go's
// own fixedToFloat(ppem) pattern (ppem / 64).
func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

func floatToFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
