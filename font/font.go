// Package font describes font family records, face attributes, and the
// registry that resolves a style's font requirements to a concrete face.
package font

import (
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/opentype/api/metadata"
)

// Face is an opaque handle to a parsed font file, shapeable by the
// underlying text-shaping engine.
type Face interface {
	Face() gotext.Face
}

// Typeface identifies a particular typeface design, e.g. "Roboto". The
// empty string denotes the caller's configured default.
type Typeface string

// Variant denotes a typeface sub-family such as "Mono" or "Smallcaps".
type Variant string

// Attributes is the CSS font-matching triple (width/stretch, style,
// weight) a style span requests. It is the same shape the underlying
// matching code (metadata.Aspect) uses, so it can be compared directly
// against registered faces without conversion.
type Attributes = metadata.Aspect

// Font names the typeface family list and attributes a style span
// requests. Families are tried in order; the first with any matching
// face wins before fallback is consulted.
type Font struct {
	Families []string
	Attrs    Attributes
}

// FontFace pairs a requested Font with the Face that was selected to
// satisfy it.
type FontFace struct {
	Font Font
	Face Face
}

// Record describes one loaded face available to the registry: its
// attributes, the source it came from, and the face index within that
// source (TrueType collections carry more than one face per file).
type Record struct {
	Family     string
	Attrs      Attributes
	Source     SourceID
	FaceIndex  int
	Face       Face
	UserLoaded bool
}

// SourceID is a stable identifier for a font source (file path or
// in-memory blob), used to key the source cache.
type SourceID uint64
