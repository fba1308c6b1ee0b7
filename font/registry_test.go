package font

import (
	"testing"

	"github.com/go-text/typesetting/opentype/api/metadata"
)

func TestRegistryMatchPrefersRequestedFamily(t *testing.T) {
	r := NewRegistry()
	r.Register("Roboto", Record{Attrs: metadata.Aspect{Weight: 400, Style: metadata.StyleNormal, Stretch: metadata.StretchNormal}})
	r.Register("Arial", Record{Attrs: metadata.Aspect{Weight: 400, Style: metadata.StyleNormal, Stretch: metadata.StretchNormal}})

	rec, ok := r.Match(Font{Families: []string{"Arial", "Roboto"}})
	if !ok || rec.Family != "arial" {
		t.Fatalf("got %+v, ok=%v, want family arial", rec, ok)
	}
}

func TestRegistryMatchFallsThroughFamilyList(t *testing.T) {
	r := NewRegistry()
	r.Register("Roboto", Record{})

	rec, ok := r.Match(Font{Families: []string{"Missing", "Roboto"}})
	if !ok || rec.Family != "roboto" {
		t.Fatalf("got %+v, ok=%v, want family roboto", rec, ok)
	}
}

func TestRegistryGenericFamilyExpansion(t *testing.T) {
	r := NewRegistry()
	r.Register("Roboto", Record{})
	r.SetGeneric(SansSerif, "Roboto")

	rec, ok := r.Match(Font{Families: []string{SansSerif}})
	if !ok || rec.Family != "roboto" {
		t.Fatalf("got %+v, ok=%v, want family roboto via generic expansion", rec, ok)
	}
}

func TestRegistryMatchMissingFamily(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Match(Font{Families: []string{"Nonexistent"}}); ok {
		t.Fatal("expected no match for unregistered family")
	}
}
