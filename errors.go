package glyphflow

import "fmt"

// InvalidRange reports that a caller-supplied range had start > end.
type InvalidRange struct {
	Start, End int
}

func (e *InvalidRange) Error() string {
	return fmt.Sprintf("glyphflow: invalid range [%d, %d): start > end", e.Start, e.End)
}

// InvalidBounds reports that a caller-supplied range's end exceeded
// the text length.
type InvalidBounds struct {
	Start, End int
	TextLen    int
}

func (e *InvalidBounds) Error() string {
	return fmt.Sprintf("glyphflow: range [%d, %d) exceeds text length %d", e.Start, e.End, e.TextLen)
}

// NotOnCharBoundary reports that a range endpoint fell inside a
// multi-byte codepoint, along with the enclosing codepoint's span.
type NotOnCharBoundary struct {
	// Offset is the offending endpoint.
	Offset int
	// CharStart and CharEnd bound the codepoint that Offset falls
	// inside of.
	CharStart, CharEnd int
}

func (e *NotOnCharBoundary) Error() string {
	return fmt.Sprintf("glyphflow: offset %d is not on a char boundary (enclosing codepoint spans [%d, %d))",
		e.Offset, e.CharStart, e.CharEnd)
}
