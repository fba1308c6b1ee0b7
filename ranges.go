package glyphflow

import "unicode/utf8"

// ByteRange is a half-open byte-offset range into a text's UTF-8
// encoding, per spec §3.1.
type ByteRange struct {
	Start, End int
}

func (r ByteRange) Len() int { return r.End - r.Start }

// ValidateRange checks r against text, enforcing start <= end, end <=
// len(text), and both endpoints on codepoint boundaries. It returns a
// typed error (*InvalidRange, *InvalidBounds, or *NotOnCharBoundary)
// on failure.
func ValidateRange(text string, r ByteRange) error {
	if r.Start > r.End {
		return &InvalidRange{Start: r.Start, End: r.End}
	}
	if r.End > len(text) {
		return &InvalidBounds{Start: r.Start, End: r.End, TextLen: len(text)}
	}
	if err := checkBoundary(text, r.Start); err != nil {
		return err
	}
	if err := checkBoundary(text, r.End); err != nil {
		return err
	}
	return nil
}

func checkBoundary(text string, offset int) error {
	if offset == 0 || offset == len(text) {
		return nil
	}
	if utf8.RuneStart(text[offset]) {
		return nil
	}
	start := offset
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	_, size := utf8.DecodeRuneInString(text[start:])
	return &NotOnCharBoundary{Offset: offset, CharStart: start, CharEnd: start + size}
}
