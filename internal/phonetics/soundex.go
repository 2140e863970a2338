// Package phonetics implements classic American Soundex encoding for
// ship names.
package phonetics

import "strings"

// DefaultLength is the standard Soundex code length.
const DefaultLength = 4

// Code returns the four-character Soundex code for name. Empty or
// letterless input yields the all-zero sentinel code, which no real
// name can produce, so the result always has a fixed non-empty length.
func Code(name string) string {
	return CodeN(name, DefaultLength)
}

// CodeN is Code with a configurable code length (minimum 1; the first
// letter plus length-1 digits).
func CodeN(name string, length int) string {
	if length < 1 {
		length = DefaultLength
	}

	upper := strings.ToUpper(name)

	// Locate the first letter; everything before it is noise.
	start := -1
	for i := 0; i < len(upper); i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			start = i
			break
		}
	}
	if start < 0 {
		return strings.Repeat("0", length)
	}

	b := strings.Builder{}
	b.Grow(length)
	b.WriteByte(upper[start])

	// Standard adjacency rule: letters sharing a class collapse into one
	// digit, H and W are transparent between them, vowels break the run.
	prev := classOf(upper[start])
	for i := start + 1; i < len(upper) && b.Len() < length; i++ {
		c := upper[i]
		if c < 'A' || c > 'Z' {
			prev = 0
			continue
		}
		switch {
		case classOf(c) > 0:
			if classOf(c) != prev {
				b.WriteByte(classOf(c))
			}
			prev = classOf(c)
		case c == 'H' || c == 'W':
			// transparent: prev carries across
		default:
			prev = 0
		}
	}

	for b.Len() < length {
		b.WriteByte('0')
	}
	return b.String()
}

// Equal reports whether two names share a Soundex code.
func Equal(a, b string) bool {
	return Code(a) == Code(b)
}

func classOf(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return '1'
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return '2'
	case 'D', 'T':
		return '3'
	case 'L':
		return '4'
	case 'M', 'N':
		return '5'
	case 'R':
		return '6'
	}
	return 0
}
