package loader

import "unicode/utf8"

// SplitLines splits s at every line boundary and drops the terminators.
// Boundaries are \n, \r, \r\n, \v, \f, \x1c, \x1d, \x1e, U+0085, U+2028 and
// U+2029. A trailing boundary does not produce an empty final line.
func SplitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if !isBoundary(r) {
			continue
		}
		if r == '\n' && i > 0 && s[i-1] == '\r' {
			// Second half of \r\n; the line was emitted at \r.
			start = i + 1
			continue
		}
		lines = append(lines, s[start:i])
		start = i + utf8.RuneLen(r)
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func isBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
