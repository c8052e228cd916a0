package models

import "strings"

// LeadingInt parses the integer at the start of s, ignoring leading
// whitespace and anything after the digits: "60-90 seconds" yields 60.
// ok is false when s does not start with a number.
func LeadingInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	digits := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
		if n > 1<<20 {
			break
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// PositiveIntOr returns the leading integer of s, or def when s has none or
// it is not positive.
func PositiveIntOr(s string, def int) int {
	if n, ok := LeadingInt(s); ok && n > 0 {
		return n
	}
	return def
}
