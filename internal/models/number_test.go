package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLeadingInt verifies only the leading digits are parsed.
func TestLeadingInt(t *testing.T) {
	cases := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"3", 3, true},
		{"3-4", 3, true},
		{" 60-90 seconds", 60, true},
		{"90s", 90, true},
		{"-5", -5, true},
		{"+2", 2, true},
		{"", 0, false},
		{"three", 0, false},
		{"-", 0, false},
		{"até 60", 0, false},
	}
	for _, tc := range cases {
		got, ok := LeadingInt(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in)
	}
}

// TestPositiveIntOr verifies non-positive and unparseable values fall back
// to the default.
func TestPositiveIntOr(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"4", 4},
		{"0", 3},
		{"-2", 3},
		{"many", 3},
		{"", 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PositiveIntOr(tc.in, 3), tc.in)
	}
}
