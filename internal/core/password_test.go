package core

import "testing"

func TestIsStrongPassword(t *testing.T) {
	cases := []struct {
		in     string
		strong bool
	}{
		{"Abcdef12", true}, // exactly 8 with one of each class
		{"Abcdef1", false}, // 7 chars
		{"abcdefg1", false}, // no upper
		{"ABCDEFG1", false}, // no lower
		{"Abcdefgh", false}, // no digit
		{"", false},
		{"Sup3rSecret", true},
		{"12345678", false},
	}
	for _, tc := range cases {
		if got := IsStrongPassword(tc.in); got != tc.strong {
			t.Fatalf("IsStrongPassword(%q) = %v, want %v", tc.in, got, tc.strong)
		}
	}
}
