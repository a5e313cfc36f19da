package domain

import "testing"

func TestNormalizeCards(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ah", "A♥️"},
		{"AhKs", "A♥️ K♠️"},
		{"td9c", "T♦️ 9♣️"},
		{"Zx", "Zx"},   // invalid rank
		{"Ax", "Ax"},   // invalid suit
		{"A", "A"},     // odd length
		{"AhK", "AhK"}, // odd length
		{"", ""},
		{"72 offsuit", "72 offsuit"}, // space breaks the pair grid
	}
	for _, tc := range cases {
		if got := NormalizeCards(tc.in); got != tc.want {
			t.Fatalf("NormalizeCards(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
