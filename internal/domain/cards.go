package domain

import (
	"strings"
	"unicode"
)

const cardRanks = "AKQJT98765432"

var suitSymbols = map[byte]string{
	'h': "♥️",
	's': "♠️",
	'd': "♦️",
	'c': "♣️",
}

// NormalizeCards rewrites shorthand card notation ("AhKs") as suit symbols
// for display. A token only qualifies when its length is even and every
// (rank, suit) pair is valid; anything else comes back unchanged rather
// than as an error, so arbitrary option text passes through.
func NormalizeCards(token string) string {
	t := strings.TrimSpace(token)
	if len(t) < 2 || len(t)%2 != 0 {
		return token
	}
	parts := make([]string, 0, len(t)/2)
	for i := 0; i < len(t); i += 2 {
		rank := byte(unicode.ToUpper(rune(t[i])))
		suit := byte(unicode.ToLower(rune(t[i+1])))
		symbol, ok := suitSymbols[suit]
		if !ok || strings.IndexByte(cardRanks, rank) < 0 {
			return token
		}
		parts = append(parts, string(rank)+symbol)
	}
	return strings.Join(parts, " ")
}
