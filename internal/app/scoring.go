package app

// Gained computes the points earned by a selection: full value per correct
// pick, half a point off per wrong pick. The result can go negative and is
// never clamped anywhere in the system.
func Gained(selected, correct map[string]struct{}, pointsPerCorrect float64) float64 {
	hits := 0
	misses := 0
	for letter := range selected {
		if _, ok := correct[letter]; ok {
			hits++
		} else {
			misses++
		}
	}
	return pointsPerCorrect*float64(hits) - 0.5*float64(misses)
}

func letterSet(letters []string) map[string]struct{} {
	set := make(map[string]struct{}, len(letters))
	for _, letter := range letters {
		set[letter] = struct{}{}
	}
	return set
}
