package domain

// RankEntry maps a point threshold to a tier label and its display color.
type RankEntry struct {
	Threshold float64
	Label     string
	Color     int
}

// RankTable is ordered strictly descending by threshold. The last entry has
// threshold 0, so every non-negative point total resolves to some rank.
type RankTable []RankEntry

// DefaultRankTable is the community tier ladder, defined at process start.
var DefaultRankTable = RankTable{
	{Threshold: 500, Label: "ADRIAN MATHEOS", Color: 0xE91E63},
	{Threshold: 490, Label: "ABI 1000€", Color: 0x3498DB},
	{Threshold: 450, Label: "ABI 500€", Color: 0x8E44AD},
	{Threshold: 380, Label: "ABI 200€", Color: 0x9B59B6},
	{Threshold: 300, Label: "ABI 100€", Color: 0xC0392B},
	{Threshold: 230, Label: "ABI 75€", Color: 0xD35400},
	{Threshold: 170, Label: "ABI 50€", Color: 0xE67E22},
	{Threshold: 120, Label: "ABI 35€", Color: 0xF39C12},
	{Threshold: 80, Label: "ABI 20€", Color: 0xF1C40F},
	{Threshold: 50, Label: "ABI 10€", Color: 0x2ECC71},
	{Threshold: 25, Label: "ABI 5€", Color: 0x27AE60},
	{Threshold: 10, Label: "ABI 2€", Color: 0x22A6B3},
	{Threshold: 0, Label: "ABI 0€", Color: 0x656565},
}

// RankFor returns the label of the highest tier whose threshold the given
// total meets. Negative totals fall back to the bottom tier.
func (t RankTable) RankFor(points float64) string {
	for _, e := range t {
		if points >= e.Threshold {
			return e.Label
		}
	}
	return t[len(t)-1].Label
}

// ColorFor returns the display color for a tier label, or 0 if unknown.
func (t RankTable) ColorFor(label string) int {
	for _, e := range t {
		if e.Label == label {
			return e.Color
		}
	}
	return 0
}

// NextRank describes the closest tier strictly above a point total.
type NextRank struct {
	Threshold float64 `json:"threshold"`
	Label     string  `json:"label"`
	Shortfall float64 `json:"shortfall"`
}

// NextRankFor scans tiers from lowest to highest and returns the first one
// the given total has not reached. ok is false at or above the top tier.
func (t RankTable) NextRankFor(points float64) (NextRank, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if points < t[i].Threshold {
			return NextRank{
				Threshold: t[i].Threshold,
				Label:     t[i].Label,
				Shortfall: t[i].Threshold - points,
			}, true
		}
	}
	return NextRank{}, false
}
