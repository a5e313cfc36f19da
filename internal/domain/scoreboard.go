package domain

import (
	"sort"
	"time"
)

// Bucket selects one of the two score scopes.
type Bucket string

const (
	BucketAllTime Bucket = "all_time"
	BucketMonthly Bucket = "monthly"
)

// ScoreRecord tracks one user's accumulated points within a bucket.
type ScoreRecord struct {
	Points    float64 `json:"points"`
	Questions int     `json:"questions"`
}

// Scoreboard is the full persisted score state: both buckets plus the
// calendar month of the last monthly reset. Stores serialize it whole on
// every mutation.
type Scoreboard struct {
	AllTime   map[string]*ScoreRecord `json:"all_time"`
	Monthly   map[string]*ScoreRecord `json:"monthly"`
	LastMonth int                     `json:"last_month"`
}

// NewScoreboard returns an empty board with the reset marker set to the
// current calendar month.
func NewScoreboard(now time.Time) *Scoreboard {
	return &Scoreboard{
		AllTime:   make(map[string]*ScoreRecord),
		Monthly:   make(map[string]*ScoreRecord),
		LastMonth: int(now.Month()),
	}
}

// Init ensures both buckets and the reset marker exist after decoding a
// snapshot that may predate either field.
func (b *Scoreboard) Init(now time.Time) {
	if b.AllTime == nil {
		b.AllTime = make(map[string]*ScoreRecord)
	}
	if b.Monthly == nil {
		b.Monthly = make(map[string]*ScoreRecord)
	}
	if b.LastMonth == 0 {
		b.LastMonth = int(now.Month())
	}
}

// RolloverIfNeeded replaces the monthly bucket and advances the marker when
// the calendar month has changed since the last reset. The all-time bucket
// is never touched. Reports whether a rollover happened so the caller can
// persist immediately.
func (b *Scoreboard) RolloverIfNeeded(now time.Time) bool {
	month := int(now.Month())
	if b.LastMonth == month {
		return false
	}
	b.Monthly = make(map[string]*ScoreRecord)
	b.LastMonth = month
	return true
}

func (b *Scoreboard) bucket(bucket Bucket) map[string]*ScoreRecord {
	if bucket == BucketMonthly {
		return b.Monthly
	}
	return b.AllTime
}

// Record returns the user's record in a bucket, zero-initializing it on
// first touch.
func (b *Scoreboard) Record(bucket Bucket, userID string) *ScoreRecord {
	m := b.bucket(bucket)
	rec, ok := m[userID]
	if !ok {
		rec = &ScoreRecord{}
		m[userID] = rec
	}
	return rec
}

// Points returns the user's point total in a bucket without initializing a
// record.
func (b *Scoreboard) Points(bucket Bucket, userID string) float64 {
	if rec, ok := b.bucket(bucket)[userID]; ok {
		return rec.Points
	}
	return 0
}

// ApplyAnswer credits a scored answer to both buckets and returns the new
// all-time total. Gained may be negative; totals are never clamped.
func (b *Scoreboard) ApplyAnswer(userID string, gained float64) float64 {
	for _, bucket := range []Bucket{BucketAllTime, BucketMonthly} {
		rec := b.Record(bucket, userID)
		rec.Points += gained
		rec.Questions++
	}
	return b.AllTime[userID].Points
}

// AddPoints shifts the user's totals in both buckets by delta without
// counting a question. Admin adjustments bypass the scoring formula.
func (b *Scoreboard) AddPoints(userID string, delta float64) {
	b.Record(BucketAllTime, userID).Points += delta
	b.Record(BucketMonthly, userID).Points += delta
}

// SetPoints overwrites the user's totals in both buckets.
func (b *Scoreboard) SetPoints(userID string, points float64) {
	b.Record(BucketAllTime, userID).Points = points
	b.Record(BucketMonthly, userID).Points = points
}

// Reset clears both buckets. The reset marker keeps its value.
func (b *Scoreboard) Reset() {
	b.AllTime = make(map[string]*ScoreRecord)
	b.Monthly = make(map[string]*ScoreRecord)
}

// RankedEntry is one leaderboard row before display names and rank labels
// are attached.
type RankedEntry struct {
	UserID    string
	Points    float64
	Questions int
}

// Ranking returns a bucket sorted by points descending, ties broken by
// user id for stable output.
func (b *Scoreboard) Ranking(bucket Bucket) []RankedEntry {
	m := b.bucket(bucket)
	entries := make([]RankedEntry, 0, len(m))
	for userID, rec := range m {
		entries = append(entries, RankedEntry{UserID: userID, Points: rec.Points, Questions: rec.Questions})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries
}
