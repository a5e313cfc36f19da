package domain

// Option is one lettered answer choice in a quiz.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuizView is the snapshot handed to the presentation layer after creation.
type QuizView struct {
	QuizID   string   `json:"quizId"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
	Points   float64  `json:"points"`
	AuthorID string   `json:"authorId"`
}

// Selection reports a user's current toggles on an open quiz.
type Selection struct {
	QuizID  string   `json:"quizId"`
	Letters []string `json:"letters"`
	Final   bool     `json:"final"`
}

// RankChange records a user crossing a tier boundary, captured at the moment
// of the scoring event so reveal never has to reconstruct the old label.
type RankChange struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	OldRank     string `json:"oldRank"`
	NewRank     string `json:"newRank"`
}

// Submission summarizes the outcome of a validated answer for its author.
type Submission struct {
	QuizID  string      `json:"quizId"`
	Letters []string    `json:"letters"`
	Gained  float64     `json:"gained"`
	Total   float64     `json:"total"`
	RankUp  *RankChange `json:"rankUp,omitempty"`
}

// VoteCount is the tally for one option at reveal time.
type VoteCount struct {
	Letter  string `json:"letter"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Votes   int    `json:"votes"`
}

// PlayerResult is one participant's displayed gain at reveal time,
// recomputed from the stored answers rather than read back from storage.
type PlayerResult struct {
	UserID      string   `json:"userId"`
	DisplayName string   `json:"displayName"`
	Letters     []string `json:"letters"`
	Gained      float64  `json:"gained"`
}

// RevealResult is everything the presentation layer needs to publish a
// finished quiz. Producing it destroys the session.
type RevealResult struct {
	QuizID   string         `json:"quizId"`
	Question string         `json:"question"`
	Counts   []VoteCount    `json:"counts"`
	Results  []PlayerResult `json:"results"`
	RankUps  []RankChange   `json:"rankUps"`
}

// InspectReport is the author-only view of an open quiz's progress.
type InspectReport struct {
	QuizID   string   `json:"quizId"`
	Answered []string `json:"answered"`
	Pending  int      `json:"pending"`
}

// LeaderboardRow is one rendered standing.
type LeaderboardRow struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Points      float64 `json:"points"`
	Questions   int     `json:"questions"`
	Rank        string  `json:"rank"`
}

// Leaderboard carries both buckets, each sorted by points descending.
type Leaderboard struct {
	AllTime []LeaderboardRow `json:"allTime"`
	Monthly []LeaderboardRow `json:"monthly"`
}

// RankReport answers "where am I" for a single user.
type RankReport struct {
	UserID  string      `json:"userId"`
	AllTime ScoreRecord `json:"allTime"`
	Monthly ScoreRecord `json:"monthly"`
	Rank    string      `json:"rank"`
	Next    *NextRank   `json:"next,omitempty"`
}
