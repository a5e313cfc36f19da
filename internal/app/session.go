package app

import (
	"sort"
	"strings"
	"sync"

	"poker-quiz-service/internal/domain"
)

// answerPhase tracks one participant's progress: Pending while letters can
// still change, Final once validated. Absence from the map means Unanswered.
type answerPhase int

const (
	phasePending answerPhase = iota
	phaseFinal
)

type answerState struct {
	phase   answerPhase
	letters map[string]struct{}
}

// Session is one active quiz: question, lettered options, the author's
// correct-letter set, and per-user answer state. A session stays open for
// everyone else until a reveal consumes it, but per user answering is
// write-once.
type Session struct {
	id       string
	question string
	options  []domain.Option
	correct  map[string]struct{}
	points   float64
	authorID string

	mu      sync.Mutex
	answers map[string]*answerState
	order   []string // user ids in finalization order
	rankUps map[string]domain.RankChange
}

// NewSession builds a session from raw creation input. Options are lettered
// A.. in input order and card shorthand in choice text is normalized for
// display. The correct set is stored verbatim after uppercasing and
// comma-splitting: a stray letter that matches no option is an always-miss
// option, not an error.
func NewSession(quizID, question string, choices []string, correctCSV string, points float64, authorID string) *Session {
	options := make([]domain.Option, 0, len(choices))
	for i, choice := range choices {
		options = append(options, domain.Option{
			Letter: string(rune('A' + i)),
			Text:   domain.NormalizeCards(strings.TrimSpace(choice)),
		})
	}

	correct := make(map[string]struct{})
	for _, raw := range strings.Split(correctCSV, ",") {
		letter := strings.ToUpper(strings.TrimSpace(raw))
		if letter != "" {
			correct[letter] = struct{}{}
		}
	}

	return &Session{
		id:       quizID,
		question: question,
		options:  options,
		correct:  correct,
		points:   points,
		authorID: authorID,
		answers:  make(map[string]*answerState),
		rankUps:  make(map[string]domain.RankChange),
	}
}

// ID returns the quiz id the session is registered under.
func (s *Session) ID() string { return s.id }

// AuthorID returns the creating user's id.
func (s *Session) AuthorID() string { return s.authorID }

// View returns the presentation snapshot of the session.
func (s *Session) View() domain.QuizView {
	return domain.QuizView{
		QuizID:   s.id,
		Question: s.question,
		Options:  append([]domain.Option(nil), s.options...),
		Points:   s.points,
		AuthorID: s.authorID,
	}
}

func (s *Session) hasOption(letter string) bool {
	for _, opt := range s.options {
		if opt.Letter == letter {
			return true
		}
	}
	return false
}

// Toggle flips a letter in the user's pending set. Unknown letters and
// already-finalized users are inert; the returned selection always reflects
// the user's current state.
func (s *Session) Toggle(userID, letter string) domain.Selection {
	letter = strings.ToUpper(strings.TrimSpace(letter))

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.answers[userID]
	if ok && state.phase == phaseFinal {
		return s.selectionLocked(userID)
	}
	if !s.hasOption(letter) {
		return s.selectionLocked(userID)
	}
	if !ok {
		state = &answerState{phase: phasePending, letters: make(map[string]struct{})}
		s.answers[userID] = state
	}
	if _, selected := state.letters[letter]; selected {
		delete(state.letters, letter)
	} else {
		state.letters[letter] = struct{}{}
	}
	return s.selectionLocked(userID)
}

// SetPending replaces the user's pending set wholesale (select-menu input).
// Unknown letters are dropped; finalized users are inert.
func (s *Session) SetPending(userID string, letters []string) domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.answers[userID]
	if ok && state.phase == phaseFinal {
		return s.selectionLocked(userID)
	}
	next := make(map[string]struct{})
	for _, raw := range letters {
		letter := strings.ToUpper(strings.TrimSpace(raw))
		if s.hasOption(letter) {
			next[letter] = struct{}{}
		}
	}
	s.answers[userID] = &answerState{phase: phasePending, letters: next}
	return s.selectionLocked(userID)
}

// ParseFreeText turns a raw answer string into the sorted set of letters it
// mentions, keeping only characters that match an option letter.
func (s *Session) ParseFreeText(raw string) []string {
	seen := make(map[string]struct{})
	for _, r := range strings.ToUpper(raw) {
		letter := string(r)
		if !s.hasOption(letter) {
			continue
		}
		seen[letter] = struct{}{}
	}
	letters := make([]string, 0, len(seen))
	for letter := range seen {
		letters = append(letters, letter)
	}
	sort.Strings(letters)
	return letters
}

// Finalize freezes the user's pending set as their answer. Subsequent
// toggles and validations are rejected for that user.
func (s *Session) Finalize(userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.answers[userID]
	if ok && state.phase == phaseFinal {
		return nil, domain.ErrAlreadyAnswered
	}
	if !ok || len(state.letters) == 0 {
		return nil, domain.ErrNoSelection
	}
	state.phase = phaseFinal
	s.order = append(s.order, userID)
	return sortedLetters(state.letters), nil
}

// FinalizeLetters records an explicit letter set as the user's answer
// (free-text input). The set must already be parsed and non-empty.
func (s *Session) FinalizeLetters(userID string, letters []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.answers[userID]; ok && state.phase == phaseFinal {
		return nil, domain.ErrAlreadyAnswered
	}
	set := make(map[string]struct{}, len(letters))
	for _, letter := range letters {
		set[letter] = struct{}{}
	}
	s.answers[userID] = &answerState{phase: phaseFinal, letters: set}
	s.order = append(s.order, userID)
	return sortedLetters(set), nil
}

// RecordRankUp stores a tier crossing detected while scoring this session.
// Role changes are deferred to reveal so churn happens once per quiz.
func (s *Session) RecordRankUp(change domain.RankChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankUps[change.UserID] = change
}

// RankUps returns the accumulated tier crossings, ordered by user id.
func (s *Session) RankUps() []domain.RankChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := make([]domain.RankChange, 0, len(s.rankUps))
	for _, change := range s.rankUps {
		changes = append(changes, change)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].UserID < changes[j].UserID })
	return changes
}

// VoteCounts tallies finalized answers per option. A user who picked several
// options counts once per option.
func (s *Session) VoteCounts() []domain.VoteCount {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make([]domain.VoteCount, 0, len(s.options))
	for _, opt := range s.options {
		_, correct := s.correct[opt.Letter]
		votes := 0
		for _, state := range s.answers {
			if state.phase != phaseFinal {
				continue
			}
			if _, picked := state.letters[opt.Letter]; picked {
				votes++
			}
		}
		counts = append(counts, domain.VoteCount{
			Letter:  opt.Letter,
			Text:    opt.Text,
			Correct: correct,
			Votes:   votes,
		})
	}
	return counts
}

// finalAnswer pairs a finalized user with their letters, in submission order.
type finalAnswer struct {
	userID  string
	letters []string
}

func (s *Session) finalAnswers() []finalAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make([]finalAnswer, 0, len(s.order))
	for _, userID := range s.order {
		state := s.answers[userID]
		answers = append(answers, finalAnswer{userID: userID, letters: sortedLetters(state.letters)})
	}
	return answers
}

// Progress reports who has finalized and how many selections are still
// pending, for the author's mid-quiz inspection.
func (s *Session) Progress() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := 0
	answered := append([]string(nil), s.order...)
	for _, state := range s.answers {
		if state.phase == phasePending && len(state.letters) > 0 {
			pending++
		}
	}
	return answered, pending
}

func (s *Session) selectionLocked(userID string) domain.Selection {
	sel := domain.Selection{QuizID: s.id}
	if state, ok := s.answers[userID]; ok {
		sel.Letters = sortedLetters(state.letters)
		sel.Final = state.phase == phaseFinal
	}
	return sel
}

func sortedLetters(set map[string]struct{}) []string {
	letters := make([]string, 0, len(set))
	for letter := range set {
		letters = append(letters, letter)
	}
	sort.Strings(letters)
	return letters
}
