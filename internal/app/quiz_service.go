package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"poker-quiz-service/internal/domain"
)

// SessionRegistry abstracts how active sessions are tracked (in-memory today).
type SessionRegistry interface {
	Create(session *Session) error
	Get(quizID string) (*Session, bool)
	Delete(quizID string)
}

// ScoreStore persists the scoreboard as one snapshot (file, Redis, Postgres).
// Save runs synchronously after every mutation; there is no batching.
type ScoreStore interface {
	Load(ctx context.Context) (*domain.Scoreboard, error)
	Save(ctx context.Context, board *domain.Scoreboard) error
}

// RolePlatform mutates rank roles on the chat platform. Calls are attempted
// once; the score state stays authoritative when they fail.
type RolePlatform interface {
	EnsureRole(ctx context.Context, label string, color int) error
	AddRole(ctx context.Context, userID, label string) error
	RemoveRole(ctx context.Context, userID, label string) error
}

// MemberDirectory resolves user ids to display names.
type MemberDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// QuizService is the quiz lifecycle and scoring engine. It owns the active
// session set and the scoreboard; every mutation is persisted before the
// handler returns.
type QuizService struct {
	sessions SessionRegistry
	store    ScoreStore
	roles    RolePlatform
	members  MemberDirectory
	ranks    domain.RankTable
	now      func() time.Time

	mu    sync.Mutex // guards board reads-modify-writes and their saves
	board *domain.Scoreboard
}

// NewQuizService loads the scoreboard, applies a pending monthly rollover,
// and persists immediately if one occurred.
func NewQuizService(ctx context.Context, sessions SessionRegistry, store ScoreStore, roles RolePlatform, members MemberDirectory) (*QuizService, error) {
	return NewQuizServiceWithClock(ctx, sessions, store, roles, members, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic month boundaries.
func NewQuizServiceWithClock(ctx context.Context, sessions SessionRegistry, store ScoreStore, roles RolePlatform, members MemberDirectory, now func() time.Time) (*QuizService, error) {
	board, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	board.Init(now())

	s := &QuizService{
		sessions: sessions,
		store:    store,
		roles:    roles,
		members:  members,
		ranks:    domain.DefaultRankTable,
		now:      now,
		board:    board,
	}
	if board.RolloverIfNeeded(now()) {
		if err := store.Save(ctx, board); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RankTable exposes the tier ladder for presentation.
func (s *QuizService) RankTable() domain.RankTable { return s.ranks }

// CreateQuiz opens a new session. An empty quizID gets a generated one;
// a quizID already in use is rejected. Choices arrive pipe-delimited and
// correct letters comma-separated, matching the command surface.
func (s *QuizService) CreateQuiz(ctx context.Context, quizID, question, pipeChoices, correctCSV string, points float64, authorID string) (domain.QuizView, error) {
	if quizID == "" {
		quizID = uuid.NewString()
	}
	choices := strings.Split(pipeChoices, "|")
	session := NewSession(quizID, question, choices, correctCSV, points, authorID)
	if err := s.sessions.Create(session); err != nil {
		return domain.QuizView{}, err
	}
	return session.View(), nil
}

// Toggle flips one letter in the user's pending selection. Late toggles on
// an expired quiz report ErrQuizNotFound so the caller can tell the user.
func (s *QuizService) Toggle(ctx context.Context, quizID, userID, letter string) (domain.Selection, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.Selection{}, domain.ErrQuizNotFound
	}
	return session.Toggle(userID, letter), nil
}

// SetPending replaces the user's pending selection wholesale.
func (s *QuizService) SetPending(ctx context.Context, quizID, userID string, letters []string) (domain.Selection, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.Selection{}, domain.ErrQuizNotFound
	}
	return session.SetPending(userID, letters), nil
}

// Validate freezes the user's pending selection and scores it. Per user this
// is single-shot: a second call fails with ErrAlreadyAnswered and leaves the
// scoreboard untouched.
func (s *QuizService) Validate(ctx context.Context, quizID, userID string) (domain.Submission, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.Submission{}, domain.ErrQuizNotFound
	}
	letters, err := session.Finalize(userID)
	if err != nil {
		return domain.Submission{}, err
	}
	return s.scoreAnswer(ctx, session, userID, letters), nil
}

// SubmitText is the free-text strategy: the raw string is uppercased and
// filtered to known option letters. An empty result fails with
// ErrNoValidAnswer before anything is recorded.
func (s *QuizService) SubmitText(ctx context.Context, quizID, userID, raw string) (domain.Submission, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.Submission{}, domain.ErrQuizNotFound
	}
	letters := session.ParseFreeText(raw)
	if len(letters) == 0 {
		return domain.Submission{}, domain.ErrNoValidAnswer
	}
	final, err := session.FinalizeLetters(userID, letters)
	if err != nil {
		return domain.Submission{}, err
	}
	return s.scoreAnswer(ctx, session, userID, final), nil
}

// scoreAnswer applies a finalized answer to both buckets as one unsuspended
// read-increment-write, then records any tier crossing on the session for
// reveal-time role sync.
func (s *QuizService) scoreAnswer(ctx context.Context, session *Session, userID string, letters []string) domain.Submission {
	gained := Gained(letterSet(letters), session.correct, session.points)

	s.mu.Lock()
	s.rolloverLocked(ctx)
	oldRank := s.ranks.RankFor(s.board.Points(domain.BucketAllTime, userID))
	total := s.board.ApplyAnswer(userID, gained)
	s.saveLocked(ctx)
	s.mu.Unlock()

	submission := domain.Submission{
		QuizID:  session.ID(),
		Letters: letters,
		Gained:  gained,
		Total:   total,
	}
	if newRank := s.ranks.RankFor(total); newRank != oldRank {
		change := domain.RankChange{UserID: userID, OldRank: oldRank, NewRank: newRank}
		session.RecordRankUp(change)
		submission.RankUp = &change
	}
	return submission
}

// Reveal tallies a session, applies its deferred rank-ups, and destroys it.
// The quiz id becomes reusable; a second reveal fails with ErrQuizNotFound.
func (s *QuizService) Reveal(ctx context.Context, quizID string) (domain.RevealResult, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.RevealResult{}, domain.ErrQuizNotFound
	}

	result := domain.RevealResult{
		QuizID:   quizID,
		Question: session.question,
		Counts:   session.VoteCounts(),
	}

	for _, answer := range session.finalAnswers() {
		// Read-only recomputation for display; the scoreboard was already
		// mutated at validation time.
		result.Results = append(result.Results, domain.PlayerResult{
			UserID:      answer.userID,
			DisplayName: s.displayName(ctx, answer.userID),
			Letters:     answer.letters,
			Gained:      Gained(letterSet(answer.letters), session.correct, session.points),
		})
	}

	for _, change := range session.RankUps() {
		s.syncRole(ctx, change)
		change.DisplayName = s.displayName(ctx, change.UserID)
		result.RankUps = append(result.RankUps, change)
	}

	s.sessions.Delete(quizID)
	return result, nil
}

// Inspect is the author-only progress view of an open quiz.
func (s *QuizService) Inspect(ctx context.Context, quizID, requesterID string) (domain.InspectReport, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.InspectReport{}, domain.ErrQuizNotFound
	}
	if session.AuthorID() != requesterID {
		return domain.InspectReport{}, domain.ErrNotAuthor
	}
	answered, pending := session.Progress()
	return domain.InspectReport{QuizID: quizID, Answered: answered, Pending: pending}, nil
}

// SetPoints overwrites a user's totals in both buckets. The caller context
// is assumed to have passed the admin gate already.
func (s *QuizService) SetPoints(ctx context.Context, userID string, points float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked(ctx)
	s.board.SetPoints(userID, points)
	s.saveLocked(ctx)
}

// AddPoints shifts a user's totals in both buckets by the given amount.
func (s *QuizService) AddPoints(ctx context.Context, userID string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked(ctx)
	s.board.AddPoints(userID, amount)
	s.saveLocked(ctx)
}

// RemovePoints subtracts from a user's totals in both buckets. Totals may
// go negative.
func (s *QuizService) RemovePoints(ctx context.Context, userID string, amount float64) {
	s.AddPoints(ctx, userID, -amount)
}

// ResetScores clears both buckets.
func (s *QuizService) ResetScores(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Reset()
	s.saveLocked(ctx)
}

// SyncRoles ensures every tier label has a platform role with the table's
// color. Failures are reported joined so an admin sees what went wrong.
func (s *QuizService) SyncRoles(ctx context.Context) error {
	var errs []error
	for _, entry := range s.ranks {
		if err := s.roles.EnsureRole(ctx, entry.Label, entry.Color); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Leaderboard renders both buckets sorted by points descending.
func (s *QuizService) Leaderboard(ctx context.Context) domain.Leaderboard {
	s.mu.Lock()
	allTime := s.board.Ranking(domain.BucketAllTime)
	monthly := s.board.Ranking(domain.BucketMonthly)
	s.mu.Unlock()

	return domain.Leaderboard{
		AllTime: s.rows(ctx, allTime),
		Monthly: s.rows(ctx, monthly),
	}
}

// MyRank reports one user's records, current tier, and next-tier distance.
func (s *QuizService) MyRank(ctx context.Context, userID string) domain.RankReport {
	s.mu.Lock()
	report := domain.RankReport{UserID: userID}
	if rec, ok := s.board.AllTime[userID]; ok {
		report.AllTime = *rec
	}
	if rec, ok := s.board.Monthly[userID]; ok {
		report.Monthly = *rec
	}
	s.mu.Unlock()

	report.Rank = s.ranks.RankFor(report.AllTime.Points)
	if next, ok := s.ranks.NextRankFor(report.AllTime.Points); ok {
		report.Next = &next
	}
	return report
}

func (s *QuizService) rows(ctx context.Context, entries []domain.RankedEntry) []domain.LeaderboardRow {
	rows := make([]domain.LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, domain.LeaderboardRow{
			UserID:      e.UserID,
			DisplayName: s.displayName(ctx, e.UserID),
			Points:      e.Points,
			Questions:   e.Questions,
			Rank:        s.ranks.RankFor(e.Points),
		})
	}
	return rows
}

// syncRole swaps the member's rank role: ensure the destination exists,
// drop the old one, add the new one. Each step is attempted once and
// failures are logged and swallowed; the reveal must not abort on them.
func (s *QuizService) syncRole(ctx context.Context, change domain.RankChange) {
	if err := s.roles.EnsureRole(ctx, change.NewRank, s.ranks.ColorFor(change.NewRank)); err != nil {
		log.Printf("role sync: ensure %q for %s: %v", change.NewRank, change.UserID, err)
		return
	}
	if change.OldRank != "" {
		if err := s.roles.RemoveRole(ctx, change.UserID, change.OldRank); err != nil {
			log.Printf("role sync: remove %q from %s: %v", change.OldRank, change.UserID, err)
		}
	}
	if err := s.roles.AddRole(ctx, change.UserID, change.NewRank); err != nil {
		log.Printf("role sync: add %q to %s: %v", change.NewRank, change.UserID, err)
	}
}

func (s *QuizService) displayName(ctx context.Context, userID string) string {
	if s.members == nil {
		return userID
	}
	name, err := s.members.DisplayName(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}

func (s *QuizService) rolloverLocked(ctx context.Context) {
	if s.board.RolloverIfNeeded(s.now()) {
		s.saveLocked(ctx)
	}
}

func (s *QuizService) saveLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.board); err != nil {
		// The in-memory board stays authoritative; the next mutation retries
		// the full-snapshot write.
		log.Printf("score store: save failed: %v", err)
	}
}
