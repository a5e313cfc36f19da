package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"poker-quiz-service/internal/app"
	"poker-quiz-service/internal/domain"
	filestore "poker-quiz-service/internal/infra/file"
	"poker-quiz-service/internal/infra/memory"
)

func newTestService(t *testing.T) (*app.QuizService, *memory.RolePlatform) {
	t.Helper()
	ctx := context.Background()
	store := filestore.NewScoreStore(filepath.Join(t.TempDir(), "scores.json"))
	roles := memory.NewRolePlatform()
	members := memory.NewMemberDirectory(memory.NewStaticMemberSource(map[string]string{
		"u1": "Alice",
		"u2": "Bob",
	}), time.Minute)
	service, err := app.NewQuizService(ctx, memory.NewSessionRegistry(), store, roles, members)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, roles
}

func TestCreateQuizAssignsLettersAndNormalizesCards(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	view, err := service.CreateQuiz(ctx, "q1", "Best starting hand?", "AhAd|KhKd|72o", "A", 10, "author")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(view.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(view.Options))
	}
	if view.Options[0].Letter != "A" || view.Options[1].Letter != "B" || view.Options[2].Letter != "C" {
		t.Fatalf("letters not assigned in order: %+v", view.Options)
	}
	if view.Options[0].Text != "A♥️ A♦️" {
		t.Fatalf("card shorthand not normalized: %q", view.Options[0].Text)
	}
	if view.Options[2].Text != "72o" {
		t.Fatalf("non-card text must pass through: %q", view.Options[2].Text)
	}

	if _, err := service.CreateQuiz(ctx, "q1", "again", "x|y", "A", 5, "author"); !errors.Is(err, domain.ErrDuplicateQuizID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestCreateQuizGeneratesIDWhenEmpty(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	view, err := service.CreateQuiz(ctx, "", "q", "a|b", "A", 1, "author")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.QuizID == "" {
		t.Fatalf("expected a generated quiz id")
	}
}

func TestToggleIsIdempotentPairwise(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two|three", "A", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}

	sel, err := service.Toggle(ctx, "q1", "u1", "A")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(sel.Letters) != 1 || sel.Letters[0] != "A" {
		t.Fatalf("expected [A], got %v", sel.Letters)
	}

	sel, _ = service.Toggle(ctx, "q1", "u1", "B")
	sel, _ = service.Toggle(ctx, "q1", "u1", "B")
	if len(sel.Letters) != 1 || sel.Letters[0] != "A" {
		t.Fatalf("double toggle must restore prior state, got %v", sel.Letters)
	}

	// Unknown letters are inert.
	sel, _ = service.Toggle(ctx, "q1", "u1", "Z")
	if len(sel.Letters) != 1 {
		t.Fatalf("unknown letter mutated selection: %v", sel.Letters)
	}

	if _, err := service.Toggle(ctx, "missing", "u1", "A"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz-not-found for late toggle, got %v", err)
	}
}

func TestValidateIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two|three", "A,C", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Validate(ctx, "q1", "u1"); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected no-selection error, got %v", err)
	}

	service.Toggle(ctx, "q1", "u1", "A")
	service.Toggle(ctx, "q1", "u1", "B")
	sub, err := service.Validate(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub.Gained != 9.5 || sub.Total != 9.5 {
		t.Fatalf("expected gained 9.5, got %+v", sub)
	}

	before := service.MyRank(ctx, "u1")
	if _, err := service.Validate(ctx, "q1", "u1"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already-answered, got %v", err)
	}
	after := service.MyRank(ctx, "u1")
	if before.AllTime != after.AllTime {
		t.Fatalf("failed revalidation mutated the scoreboard: %+v vs %+v", before, after)
	}

	// Toggles after finalization are inert.
	sel, _ := service.Toggle(ctx, "q1", "u1", "C")
	if !sel.Final || len(sel.Letters) != 2 {
		t.Fatalf("toggle after validate must be a no-op, got %+v", sel)
	}
}

func TestSubmitTextParsesLetters(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two|three", "A,C", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.SubmitText(ctx, "q1", "u1", "x y z"); !errors.Is(err, domain.ErrNoValidAnswer) {
		t.Fatalf("expected no-valid-answer, got %v", err)
	}

	sub, err := service.SubmitText(ctx, "q1", "u1", "c, a and c again")
	if err != nil {
		t.Fatalf("submit text: %v", err)
	}
	if len(sub.Letters) != 2 || sub.Letters[0] != "A" || sub.Letters[1] != "C" {
		t.Fatalf("expected deduped sorted [A C], got %v", sub.Letters)
	}
	if sub.Gained != 20 {
		t.Fatalf("expected 20 points for two hits, got %v", sub.Gained)
	}

	if _, err := service.SubmitText(ctx, "q1", "u1", "b"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already-answered on second submit, got %v", err)
	}
}

func TestRevealTalliesAndDestroysSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two|three", "A,C", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}
	service.Toggle(ctx, "q1", "u1", "A")
	service.Toggle(ctx, "q1", "u1", "B")
	if _, err := service.Validate(ctx, "q1", "u1"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	result, err := service.Reveal(ctx, "q1")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	wantVotes := map[string]int{"A": 1, "B": 1, "C": 0}
	for _, count := range result.Counts {
		if count.Votes != wantVotes[count.Letter] {
			t.Fatalf("letter %s: got %d votes, want %d", count.Letter, count.Votes, wantVotes[count.Letter])
		}
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected one player result, got %d", len(result.Results))
	}
	if result.Results[0].Gained != 9.5 || result.Results[0].DisplayName != "Alice" {
		t.Fatalf("unexpected player result %+v", result.Results[0])
	}

	if _, err := service.Reveal(ctx, "q1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("second reveal must fail, got %v", err)
	}

	// The id is reusable after reveal.
	if _, err := service.CreateQuiz(ctx, "q1", "again", "x|y", "A", 5, "author"); err != nil {
		t.Fatalf("id not released after reveal: %v", err)
	}
}

func TestRankUpIsDeferredToReveal(t *testing.T) {
	ctx := context.Background()
	service, roles := newTestService(t)

	// Start just below the first threshold so one quiz crosses it.
	service.AddPoints(ctx, "u1", 9)

	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two", "A", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}
	service.Toggle(ctx, "q1", "u1", "A")
	sub, err := service.Validate(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub.RankUp == nil || sub.RankUp.OldRank != "ABI 0€" || sub.RankUp.NewRank != "ABI 2€" {
		t.Fatalf("expected rank-up from ABI 0€ to ABI 2€, got %+v", sub.RankUp)
	}
	if roles.HasRole("u1", "ABI 2€") {
		t.Fatalf("role must not change before reveal")
	}

	result, err := service.Reveal(ctx, "q1")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if len(result.RankUps) != 1 || result.RankUps[0].NewRank != "ABI 2€" {
		t.Fatalf("expected one rank-up line, got %+v", result.RankUps)
	}
	if !roles.HasRole("u1", "ABI 2€") {
		t.Fatalf("new rank role not assigned at reveal")
	}
	if color, ok := roles.RoleColor("ABI 2€"); !ok || color != 0x22A6B3 {
		t.Fatalf("role created with wrong color %#x", color)
	}
}

func TestInspectIsAuthorOnly(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two", "A", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}
	service.Toggle(ctx, "q1", "u1", "A")
	service.Toggle(ctx, "q1", "u2", "B")
	if _, err := service.Validate(ctx, "q1", "u2"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if _, err := service.Inspect(ctx, "q1", "u1"); !errors.Is(err, domain.ErrNotAuthor) {
		t.Fatalf("expected not-author, got %v", err)
	}
	report, err := service.Inspect(ctx, "q1", "author")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(report.Answered) != 1 || report.Answered[0] != "u2" || report.Pending != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestLeaderboardAndMyRank(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	service.SetPoints(ctx, "u1", 30)
	service.SetPoints(ctx, "u2", 120)

	lb := service.Leaderboard(ctx)
	if len(lb.AllTime) != 2 || lb.AllTime[0].UserID != "u2" {
		t.Fatalf("expected u2 leading, got %+v", lb.AllTime)
	}
	if lb.AllTime[0].Rank != "ABI 35€" || lb.AllTime[0].DisplayName != "Bob" {
		t.Fatalf("unexpected top row %+v", lb.AllTime[0])
	}

	report := service.MyRank(ctx, "u1")
	if report.Rank != "ABI 5€" {
		t.Fatalf("expected ABI 5€, got %q", report.Rank)
	}
	if report.Next == nil || report.Next.Label != "ABI 10€" || report.Next.Shortfall != 20 {
		t.Fatalf("unexpected next rank %+v", report.Next)
	}
}

func TestMonthlyRolloverAtLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.json")
	store := filestore.NewScoreStore(path)

	july := func() time.Time { return time.Date(2025, time.July, 20, 12, 0, 0, 0, time.UTC) }
	august := func() time.Time { return time.Date(2025, time.August, 2, 9, 0, 0, 0, time.UTC) }

	members := memory.NewMemberDirectory(memory.NewStaticMemberSource(nil), time.Minute)

	service, err := app.NewQuizServiceWithClock(ctx, memory.NewSessionRegistry(), store, memory.NewRolePlatform(), members, july)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	service.AddPoints(ctx, "u1", 40)

	reloaded, err := app.NewQuizServiceWithClock(ctx, memory.NewSessionRegistry(), store, memory.NewRolePlatform(), members, august)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	report := reloaded.MyRank(ctx, "u1")
	if report.AllTime.Points != 40 {
		t.Fatalf("all-time bucket lost on rollover: %+v", report.AllTime)
	}
	if report.Monthly.Points != 0 {
		t.Fatalf("monthly bucket not cleared on rollover: %+v", report.Monthly)
	}

	// The rollover was persisted immediately.
	board, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if board.LastMonth != int(time.August) || len(board.Monthly) != 0 {
		t.Fatalf("rollover not persisted: month=%d monthly=%d", board.LastMonth, len(board.Monthly))
	}
}

func TestStrayCorrectLetterIsAlwaysMiss(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	// Author names D as correct but only A..C exist; D can never be picked.
	if _, err := service.CreateQuiz(ctx, "q1", "q", "one|two|three", "D", 10, "author"); err != nil {
		t.Fatalf("create: %v", err)
	}
	service.Toggle(ctx, "q1", "u1", "A")
	sub, err := service.Validate(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub.Gained != -0.5 {
		t.Fatalf("expected -0.5 for one miss, got %v", sub.Gained)
	}
}
