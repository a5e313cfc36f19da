package file

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"poker-quiz-service/internal/domain"
)

// ScoreStore persists the scoreboard as one JSON snapshot on disk, the
// original scores-file layout. A missing or unreadable file loads as an
// empty board: availability wins over strict durability, and the next save
// overwrites whatever was there.
type ScoreStore struct {
	path  string
	clock func() time.Time
}

func NewScoreStore(path string) *ScoreStore {
	return &ScoreStore{path: path, clock: time.Now}
}

func (s *ScoreStore) Load(_ context.Context) (*domain.Scoreboard, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.NewScoreboard(s.clock()), nil
	}
	if err != nil {
		return nil, err
	}

	board := &domain.Scoreboard{}
	if err := json.Unmarshal(data, board); err != nil {
		log.Printf("score store: %v at %s, starting empty: %v", domain.ErrStorageCorrupt, s.path, err)
		return domain.NewScoreboard(s.clock()), nil
	}
	board.Init(s.clock())
	return board, nil
}

func (s *ScoreStore) Save(_ context.Context, board *domain.Scoreboard) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
