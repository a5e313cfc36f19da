package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"poker-quiz-service/internal/domain"
)

// ScoreStore keeps the scoreboard snapshot as a single JSON value keyed by
// community, mirroring the file layout so backends stay interchangeable.
type ScoreStore struct {
	client *redis.Client
	key    string
	clock  func() time.Time
}

func NewScoreStore(client *redis.Client, community string) *ScoreStore {
	return &ScoreStore{
		client: client,
		key:    "quiz:scores:" + community,
		clock:  time.Now,
	}
}

func (s *ScoreStore) Load(ctx context.Context) (*domain.Scoreboard, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return domain.NewScoreboard(s.clock()), nil
	}
	if err != nil {
		return nil, err
	}

	board := &domain.Scoreboard{}
	if err := json.Unmarshal(data, board); err != nil {
		log.Printf("score store: %v at %s, starting empty: %v", domain.ErrStorageCorrupt, s.key, err)
		return domain.NewScoreboard(s.clock()), nil
	}
	board.Init(s.clock())
	return board, nil
}

func (s *ScoreStore) Save(ctx context.Context, board *domain.Scoreboard) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
