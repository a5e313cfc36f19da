package postgres

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"poker-quiz-service/internal/domain"
)

// ScoreStore keeps the scoreboard snapshot in a JSONB row per community.
// The schema is managed by the bun migrations under migrations/.
type ScoreStore struct {
	pool      *pgxpool.Pool
	community string
	clock     func() time.Time
}

func NewScoreStore(pool *pgxpool.Pool, community string) *ScoreStore {
	return &ScoreStore{pool: pool, community: community, clock: time.Now}
}

func (s *ScoreStore) Load(ctx context.Context) (*domain.Scoreboard, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM score_snapshots WHERE community=$1`, s.community).Scan(&raw)
	if err == pgx.ErrNoRows {
		return domain.NewScoreboard(s.clock()), nil
	}
	if err != nil {
		return nil, err
	}

	board := &domain.Scoreboard{}
	if err := json.Unmarshal(raw, board); err != nil {
		log.Printf("score store: %v for community %s, starting empty: %v", domain.ErrStorageCorrupt, s.community, err)
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
	_, err = s.pool.Exec(ctx, `
		INSERT INTO score_snapshots (community, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (community) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		s.community, string(data))
	return err
}
