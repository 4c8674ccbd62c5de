package leaderboard

import (
	"context"

	"truco-service/internal/service/game"
	"truco-service/internal/truco"

	"github.com/redis/go-redis/v9"
)

const defaultKey = "truco:leaderboard:sets"

// Service ranks human players by sets won, in a redis sorted set.
type Service struct {
	rdb redis.Cmdable
	key string
}

type Entry struct {
	Name string `json:"name"`
	Sets int64  `json:"sets"`
}

func NewService(rdb redis.Cmdable) *Service {
	return &Service{rdb: rdb, key: defaultKey}
}

// HandFinished credits one set to every human on the set-winning team.
func (s *Service) HandFinished(ctx context.Context, report game.HandReport) error {
	winner := report.Outcome.SetWinner
	if winner == truco.NoTeam {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for seat, m := range report.Members {
			if m.IsBot || truco.TeamForSeat(seat) != winner {
				continue
			}
			pipe.ZIncrBy(ctx, s.key, 1, m.Name)
		}
		return nil
	})
	return err
}

func (s *Service) Top(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.rdb.ZRevRangeWithScores(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, z := range rows {
		name, _ := z.Member.(string)
		out = append(out, Entry{Name: name, Sets: int64(z.Score)})
	}
	return out, nil
}
