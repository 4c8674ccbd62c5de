package leaderboard

import (
	"context"
	"os"
	"testing"

	"truco-service/internal/service/game"
	"truco-service/internal/truco"

	"github.com/redis/go-redis/v9"
)

func members() [truco.Seats]truco.Member {
	return [truco.Seats]truco.Member{
		{ID: "a", Name: "alice"},
		{ID: "b", Name: "bob"},
		{ID: "c", Name: "carol"},
		{ID: "bot-1", Name: "Bot 4", IsBot: true},
	}
}

func TestHandWithoutSetIsIgnored(t *testing.T) {
	svc := NewService(nil)
	err := svc.HandFinished(context.Background(), game.HandReport{Members: members()})
	if err != nil {
		t.Fatalf("expected no redis call, got %v", err)
	}
}

func TestSetWinsAreRanked(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	svc := NewService(rdb)
	svc.key = "truco:test:" + t.Name()
	defer rdb.Del(ctx, svc.key)

	team1 := game.HandReport{Members: members(), Outcome: truco.HandOutcome{SetWinner: truco.Team1}}
	team2 := game.HandReport{Members: members(), Outcome: truco.HandOutcome{SetWinner: truco.Team2}}
	for _, r := range []game.HandReport{team1, team1, team2} {
		if err := svc.HandFinished(ctx, r); err != nil {
			t.Fatalf("record set failed: %v", err)
		}
	}

	top, err := svc.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("bots must not be ranked: %+v", top)
	}
	if top[0].Sets != 2 || top[2].Name != "bob" || top[2].Sets != 1 {
		t.Fatalf("unexpected ranking: %+v", top)
	}
}
