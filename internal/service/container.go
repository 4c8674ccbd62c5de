package service

import (
	"time"

	"truco-service/internal/config"
	"truco-service/internal/service/game"
	"truco-service/internal/service/history"
	"truco-service/internal/service/leaderboard"
	"truco-service/internal/service/match"
	"truco-service/internal/service/room"
	pkgAuth "truco-service/pkg/auth"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Rooms younger than this survive the janitor even before anyone sits down.
const freshRoomGrace = time.Minute

type Container struct {
	Rooms  room.Registry
	Game   *game.Service
	Match  *match.Service
	Signer *pkgAuth.Signer

	// History and Leaderboard are nil when their store is not configured.
	History     *history.Service
	Leaderboard *leaderboard.Service

	janitor     *room.Janitor
	janitorSpec string
	now         func() time.Time
}

func NewContainer(cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts ...game.Option) *Container {
	c := &Container{
		Rooms:       room.NewMemoryRegistry(cfg.Truco.RoomCodeLength),
		Signer:      pkgAuth.NewSigner(cfg.JWT.Secret, time.Duration(cfg.JWT.Expire)*time.Hour),
		janitorSpec: cfg.Truco.JanitorSpec,
		now:         time.Now,
	}

	var sinks game.MultiSink
	if db != nil {
		c.History = history.NewService(db)
		sinks = append(sinks, c.History)
	}
	if rdb != nil {
		c.Leaderboard = leaderboard.NewService(rdb)
		sinks = append(sinks, c.Leaderboard)
	}
	if len(sinks) > 0 {
		opts = append([]game.Option{game.WithSink(sinks)}, opts...)
	}

	c.Game = game.NewService(c.Rooms, GameConfig(cfg.Truco), opts...)
	c.Match = match.NewService(c.Rooms)

	ttl := cfg.Truco.IdleRoomTTL
	c.janitor = room.NewJanitor(c.Rooms, c.keepRoom(ttl), c.Game.Drop)
	return c
}

// keepRoom drops a room once it has no humans and no game, or once its
// runtime has sat idle for ttl. It runs with no registry lock held.
func (c *Container) keepRoom(ttl time.Duration) func(room.Room) bool {
	return func(r room.Room) bool {
		if c.now().Sub(r.CreatedAt) < freshRoomGrace {
			return true
		}
		if !room.DefaultKeep(r) {
			return false
		}
		return !c.Game.Abandoned(r, ttl)
	}
}

func GameConfig(t config.TrucoConfig) game.Config {
	return game.Config{
		RoundDisplayDelay:       t.RoundDisplayDelay,
		NewHandDelay:            t.NewHandDelay,
		BotThinkDelay:           t.BotThinkDelay,
		BotAckDelay:             t.BotAckDelay,
		TurnCompleteMinInterval: t.TurnCompleteMinInterval,
		SubscriberBuffer:        t.SubscriberBuffer,
	}
}

// Start launches background jobs.
func (c *Container) Start() error {
	if c.janitorSpec == "" {
		return nil
	}
	return c.janitor.Start(c.janitorSpec)
}

// Stop halts background jobs and waits for a running sweep.
func (c *Container) Stop() {
	<-c.janitor.Stop().Done()
}
