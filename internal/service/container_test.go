package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"truco-service/internal/config"
	"truco-service/internal/service/game"
	"truco-service/internal/service/room"
	appErr "truco-service/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "secret", Expire: 1},
		Truco: config.TrucoConfig{
			RoomCodeLength:          6,
			RoundDisplayDelay:       time.Second,
			NewHandDelay:            time.Second,
			BotThinkDelay:           time.Second,
			BotAckDelay:             time.Second,
			TurnCompleteMinInterval: 100 * time.Millisecond,
			SubscriberBuffer:        8,
			JanitorSpec:             "@every 1h",
			IdleRoomTTL:             time.Hour,
		},
	}
}

func TestContainerWithoutStores(t *testing.T) {
	c := NewContainer(testConfig(), nil, nil)
	if c.History != nil || c.Leaderboard != nil {
		t.Fatalf("stores should be disabled without db and redis")
	}
	if c.Rooms == nil || c.Game == nil || c.Match == nil || c.Signer == nil {
		t.Fatalf("container is missing core services")
	}
	if err := c.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	c.Stop()
}

func TestContainerRejectsBadJanitorSpec(t *testing.T) {
	cfg := testConfig()
	cfg.Truco.JanitorSpec = "never"
	c := NewContainer(cfg, nil, nil)
	if err := c.Start(); err == nil {
		t.Fatalf("expected an error for a bad janitor spec")
	}
}

func TestJanitorKeepsFreshEmptyRooms(t *testing.T) {
	c := NewContainer(testConfig(), nil, nil)
	r, err := c.Rooms.Create(room.GameTypeTruco, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	c.janitor.Sweep()
	if _, err := c.Rooms.Get(r.Code); err != nil {
		t.Fatalf("fresh room should survive the sweep: %v", err)
	}
}

func TestGameConfigCopiesDelays(t *testing.T) {
	cfg := testConfig()
	gc := GameConfig(cfg.Truco)
	if gc.BotThinkDelay != cfg.Truco.BotThinkDelay || gc.SubscriberBuffer != cfg.Truco.SubscriberBuffer {
		t.Fatalf("unexpected game config: %+v", gc)
	}
}

// botTable seats one human and three bots, and moves the container clock
// past the fresh-room grace.
func botTable(t *testing.T, c *Container) (room.Room, room.Player) {
	t.Helper()
	later := time.Now().Add(2 * time.Hour)
	c.now = func() time.Time { return later }

	r, err := c.Rooms.Create(room.GameTypeTruco, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, alice, err := c.Rooms.Join(r.Code, "alice", "")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := c.Rooms.AddBot(r.Code); err != nil {
			t.Fatalf("add bot failed: %v", err)
		}
	}
	return r, alice
}

func TestJanitorSweepRunsAlongsideRoomActions(t *testing.T) {
	c := NewContainer(testConfig(), nil, nil)
	r, alice := botTable(t, c)
	rt, err := c.Game.GetRuntime(r.Code)
	if err != nil {
		t.Fatalf("runtime failed: %v", err)
	}
	defer c.Game.Drop(r.Code)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = rt.HandleAction(alice.ID, game.Ready{})
			_, _ = rt.State(alice.ID)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.janitor.Sweep()
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("sweep and room actions deadlocked")
	}
	if _, err := c.Rooms.Get(r.Code); err != nil {
		t.Fatalf("seated room should survive the sweep: %v", err)
	}
}

func TestJanitorRemovesRoomOnceLastHumanLeavesGame(t *testing.T) {
	c := NewContainer(testConfig(), nil, nil)
	r, alice := botTable(t, c)
	rt, err := c.Game.GetRuntime(r.Code)
	if err != nil {
		t.Fatalf("runtime failed: %v", err)
	}
	if err := rt.HandleAction(alice.ID, game.Ready{}); err != nil {
		t.Fatalf("ready failed: %v", err)
	}
	if !rt.Started() {
		t.Fatalf("game should start with three bots seated")
	}

	c.janitor.Sweep()
	if _, err := c.Rooms.Get(r.Code); err != nil {
		t.Fatalf("room with a game running should survive: %v", err)
	}

	left, err := c.Game.Leave(r.Code, alice.ID)
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if left.InGame || left.HumanCount() != 0 {
		t.Fatalf("unexpected room after leave: %+v", left)
	}

	c.janitor.Sweep()
	if _, err := c.Rooms.Get(r.Code); !errors.Is(err, appErr.ErrRoomNotFound) {
		t.Fatalf("expected room to be removed, got %v", err)
	}
	if _, ok := c.Game.Lookup(r.Code); ok {
		t.Fatalf("runtime should be dropped with its room")
	}
}

func TestSweepKeepDoesNotBlockRoomActions(t *testing.T) {
	c := NewContainer(testConfig(), nil, nil)
	r, alice := botTable(t, c)
	rt, err := c.Game.GetRuntime(r.Code)
	if err != nil {
		t.Fatalf("runtime failed: %v", err)
	}
	defer c.Game.Drop(r.Code)

	keep := c.keepRoom(time.Hour)
	finished := make(chan struct{})
	go func() {
		c.Rooms.Sweep(func(rm room.Room) bool {
			acted := make(chan error, 1)
			go func() { acted <- rt.HandleAction(alice.ID, game.Ready{}) }()
			select {
			case err := <-acted:
				if err != nil {
					t.Errorf("ready failed: %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Errorf("room action blocked while keep ran")
			}
			return keep(rm)
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatalf("sweep did not return")
	}
	if !rt.Started() {
		t.Fatalf("ready during the sweep should have started the game")
	}
}
