package room

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"truco-service/internal/truco"
	appErr "truco-service/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

func newTestRegistry(t *testing.T) *MemoryRegistry {
	t.Helper()
	reg := NewMemoryRegistry(4)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	reg.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	reg.bcryptCost = bcrypt.MinCost
	codes := 0
	reg.newCode = func(int) string {
		codes++
		return fmt.Sprintf("R%03d", codes)
	}
	return reg
}

func TestCreateAndGet(t *testing.T) {
	reg := newTestRegistry(t)

	r, err := reg.Create("", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if r.GameType != GameTypeTruco || r.Code == "" {
		t.Fatalf("unexpected room: %+v", r)
	}
	got, err := reg.Get(r.Code)
	if err != nil || got.Code != r.Code {
		t.Fatalf("get failed: %v %+v", err, got)
	}
	if _, err := reg.Get("NOPE"); !errors.Is(err, appErr.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if _, err := reg.Create("poker", ""); !errors.Is(err, appErr.ErrUnsupportedGameType) {
		t.Fatalf("expected ErrUnsupportedGameType, got %v", err)
	}
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	reg := newTestRegistry(t)
	seq := []string{"AAAA", "AAAA", "BBBB"}
	reg.newCode = func(int) string {
		c := seq[0]
		seq = seq[1:]
		return c
	}
	first, _ := reg.Create(GameTypeTruco, "")
	second, err := reg.Create(GameTypeTruco, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.Code != "AAAA" || second.Code != "BBBB" {
		t.Fatalf("unexpected codes %s %s", first.Code, second.Code)
	}
}

func TestJoinAssignsSeatsAndTeams(t *testing.T) {
	reg := newTestRegistry(t)
	r, _ := reg.Create(GameTypeTruco, "")

	alice, _, err := reg.Join(r.Code, "alice", "")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	_, bot, err := reg.AddBot(r.Code)
	if err != nil {
		t.Fatalf("add bot failed: %v", err)
	}
	if !bot.IsBot || bot.Seat != 1 || bot.Team != truco.Team2 || bot.Name != "Bot 2" {
		t.Fatalf("unexpected bot: %+v", bot)
	}
	if alice.Players[0] == nil || alice.Players[0].Team != truco.Team1 {
		t.Fatalf("unexpected first seat: %+v", alice.Players[0])
	}

	reg.Join(r.Code, "carol", "")
	full, _, _ := reg.AddBot(r.Code)
	if !full.Full() || full.HumanCount() != 2 {
		t.Fatalf("expected full room with 2 humans, got %+v", full)
	}
	if _, _, err := reg.Join(r.Code, "dave", ""); !errors.Is(err, appErr.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestLeaveKeepsSeatIndexes(t *testing.T) {
	reg := newTestRegistry(t)
	r, _ := reg.Create(GameTypeTruco, "")
	_, a, _ := reg.Join(r.Code, "a", "")
	_, b, _ := reg.Join(r.Code, "b", "")
	_, c, _ := reg.Join(r.Code, "c", "")

	after, err := reg.Leave(r.Code, b.ID)
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if after.Players[1] != nil {
		t.Fatalf("seat 1 should be open")
	}
	if after.Players[0].ID != a.ID || after.Players[2].ID != c.ID {
		t.Fatalf("seats shifted: %+v", after.Players)
	}

	_, d, _ := reg.Join(r.Code, "d", "")
	if d.Seat != 1 {
		t.Fatalf("expected the freed seat to be reused, got %d", d.Seat)
	}
	if _, err := reg.Leave(r.Code, "ghost"); !errors.Is(err, appErr.ErrInvalidPlayer) {
		t.Fatalf("expected ErrInvalidPlayer, got %v", err)
	}
}

func TestInGameLocksSeats(t *testing.T) {
	reg := newTestRegistry(t)
	r, _ := reg.Create(GameTypeTruco, "")
	_, a, _ := reg.Join(r.Code, "a", "")
	if err := reg.SetInGame(r.Code, true); err != nil {
		t.Fatalf("set in game failed: %v", err)
	}
	if _, _, err := reg.Join(r.Code, "late", ""); !errors.Is(err, appErr.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress on join, got %v", err)
	}
	if _, err := reg.Leave(r.Code, a.ID); !errors.Is(err, appErr.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress on leave, got %v", err)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	reg := newTestRegistry(t)
	r, _ := reg.Create(GameTypeTruco, "")
	snap, _, _ := reg.Join(r.Code, "a", "")
	snap.Players[0].Name = "mallory"

	got, _ := reg.Get(r.Code)
	if got.Players[0].Name != "a" {
		t.Fatalf("registry state leaked through snapshot: %+v", got.Players[0])
	}
}

func TestListOrdersByCreation(t *testing.T) {
	reg := newTestRegistry(t)
	first, _ := reg.Create(GameTypeTruco, "")
	second, _ := reg.Create(GameTypeTruco, "")

	list := reg.List()
	if len(list) != 2 || list[0].Code != first.Code || list[1].Code != second.Code {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestJanitorSweepsEmptyRooms(t *testing.T) {
	reg := newTestRegistry(t)
	empty, _ := reg.Create(GameTypeTruco, "")
	botsOnly, _ := reg.Create(GameTypeTruco, "")
	reg.AddBot(botsOnly.Code)
	occupied, _ := reg.Create(GameTypeTruco, "")
	reg.Join(occupied.Code, "a", "")
	playing, _ := reg.Create(GameTypeTruco, "")
	reg.SetInGame(playing.Code, true)

	var dropped []string
	j := NewJanitor(reg, nil, func(code string) { dropped = append(dropped, code) })
	j.Sweep()

	if len(dropped) != 2 || dropped[0] != empty.Code || dropped[1] != botsOnly.Code {
		t.Fatalf("unexpected sweep result: %v", dropped)
	}
	if _, err := reg.Get(occupied.Code); err != nil {
		t.Fatalf("occupied room removed: %v", err)
	}
	if _, err := reg.Get(playing.Code); err != nil {
		t.Fatalf("room with a game removed: %v", err)
	}
}

func TestJanitorRejectsBadSpec(t *testing.T) {
	j := NewJanitor(NewMemoryRegistry(4), nil, nil)
	if err := j.Start("not a spec"); err == nil {
		j.Stop()
		t.Fatalf("expected an error for an invalid cron spec")
	}
}

func TestPrivateRoomRequiresPassword(t *testing.T) {
	reg := newTestRegistry(t)
	r, err := reg.Create(GameTypeTruco, "s3cret")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !r.Private {
		t.Fatalf("expected a private room")
	}
	if _, _, err := reg.Join(r.Code, "eve", "guess"); !errors.Is(err, appErr.ErrWrongRoomPassword) {
		t.Fatalf("expected ErrWrongRoomPassword, got %v", err)
	}
	if _, _, err := reg.Join(r.Code, "alice", "s3cret"); err != nil {
		t.Fatalf("join with password failed: %v", err)
	}
	if _, _, err := reg.AddBot(r.Code); err != nil {
		t.Fatalf("bots skip the password: %v", err)
	}
}

func TestSweepKeepMayCallRegistry(t *testing.T) {
	reg := newTestRegistry(t)
	lobby, _ := reg.Create(GameTypeTruco, "")
	other, _ := reg.Create(GameTypeTruco, "")

	done := make(chan []string, 1)
	go func() {
		done <- reg.Sweep(func(r Room) bool {
			if _, err := reg.Get(r.Code); err != nil {
				t.Errorf("get inside keep failed: %v", err)
			}
			if r.Code == lobby.Code {
				if _, _, err := reg.Join(other.Code, "x", ""); err != nil {
					t.Errorf("join inside keep failed: %v", err)
				}
			}
			return true
		})
	}()

	select {
	case removed := <-done:
		if len(removed) != 0 {
			t.Fatalf("nothing should be removed: %v", removed)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweep blocked while keep called the registry")
	}
}

func TestSweepSparesRoomChangedDuringKeep(t *testing.T) {
	reg := newTestRegistry(t)
	r, _ := reg.Create(GameTypeTruco, "")
	gone, _ := reg.Create(GameTypeTruco, "")

	removed := reg.Sweep(func(rm Room) bool {
		if rm.Code == r.Code {
			reg.Join(r.Code, "late", "")
		}
		return false
	})

	if len(removed) != 1 || removed[0] != gone.Code {
		t.Fatalf("unexpected sweep result: %v", removed)
	}
	got, err := reg.Get(r.Code)
	if err != nil || got.HumanCount() != 1 {
		t.Fatalf("room joined during the sweep was removed: %v %+v", err, got)
	}
}

func TestStartGameChecksSeatsUnderLock(t *testing.T) {
	reg := newTestRegistry(t)
	r, _ := reg.Create(GameTypeTruco, "")
	_, alice, _ := reg.Join(r.Code, "alice", "")
	allReady := func(Player) bool { return true }

	if _, err := reg.StartGame(r.Code, allReady); !errors.Is(err, appErr.ErrRoomNotReady) {
		t.Fatalf("expected ErrRoomNotReady with open seats, got %v", err)
	}
	for i := 0; i < 3; i++ {
		reg.AddBot(r.Code)
	}
	if _, err := reg.StartGame(r.Code, func(Player) bool { return false }); !errors.Is(err, appErr.ErrRoomNotReady) {
		t.Fatalf("expected ErrRoomNotReady with an unready human, got %v", err)
	}

	started, err := reg.StartGame(r.Code, allReady)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !started.InGame || !started.Full() || started.Players[0].ID != alice.ID {
		t.Fatalf("unexpected roster: %+v", started)
	}
	if _, err := reg.StartGame(r.Code, allReady); !errors.Is(err, appErr.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress, got %v", err)
	}
	if _, err := reg.Leave(r.Code, alice.ID); !errors.Is(err, appErr.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress on leave, got %v", err)
	}

	if err := reg.SetInGame(r.Code, false); err != nil {
		t.Fatalf("end game failed: %v", err)
	}
	if _, err := reg.Leave(r.Code, alice.ID); err != nil {
		t.Fatalf("leave after the game ended failed: %v", err)
	}
	if removed := reg.Sweep(DefaultKeep); len(removed) != 1 || removed[0] != r.Code {
		t.Fatalf("room without humans or game should be swept: %v", removed)
	}
}
