package room

import (
	"time"

	"truco-service/internal/truco"
)

type GameType string

const GameTypeTruco GameType = "truco"

type Player struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Seat  int        `json:"seat"`
	Team  truco.Team `json:"team"`
	IsBot bool       `json:"isBot"`
}

// Room is a snapshot of a lobby. Players is indexed by seat; a nil entry is
// an open seat. Seats never shift when someone leaves.
type Room struct {
	Code      string               `json:"code"`
	GameType  GameType             `json:"gameType"`
	Players   [truco.Seats]*Player `json:"players"`
	Private   bool                 `json:"private"`
	InGame    bool                 `json:"inGame"`
	CreatedAt time.Time            `json:"createdAt"`

	passwordHash []byte
	// rev grows on every seat or game-state change.
	rev uint64
}

func (r Room) Seated() int {
	n := 0
	for _, p := range r.Players {
		if p != nil {
			n++
		}
	}
	return n
}

func (r Room) Full() bool { return r.Seated() == truco.Seats }

func (r Room) HumanCount() int {
	n := 0
	for _, p := range r.Players {
		if p != nil && !p.IsBot {
			n++
		}
	}
	return n
}

// SeatOf returns the seat held by playerID.
func (r Room) SeatOf(playerID string) (int, bool) {
	for i, p := range r.Players {
		if p != nil && p.ID == playerID {
			return i, true
		}
	}
	return -1, false
}

// Members lists the seated players in seat order, empty seats included as
// zero members.
func (r Room) Members() []truco.Member {
	out := make([]truco.Member, truco.Seats)
	for i, p := range r.Players {
		if p != nil {
			out[i] = truco.Member{ID: p.ID, Name: p.Name, IsBot: p.IsBot}
		}
	}
	return out
}

func (r Room) clone() Room {
	c := r
	c.passwordHash = nil
	for i, p := range r.Players {
		if p != nil {
			cp := *p
			c.Players[i] = &cp
		}
	}
	return c
}
