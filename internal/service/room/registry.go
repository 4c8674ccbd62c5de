package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"truco-service/internal/truco"
	appErr "truco-service/pkg/errors"
	"truco-service/pkg/utils/random"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Registry is the store of open rooms. Implementations must be safe for
// concurrent use and hand out copies, never live rooms.
type Registry interface {
	// Create opens a room. A non-empty password makes it private.
	Create(gameType GameType, password string) (Room, error)
	Get(code string) (Room, error)
	Join(code, name, password string) (Room, Player, error)
	AddBot(code string) (Room, Player, error)
	Leave(code, playerID string) (Room, error)
	// StartGame marks the room in game if every seat is taken and ready
	// accepts every human, and returns the roster the game starts with.
	StartGame(code string, ready func(Player) bool) (Room, error)
	SetInGame(code string, inGame bool) error
	Remove(code string) bool
	List() []Room
	// Sweep removes every room keep rejects and returns their codes.
	Sweep(keep func(Room) bool) []string
}

const maxCodeAttempts = 16

type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	codeLength int
	bcryptCost int
	now        func() time.Time
	newCode    func(int) string
}

func NewMemoryRegistry(codeLength int) *MemoryRegistry {
	if codeLength <= 0 {
		codeLength = 6
	}
	return &MemoryRegistry{
		rooms:      make(map[string]*Room),
		codeLength: codeLength,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		newCode:    random.RoomCode,
	}
}

func (m *MemoryRegistry) Create(gameType GameType, password string) (Room, error) {
	if gameType == "" {
		gameType = GameTypeTruco
	}
	if gameType != GameTypeTruco {
		return Room{}, fmt.Errorf("%w: %s", appErr.ErrUnsupportedGameType, gameType)
	}
	var hash []byte
	if password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost); err != nil {
			return Room{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code := m.newCode(m.codeLength)
		if _, taken := m.rooms[code]; taken {
			continue
		}
		r := &Room{
			Code:         code,
			GameType:     gameType,
			Private:      hash != nil,
			CreatedAt:    m.now(),
			passwordHash: hash,
		}
		m.rooms[code] = r
		return r.clone(), nil
	}
	return Room{}, errors.New("could not allocate a free room code")
}

func (m *MemoryRegistry) Get(code string) (Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[code]
	if !ok {
		return Room{}, appErr.ErrRoomNotFound
	}
	return r.clone(), nil
}

func (m *MemoryRegistry) Join(code, name, password string) (Room, Player, error) {
	if err := m.checkPassword(code, password); err != nil {
		return Room{}, Player{}, err
	}
	return m.seat(code, func(seat int) Player {
		return Player{ID: uuid.NewString(), Name: name}
	})
}

// checkPassword runs outside the write lock; bcrypt is slow on purpose.
func (m *MemoryRegistry) checkPassword(code, password string) error {
	m.mu.RLock()
	r, ok := m.rooms[code]
	var hash []byte
	if ok {
		hash = r.passwordHash
	}
	m.mu.RUnlock()

	if !ok {
		return appErr.ErrRoomNotFound
	}
	if hash == nil {
		return nil
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return appErr.ErrWrongRoomPassword
	}
	return nil
}

func (m *MemoryRegistry) AddBot(code string) (Room, Player, error) {
	return m.seat(code, func(seat int) Player {
		return Player{ID: "bot-" + uuid.NewString(), Name: fmt.Sprintf("Bot %d", seat+1), IsBot: true}
	})
}

// seat places a new player on the lowest open seat.
func (m *MemoryRegistry) seat(code string, build func(seat int) Player) (Room, Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return Room{}, Player{}, appErr.ErrRoomNotFound
	}
	if r.InGame {
		return Room{}, Player{}, appErr.ErrGameInProgress
	}
	for i, p := range r.Players {
		if p != nil {
			continue
		}
		np := build(i)
		np.Seat = i
		np.Team = truco.TeamForSeat(i)
		r.Players[i] = &np
		r.rev++
		return r.clone(), np, nil
	}
	return Room{}, Player{}, appErr.ErrRoomFull
}

// Leave frees the player's seat in place; other seats keep their index.
func (m *MemoryRegistry) Leave(code, playerID string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return Room{}, appErr.ErrRoomNotFound
	}
	if r.InGame {
		return Room{}, appErr.ErrGameInProgress
	}
	seat, ok := r.SeatOf(playerID)
	if !ok {
		return Room{}, appErr.ErrInvalidPlayer
	}
	r.Players[seat] = nil
	r.rev++
	return r.clone(), nil
}

func (m *MemoryRegistry) StartGame(code string, ready func(Player) bool) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return Room{}, appErr.ErrRoomNotFound
	}
	if r.InGame {
		return Room{}, appErr.ErrGameInProgress
	}
	for _, p := range r.Players {
		if p == nil || (!p.IsBot && !ready(*p)) {
			return r.clone(), appErr.ErrRoomNotReady
		}
	}
	r.InGame = true
	r.rev++
	return r.clone(), nil
}

func (m *MemoryRegistry) SetInGame(code string, inGame bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return appErr.ErrRoomNotFound
	}
	if r.InGame != inGame {
		r.InGame = inGame
		r.rev++
	}
	return nil
}

func (m *MemoryRegistry) Remove(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rooms[code]
	delete(m.rooms, code)
	return ok
}

// List returns rooms oldest first.
func (m *MemoryRegistry) List() []Room {
	m.mu.RLock()
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sweep asks keep about a snapshot of every room with no lock held, so keep
// may call back into the registry. A room that changed while keep ran is
// left for the next sweep.
func (m *MemoryRegistry) Sweep(keep func(Room) bool) []string {
	m.mu.RLock()
	snapshot := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		snapshot = append(snapshot, r.clone())
	}
	m.mu.RUnlock()

	var doomed []Room
	for _, r := range snapshot {
		if !keep(r) {
			doomed = append(doomed, r)
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for _, r := range doomed {
		cur, ok := m.rooms[r.Code]
		if !ok || cur.rev != r.rev {
			continue
		}
		delete(m.rooms, r.Code)
		removed = append(removed, r.Code)
	}
	sort.Strings(removed)
	return removed
}
