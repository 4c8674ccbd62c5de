package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"truco-service/internal/bot"
	"truco-service/internal/service/room"
	"truco-service/internal/truco"
	appErr "truco-service/pkg/errors"
	"truco-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	MsgState       = "state"
	MsgError       = "error"
	MsgPong        = "pong"
	MsgPlayerReady = "playerReady"
	MsgPlayerLeft  = "playerLeft"
)

const sinkTimeout = 5 * time.Second

type OutgoingMessage struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
	Data any    `json:"data"`
}

type ErrorPayload struct {
	Action  ActionType `json:"action,omitempty"`
	Message string     `json:"message"`
}

type ReadyPayload struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
}

// LeftPayload announces a freed seat. GameEnded is set when the departure
// stopped a running game and sent the table back to the lobby.
type LeftPayload struct {
	PlayerID  string `json:"playerId"`
	Seat      int    `json:"seat"`
	GameEnded bool   `json:"gameEnded"`
}

type SeatView struct {
	Seat      int        `json:"seat"`
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Team      truco.Team `json:"team"`
	IsBot     bool       `json:"isBot"`
	Ready     bool       `json:"ready"`
	Connected bool       `json:"connected"`
}

// StateView is the snapshot one connection receives on subscribe and rejoin.
type StateView struct {
	RoomCode     string           `json:"roomCode"`
	Started      bool             `json:"started"`
	YourSeat     int              `json:"yourSeat"`
	Seats        []SeatView       `json:"seats"`
	Game         *truco.GameState `json:"game,omitempty"`
	Hands        truco.HandViews  `json:"hands,omitempty"`
	CanCallTruco bool             `json:"canCallTruco"`
}

// RoomRuntime serialises every action and deferred callback of one room
// behind mu. Deferred callbacks carry the generation and hand they were
// scheduled for and become no-ops once either has moved on, or once the
// session they belong to has ended.
//
// Lock order is mu, then the registry's lock. The registry never calls back
// into a runtime while holding its own lock.
type RoomRuntime struct {
	code    string
	cfg     Config
	rooms   room.Registry
	sched   Scheduler
	now     func() time.Time
	brain   bot.Brain
	sink    ResultSink
	rng     *rand.Rand
	limiter *rate.Limiter

	roster     room.Room
	ready      map[string]bool
	game       *truco.Game
	pendingBot botTask
	session    uint64

	subscribers map[string]chan OutgoingMessage
	seq         int64
	timers      map[uint64]Timer
	timerSeq    uint64
	lastActive  time.Time
	closed      bool

	mu sync.Mutex
}

func newRoomRuntime(s *Service, r room.Room) *RoomRuntime {
	return &RoomRuntime{
		code:        r.Code,
		cfg:         s.cfg,
		rooms:       s.rooms,
		sched:       s.sched,
		now:         s.now,
		brain:       s.brain,
		sink:        s.sink,
		rng:         rand.New(rand.NewSource(s.seed())),
		limiter:     rate.NewLimiter(rate.Every(s.cfg.TurnCompleteMinInterval), 1),
		roster:      r,
		ready:       make(map[string]bool),
		subscribers: make(map[string]chan OutgoingMessage),
		timers:      make(map[uint64]Timer),
		lastActive:  s.now(),
	}
}

func (rt *RoomRuntime) Code() string { return rt.code }

// Subscribe registers playerID's connection and sends it a state snapshot.
// A second subscription for the same player replaces the first.
func (rt *RoomRuntime) Subscribe(playerID string) (<-chan OutgoingMessage, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return nil, appErr.ErrRoomNotFound
	}
	if _, ok := rt.seatOfLocked(playerID); !ok {
		return nil, appErr.ErrInvalidPlayer
	}
	if old, ok := rt.subscribers[playerID]; ok {
		close(old)
	}
	ch := make(chan OutgoingMessage, rt.cfg.SubscriberBuffer)
	rt.subscribers[playerID] = ch
	rt.lastActive = rt.now()
	rt.pushStateLocked(playerID)
	return ch, nil
}

// Unsubscribe drops ch if it is still playerID's current subscription.
func (rt *RoomRuntime) Unsubscribe(playerID string, ch <-chan OutgoingMessage) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	cur, ok := rt.subscribers[playerID]
	if !ok || (ch != nil && (<-chan OutgoingMessage)(cur) != ch) {
		return
	}
	delete(rt.subscribers, playerID)
	close(cur)
	rt.lastActive = rt.now()
}

// HandleAction applies one inbound action from playerID. Errors are meant
// for the submitting connection only and never change room state.
func (rt *RoomRuntime) HandleAction(playerID string, action Action) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return appErr.ErrRoomNotFound
	}
	ownSeat, ok := rt.seatOfLocked(playerID)
	if !ok {
		return appErr.ErrInvalidPlayer
	}
	rt.lastActive = rt.now()

	switch a := action.(type) {
	case Ready:
		return rt.handleReadyLocked(playerID, ownSeat)
	case Rejoin:
		rt.pushStateLocked(playerID)
		return nil
	case Ping:
		rt.pushLocked(playerID, OutgoingMessage{Type: MsgPong, Seq: rt.nextSeqLocked()})
		return nil
	case PlayCard:
		return rt.seatActionLocked(playerID, ownSeat, a.SeatRef, a.Type(), func(seat int) ([]truco.Event, error) {
			return rt.game.PlayCard(seat, a.CardIndex)
		})
	case RequestTruco:
		return rt.seatActionLocked(playerID, ownSeat, a.SeatRef, a.Type(), func(seat int) ([]truco.Event, error) {
			return rt.game.RequestTruco(seat)
		})
	case RespondTruco:
		return rt.seatActionLocked(playerID, ownSeat, a.SeatRef, a.Type(), func(seat int) ([]truco.Event, error) {
			return rt.game.RespondTruco(seat, a.Response)
		})
	case BotTurnComplete:
		ref := SeatRef{PlayerIndex: a.PlayerIndex, Bot: true}
		if dropped, err := rt.gateLocked(a.Type()); dropped || err != nil {
			return err
		}
		if _, err := rt.authorizeLocked(playerID, ownSeat, ref); err != nil {
			return err
		}
		rt.completeBotTurnLocked(a.PlayerIndex, a.RoundNumber, true)
		return nil
	default:
		return appErr.ErrUnknownAction
	}
}

// seatActionLocked runs a game mutation for the seat named by ref.
func (rt *RoomRuntime) seatActionLocked(playerID string, ownSeat int, ref SeatRef, typ ActionType, apply func(seat int) ([]truco.Event, error)) error {
	if dropped, err := rt.gateLocked(typ); dropped || err != nil {
		return err
	}
	seat, err := rt.authorizeLocked(playerID, ownSeat, ref)
	if err != nil {
		return err
	}
	events, err := apply(seat)
	if err != nil {
		if errors.Is(err, appErr.ErrGameCompleted) {
			return nil
		}
		if errors.Is(err, appErr.ErrDuplicatePlay) {
			logger.Log.Error("duplicate play rejected", zap.String("room", rt.code), zap.Int("seat", seat))
		} else {
			logger.Log.Debug("action rejected",
				zap.String("room", rt.code),
				zap.String("action", string(typ)),
				zap.Int("seat", seat),
				zap.Error(err),
			)
		}
		return err
	}
	rt.afterLocked(events)
	return nil
}

// gateLocked reports whether a game action is dropped silently because the
// hand already ended.
func (rt *RoomRuntime) gateLocked(typ ActionType) (bool, error) {
	if rt.game == nil || rt.game.State() == nil {
		return false, appErr.ErrNoActiveGame
	}
	if rt.game.State().GameCompleted {
		logger.Log.Debug("action dropped after hand end", zap.String("room", rt.code), zap.String("action", string(typ)))
		return true, nil
	}
	return false, nil
}

// authorizeLocked resolves the acting seat. Humans act for their own seat;
// any connected human may relay for a bot seat.
func (rt *RoomRuntime) authorizeLocked(playerID string, ownSeat int, ref SeatRef) (int, error) {
	if ref.PlayerIndex < 0 || ref.PlayerIndex >= truco.Seats {
		return 0, appErr.ErrInvalidPlayer
	}
	if !ref.Bot {
		if ref.PlayerIndex != ownSeat {
			return 0, appErr.ErrInvalidPlayer
		}
		return ownSeat, nil
	}
	members := rt.game.Members()
	if !members[ref.PlayerIndex].IsBot {
		return 0, appErr.ErrInvalidPlayer
	}
	if members[ownSeat].IsBot {
		return 0, appErr.ErrUnauthorized
	}
	if _, connected := rt.subscribers[playerID]; !connected {
		return 0, appErr.ErrUnauthorized
	}
	return ref.PlayerIndex, nil
}

func (rt *RoomRuntime) handleReadyLocked(playerID string, seat int) error {
	if rt.game != nil {
		rt.pushStateLocked(playerID)
		return nil
	}
	if !rt.ready[playerID] {
		rt.ready[playerID] = true
		rt.broadcastLocked(MsgPlayerReady, ReadyPayload{PlayerID: playerID, Seat: seat})
	}
	return rt.maybeStartLocked()
}

// maybeStartLocked deals the first hand once four players are seated and
// every human has readied up.
func (rt *RoomRuntime) maybeStartLocked() error {
	r, err := rt.rooms.StartGame(rt.code, func(p room.Player) bool { return rt.ready[p.ID] })
	if errors.Is(err, appErr.ErrRoomNotReady) {
		rt.roster = r
		return nil
	}
	if err != nil {
		return err
	}
	g, err := truco.NewGame(r.Members(), rt.rng)
	if err != nil {
		if endErr := rt.rooms.SetInGame(rt.code, false); endErr != nil {
			logger.Log.Warn("failed to release room", zap.String("room", rt.code), zap.Error(endErr))
		}
		return err
	}
	rt.roster = r
	rt.game = g
	logger.Log.Info("game started", zap.String("room", rt.code))
	rt.afterLocked(g.DealHand())
	return nil
}

// afterLocked publishes events and schedules whatever they set in motion.
func (rt *RoomRuntime) afterLocked(events []truco.Event) {
	if len(events) == 0 {
		return
	}
	rt.emitLocked(events)
	for _, ev := range events {
		switch ev.Kind {
		case truco.EventRoundComplete:
			rt.scheduleRoundFinishLocked()
		case truco.EventGameComplete:
			p := ev.Payload.(truco.GameCompletePayload)
			rt.reportLocked(p.HandOutcome)
			rt.scheduleNextHandLocked(p.HandNumber)
		}
	}
	rt.driveBotsLocked()
}

func (rt *RoomRuntime) scheduleRoundFinishLocked() {
	gen := rt.game.State().CurrentRound
	rt.deferLocked(rt.cfg.RoundDisplayDelay, func() {
		events := rt.game.FinishRound(gen)
		if len(events) == 0 {
			logger.Log.Debug("stale round finish", zap.String("room", rt.code), zap.Int("round", gen))
			return
		}
		rt.afterLocked(events)
	})
}

func (rt *RoomRuntime) scheduleNextHandLocked(hand int) {
	rt.deferLocked(rt.cfg.NewHandDelay, func() {
		events := rt.game.StartNextHand(hand)
		if len(events) == 0 {
			logger.Log.Debug("stale next hand", zap.String("room", rt.code), zap.Int("hand", hand))
			return
		}
		rt.afterLocked(events)
	})
}

func (rt *RoomRuntime) reportLocked(outcome truco.HandOutcome) {
	logger.Log.Info("hand finished",
		zap.String("room", rt.code),
		zap.Int("hand", outcome.HandNumber),
		zap.String("winner", string(outcome.Winner)),
		zap.Int("awarded", outcome.Awarded),
		zap.String("reason", outcome.Reason),
	)
	if rt.sink == nil {
		return
	}
	report := HandReport{
		RoomCode:   rt.code,
		Outcome:    outcome,
		Members:    rt.game.Members(),
		FinishedAt: rt.now(),
	}
	sink := rt.sink
	rt.sched.AfterFunc(0, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := sink.HandFinished(ctx, report); err != nil {
			logger.Log.Error("hand report failed", zap.String("room", report.RoomCode), zap.Error(err))
		}
	})
}

// deferLocked schedules f to run under the room lock after d, within the
// current session only.
func (rt *RoomRuntime) deferLocked(d time.Duration, f func()) {
	rt.timerSeq++
	id := rt.timerSeq
	session := rt.session
	rt.timers[id] = rt.sched.AfterFunc(d, func() {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		delete(rt.timers, id)
		if rt.closed || rt.session != session {
			return
		}
		f()
	})
}

// Leave frees playerID's seat. Leaving a running game ends it for the whole
// table: pending callbacks are cancelled, the room returns to the lobby and
// the remaining humans have to ready again.
func (rt *RoomRuntime) Leave(playerID string) (room.Room, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return room.Room{}, appErr.ErrRoomNotFound
	}
	seat, ok := rt.seatOfLocked(playerID)
	if !ok {
		return room.Room{}, appErr.ErrInvalidPlayer
	}
	ended := rt.game != nil
	if ended {
		rt.endGameLocked("player left")
	}
	r, err := rt.rooms.Leave(rt.code, playerID)
	if err != nil {
		return room.Room{}, err
	}
	rt.roster = r
	delete(rt.ready, playerID)
	if ch, ok := rt.subscribers[playerID]; ok {
		delete(rt.subscribers, playerID)
		close(ch)
	}
	rt.lastActive = rt.now()

	rt.broadcastLocked(MsgPlayerLeft, LeftPayload{PlayerID: playerID, Seat: seat, GameEnded: ended})
	for uid := range rt.subscribers {
		rt.pushStateLocked(uid)
	}
	logger.Log.Info("player left", zap.String("room", rt.code), zap.Int("seat", seat), zap.Bool("gameEnded", ended))
	return r, nil
}

// endGameLocked drops the running game and opens a new session.
func (rt *RoomRuntime) endGameLocked(reason string) {
	rt.session++
	for id, t := range rt.timers {
		t.Stop()
		delete(rt.timers, id)
	}
	rt.game = nil
	rt.pendingBot = botTask{}
	rt.ready = make(map[string]bool)
	if err := rt.rooms.SetInGame(rt.code, false); err != nil {
		logger.Log.Warn("failed to release room", zap.String("room", rt.code), zap.Error(err))
	}
	logger.Log.Info("game ended", zap.String("room", rt.code), zap.String("reason", reason))
}

func (rt *RoomRuntime) emitLocked(events []truco.Event) {
	for _, ev := range events {
		seq := rt.nextSeqLocked()
		for uid := range rt.subscribers {
			data := ev.Payload
			if r, ok := data.(truco.Redactable); ok {
				seat, _ := rt.seatOfLocked(uid)
				data = r.Redact(seat)
			}
			rt.pushLocked(uid, OutgoingMessage{Type: string(ev.Kind), Seq: seq, Data: data})
		}
	}
}

func (rt *RoomRuntime) broadcastLocked(typ string, data any) {
	seq := rt.nextSeqLocked()
	for uid := range rt.subscribers {
		rt.pushLocked(uid, OutgoingMessage{Type: typ, Seq: seq, Data: data})
	}
}

func (rt *RoomRuntime) pushStateLocked(playerID string) {
	rt.pushLocked(playerID, OutgoingMessage{
		Type: MsgState,
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportStateLocked(playerID),
	})
}

func (rt *RoomRuntime) pushLocked(playerID string, msg OutgoingMessage) {
	ch, ok := rt.subscribers[playerID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		logger.Log.Warn("ws subscriber channel full", zap.String("player", playerID), zap.String("room", rt.code))
	}
}

func (rt *RoomRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

// seatOfLocked resolves playerID's seat. Before the game starts the roster
// is re-read so late joiners are seen.
func (rt *RoomRuntime) seatOfLocked(playerID string) (int, bool) {
	if rt.game != nil {
		for i, m := range rt.game.Members() {
			if m.ID == playerID {
				return i, true
			}
		}
		return -1, false
	}
	if r, err := rt.rooms.Get(rt.code); err == nil {
		rt.roster = r
	}
	return rt.roster.SeatOf(playerID)
}

func (rt *RoomRuntime) exportStateLocked(playerID string) StateView {
	seat, _ := rt.seatOfLocked(playerID)
	view := StateView{
		RoomCode: rt.code,
		Started:  rt.game != nil,
		YourSeat: seat,
		Seats:    make([]SeatView, truco.Seats),
	}
	for i := range view.Seats {
		view.Seats[i] = SeatView{Seat: i, Team: truco.TeamForSeat(i)}
	}
	if rt.game != nil {
		for i, m := range rt.game.Members() {
			_, connected := rt.subscribers[m.ID]
			view.Seats[i].ID, view.Seats[i].Name, view.Seats[i].IsBot = m.ID, m.Name, m.IsBot
			view.Seats[i].Ready = true
			view.Seats[i].Connected = connected || m.IsBot
		}
		if s := rt.game.Snapshot(); s != nil {
			view.Game = s
			view.Hands = s.HandViews().Redact(seat)
			view.CanCallTruco = seat >= 0 && rt.game.CanCallTruco(seat)
		}
		return view
	}
	for i, p := range rt.roster.Players {
		if p == nil {
			continue
		}
		_, connected := rt.subscribers[p.ID]
		view.Seats[i].ID, view.Seats[i].Name, view.Seats[i].IsBot = p.ID, p.Name, p.IsBot
		view.Seats[i].Ready = p.IsBot || rt.ready[p.ID]
		view.Seats[i].Connected = connected || p.IsBot
	}
	return view
}

// State returns playerID's current snapshot.
func (rt *RoomRuntime) State(playerID string) (StateView, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, ok := rt.seatOfLocked(playerID); !ok {
		return StateView{}, appErr.ErrInvalidPlayer
	}
	return rt.exportStateLocked(playerID), nil
}

// Started reports whether the first hand has been dealt.
func (rt *RoomRuntime) Started() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.game != nil
}

// Idle reports whether nobody is connected and nothing happened for ttl.
func (rt *RoomRuntime) Idle(now time.Time, ttl time.Duration) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.subscribers) == 0 && now.Sub(rt.lastActive) > ttl
}

// Close stops pending callbacks and disconnects every subscriber.
func (rt *RoomRuntime) Close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return
	}
	rt.closed = true
	for id, t := range rt.timers {
		t.Stop()
		delete(rt.timers, id)
	}
	for uid, ch := range rt.subscribers {
		delete(rt.subscribers, uid)
		close(ch)
	}
}
