package game

import (
	"sync"
	"time"

	"truco-service/internal/bot"
	"truco-service/internal/service/room"
)

type Config struct {
	RoundDisplayDelay       time.Duration
	NewHandDelay            time.Duration
	BotThinkDelay           time.Duration
	BotAckDelay             time.Duration
	TurnCompleteMinInterval time.Duration
	SubscriberBuffer        int
}

func DefaultConfig() Config {
	return Config{
		RoundDisplayDelay:       1500 * time.Millisecond,
		NewHandDelay:            3 * time.Second,
		BotThinkDelay:           time.Second,
		BotAckDelay:             1500 * time.Millisecond,
		TurnCompleteMinInterval: 250 * time.Millisecond,
		SubscriberBuffer:        32,
	}
}

type Option func(*Service)

func WithScheduler(s Scheduler) Option { return func(svc *Service) { svc.sched = s } }

func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

func WithBrain(b bot.Brain) Option { return func(svc *Service) { svc.brain = b } }

func WithSink(s ResultSink) Option { return func(svc *Service) { svc.sink = s } }

// WithSeed fixes the deck shuffle seed of every new room.
func WithSeed(seed int64) Option {
	return func(svc *Service) { svc.seed = func() int64 { return seed } }
}

// Service owns one RoomRuntime per active room code.
type Service struct {
	rooms room.Registry
	cfg   Config
	sched Scheduler
	now   func() time.Time
	brain bot.Brain
	sink  ResultSink
	seed  func() int64

	runtimes sync.Map
}

func NewService(rooms room.Registry, cfg Config, opts ...Option) *Service {
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultConfig().SubscriberBuffer
	}
	s := &Service{
		rooms: rooms,
		cfg:   cfg,
		sched: realScheduler{},
		now:   time.Now,
		brain: bot.NewStandardBot(),
		seed:  func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRuntime returns the room's runtime, creating it on first use.
func (s *Service) GetRuntime(code string) (*RoomRuntime, error) {
	if v, ok := s.runtimes.Load(code); ok {
		return v.(*RoomRuntime), nil
	}
	r, err := s.rooms.Get(code)
	if err != nil {
		return nil, err
	}
	v, _ := s.runtimes.LoadOrStore(code, newRoomRuntime(s, r))
	return v.(*RoomRuntime), nil
}

func (s *Service) Lookup(code string) (*RoomRuntime, bool) {
	v, ok := s.runtimes.Load(code)
	if !ok {
		return nil, false
	}
	return v.(*RoomRuntime), true
}

// Drop closes and forgets the room's runtime.
func (s *Service) Drop(code string) {
	if v, ok := s.runtimes.LoadAndDelete(code); ok {
		v.(*RoomRuntime).Close()
	}
}

// Abandoned reports whether a room has gone quiet for ttl: its runtime has
// no connections and no activity, or it never got a runtime at all.
func (s *Service) Abandoned(r room.Room, ttl time.Duration) bool {
	now := s.now()
	if rt, ok := s.Lookup(r.Code); ok {
		return rt.Idle(now, ttl)
	}
	return now.Sub(r.CreatedAt) > ttl
}

// Leave frees playerID's seat, ending the room's game if one is running.
func (s *Service) Leave(code, playerID string) (room.Room, error) {
	if rt, ok := s.Lookup(code); ok {
		return rt.Leave(playerID)
	}
	return s.rooms.Leave(code, playerID)
}

// State returns playerID's snapshot of the room.
func (s *Service) State(code, playerID string) (StateView, error) {
	rt, err := s.GetRuntime(code)
	if err != nil {
		return StateView{}, err
	}
	return rt.State(playerID)
}
