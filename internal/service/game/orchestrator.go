package game

import (
	"truco-service/internal/bot"
	"truco-service/internal/truco"
	"truco-service/pkg/logger"

	"go.uber.org/zap"
)

type botTaskKind int

const (
	botNone botTaskKind = iota
	botPlay
	botRespond
	botAck
)

// botTask identifies one pending bot decision. Two tasks are equal when they
// would act on the same table state.
type botTask struct {
	kind       botTaskKind
	seat       int
	generation int
	hand       int
	stake      int
}

// driveBotsLocked schedules the next bot decision, if the table is waiting on one.
func (rt *RoomRuntime) driveBotsLocked() {
	if rt.game == nil || rt.brain == nil {
		return
	}
	s := rt.game.State()
	if s == nil || s.GameCompleted || s.RoundJustCompleted {
		return
	}
	members := rt.game.Members()
	task := botTask{generation: s.CurrentRound, hand: s.HandNumber}

	switch {
	case s.Truco.WaitingForResponse:
		task.kind, task.seat = botRespond, s.Truco.ResponsePlayerIndex
		task.stake = s.Truco.PotentialValue
	case s.AwaitingTurnComplete:
		task.kind, task.seat = botAck, s.CurrentPlayer
	default:
		task.kind, task.seat = botPlay, s.CurrentPlayer
		if s.Players[task.seat].HasPlayedThisTurn || s.BotPlayed(task.seat) {
			return
		}
	}
	if !members[task.seat].IsBot || task == rt.pendingBot {
		return
	}

	rt.pendingBot = task
	delay := rt.cfg.BotThinkDelay
	if task.kind == botAck {
		delay = rt.cfg.BotAckDelay
	}
	rt.deferLocked(delay, func() { rt.runBotTaskLocked(task) })
}

func (rt *RoomRuntime) runBotTaskLocked(task botTask) {
	if rt.pendingBot == task {
		rt.pendingBot = botTask{}
	}
	s := rt.game.State()
	if s.HandNumber != task.hand || s.CurrentRound != task.generation || s.GameCompleted {
		logger.Log.Debug("stale bot task", zap.String("room", rt.code), zap.Int("seat", task.seat))
		return
	}

	switch task.kind {
	case botPlay:
		rt.botPlayLocked(task.seat)
	case botRespond:
		if !s.Truco.WaitingForResponse || s.Truco.ResponsePlayerIndex != task.seat || s.Truco.PotentialValue != task.stake {
			return
		}
		rt.botRespondLocked(task.seat)
	case botAck:
		rt.completeBotTurnLocked(task.seat, task.generation, false)
	}
}

func (rt *RoomRuntime) botPlayLocked(seat int) {
	s := rt.game.State()
	if s.CurrentPlayer != seat || s.Truco.WaitingForResponse || s.BotPlayed(seat) {
		return
	}
	move := rt.brain.DecideTurn(bot.NewView(s, seat, rt.game.CanCallTruco(seat)))
	if move.CallTruco {
		events, err := rt.game.RequestTruco(seat)
		if err == nil {
			logger.Log.Debug("bot called truco", zap.String("room", rt.code), zap.Int("seat", seat))
			rt.afterLocked(events)
			return
		}
		logger.Log.Debug("bot truco call refused", zap.String("room", rt.code), zap.Int("seat", seat), zap.Error(err))
		move = rt.brain.DecideTurn(bot.NewView(s, seat, false))
	}
	if move.CardIndex < 0 || move.CardIndex >= len(s.Hand(seat)) {
		move.CardIndex = 0
	}
	events, err := rt.game.PlayCard(seat, move.CardIndex)
	if err != nil {
		logger.Log.Warn("bot play rejected", zap.String("room", rt.code), zap.Int("seat", seat), zap.Error(err))
		return
	}
	rt.afterLocked(events)
}

func (rt *RoomRuntime) botRespondLocked(seat int) {
	s := rt.game.State()
	resp := rt.brain.DecideResponse(bot.NewView(s, seat, false))
	events, err := rt.game.RespondTruco(seat, resp)
	if err != nil && resp == truco.Raise {
		logger.Log.Debug("bot raise refused", zap.String("room", rt.code), zap.Int("seat", seat), zap.Error(err))
		events, err = rt.game.RespondTruco(seat, truco.Accept)
	}
	if err != nil {
		logger.Log.Warn("bot response rejected", zap.String("room", rt.code), zap.Int("seat", seat), zap.Error(err))
		return
	}
	rt.afterLocked(events)
}

// completeBotTurnLocked releases the turn held by a bot after its play.
// Client signals pass the rate limiter; the server fallback does not.
func (rt *RoomRuntime) completeBotTurnLocked(seat, roundNumber int, fromClient bool) {
	if fromClient && !rt.limiter.AllowN(rt.now(), 1) {
		logger.Log.Debug("turn completion rate limited", zap.String("room", rt.code), zap.Int("seat", seat))
		return
	}
	events := rt.game.CompleteTurn(seat, roundNumber)
	if len(events) == 0 {
		logger.Log.Debug("turn completion discarded",
			zap.String("room", rt.code),
			zap.Int("seat", seat),
			zap.Int("round", roundNumber),
		)
		return
	}
	rt.afterLocked(events)
}
