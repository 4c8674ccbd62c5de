package errors

import "errors"

// Room and lobby.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrRoomNotReady        = errors.New("room needs four ready players")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrUnsupportedGameType = errors.New("unsupported game type")
	ErrWrongRoomPassword   = errors.New("wrong room password")
)

// Turn and ownership violations. These are reported to the offending actor only.
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoActiveGame     = errors.New("no active game")
	ErrInvalidPlayer    = errors.New("invalid player")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrAlreadyPlayed    = errors.New("player already played this round")
	ErrRoundResolving   = errors.New("round is being resolved")
	ErrUnknownAction    = errors.New("unknown action")
)

// ErrGameCompleted is never sent to clients; actions for a finished hand are dropped.
var ErrGameCompleted = errors.New("game completed")

// Truco escalation.
var (
	ErrTrucoAlreadyActive     = errors.New("truco already active")
	ErrTeamCannotRaiseOwnCall = errors.New("team cannot raise its own call")
	ErrNoTrucoPending         = errors.New("no truco call pending")
	ErrTrucoPending           = errors.New("truco call awaiting response")
	ErrTrucoMaxValue          = errors.New("truco already at maximum value")
)

// ErrDuplicatePlay signals a protocol bug: a seat appears twice among the played cards.
var ErrDuplicatePlay = errors.New("duplicate player index in played cards")

// Auth.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
