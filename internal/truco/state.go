package truco

const (
	Seats       = 4
	HandSize    = 3
	MaxRounds   = 3
	GamesPerSet = 12

	TrucoStep     = 3
	MaxTrucoValue = 12
)

type Team string

const (
	NoTeam Team = ""
	Team1  Team = "team1"
	Team2  Team = "team2"
)

// TeamForSeat assigns even seats to team1 and odd seats to team2.
func TeamForSeat(seat int) Team {
	if seat%2 == 0 {
		return Team1
	}
	return Team2
}

func (t Team) Opponent() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	default:
		return NoTeam
	}
}

// TeamScore is a per-team counter used for round wins, games and sets.
type TeamScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (s TeamScore) Get(t Team) int {
	switch t {
	case Team1:
		return s.Team1
	case Team2:
		return s.Team2
	default:
		return 0
	}
}

func (s *TeamScore) Add(t Team, n int) {
	switch t {
	case Team1:
		s.Team1 += n
	case Team2:
		s.Team2 += n
	}
}

// Member is a seated participant as provided by the room registry.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot"`
}

// Player is a seat inside an active hand.
type Player struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Team              Team   `json:"team"`
	IsBot             bool   `json:"isBot"`
	Hand              []Card `json:"-"`
	HasPlayedThisTurn bool   `json:"hasPlayedThisTurn"`
}

type PlayedCard struct {
	Player      string `json:"player"`
	Card        Card   `json:"card"`
	PlayerIndex int    `json:"playerIndex"`
}

// RoundResult keeps the per-round history used by the hand-winner table.
// WinnerTeam is NoTeam on a draw.
type RoundResult struct {
	Round      int  `json:"round"`
	WinnerTeam Team `json:"winnerTeam"`
	IsDraw     bool `json:"isDraw"`
}

// TrucoState tracks the stake challenge of the current hand.
//
// CurrentValue is the stake in effect, PotentialValue the stake pending
// confirmation and RejectionValue what CallerTeam receives if the pending
// call is rejected. CallerTeam and CallerIndex follow the latest bettor;
// OriginalCallerIndex is the seat that opened the challenge.
type TrucoState struct {
	IsActive            bool `json:"isActive"`
	CurrentValue        int  `json:"currentValue"`
	PotentialValue      int  `json:"potentialValue"`
	RejectionValue      int  `json:"rejectionValue"`
	CallerTeam          Team `json:"callerTeam"`
	CallerIndex         int  `json:"callerIndex"`
	OriginalCallerIndex int  `json:"originalCallerIndex"`
	WaitingForResponse  bool `json:"waitingForResponse"`
	ResponsePlayerIndex int  `json:"responsePlayerIndex"`
}

func newTrucoState() TrucoState {
	return TrucoState{
		CurrentValue:        1,
		RejectionValue:      1,
		CallerIndex:         -1,
		OriginalCallerIndex: -1,
		ResponsePlayerIndex: -1,
	}
}

// GameState is one hand of play. Games and Sets are carried over from the
// previous hand; everything else starts fresh.
type GameState struct {
	Players       [Seats]Player `json:"players"`
	PlayedCards   []PlayedCard  `json:"playedCards"`
	CurrentPlayer int           `json:"currentPlayer"`
	Scores        TeamScore     `json:"scores"`
	Games         TeamScore     `json:"games"`
	Sets          TeamScore     `json:"sets"`
	RoundResults  []RoundResult `json:"roundResults"`
	Truco         TrucoState    `json:"trucoState"`

	// CurrentRound is a generation counter: it moves forward on every new
	// round and every new hand and never repeats for the room's lifetime.
	CurrentRound  int  `json:"currentRound"`
	HandNumber    int  `json:"handNumber"`
	GameCompleted bool `json:"gameCompleted"`

	// RoundJustCompleted is set from the fourth card until the round is cleared.
	RoundJustCompleted bool `json:"roundJustCompleted"`
	// RoundWinnerStarting holds until the round winner opens the next round.
	RoundWinnerStarting bool `json:"roundWinnerStarting"`
	// AwaitingTurnComplete holds the turn on a bot seat that has played until
	// a turn-completion notice for this generation arrives.
	AwaitingTurnComplete bool `json:"awaitingTurnComplete"`

	nextStarter int
	botsPlayed  map[int]struct{}
}

func (s *GameState) Hand(seat int) []Card {
	return s.Players[seat].Hand
}

// BotPlayed reports whether a bot seat already played in this round.
func (s *GameState) BotPlayed(seat int) bool {
	_, ok := s.botsPlayed[seat]
	return ok
}

func (s *GameState) hasPlayedCard(seat int) bool {
	for _, pc := range s.PlayedCards {
		if pc.PlayerIndex == seat {
			return true
		}
	}
	return false
}

func (s *GameState) clone() *GameState {
	c := *s
	for i := range c.Players {
		c.Players[i].Hand = append([]Card(nil), s.Players[i].Hand...)
	}
	c.PlayedCards = append([]PlayedCard(nil), s.PlayedCards...)
	c.RoundResults = append([]RoundResult(nil), s.RoundResults...)
	c.botsPlayed = make(map[int]struct{}, len(s.botsPlayed))
	for k := range s.botsPlayed {
		c.botsPlayed[k] = struct{}{}
	}
	return &c
}
