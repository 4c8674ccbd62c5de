package truco

// EventKind names an outbound notification.
type EventKind string

const (
	EventGameStart      EventKind = "gameStart"
	EventCardPlayed     EventKind = "cardPlayed"
	EventTurnChanged    EventKind = "turnChanged"
	EventRoundComplete  EventKind = "roundComplete"
	EventTrucoCalled    EventKind = "trucoCalled"
	EventTrucoRaised    EventKind = "trucoRaised"
	EventTrucoAccepted  EventKind = "trucoAccepted"
	EventTrucoRejected  EventKind = "trucoRejected"
	EventGameComplete   EventKind = "gameComplete"
	EventNewGameStarted EventKind = "newGameStarted"
)

type Event struct {
	Kind    EventKind
	Payload any
}

// HandView is one seat's hand. Cards is only filled for seats the recipient
// may see; Count is always set.
type HandView struct {
	Seat  int    `json:"seat"`
	Count int    `json:"count"`
	Cards []Card `json:"cards,omitempty"`
}

type HandViews []HandView

// Redact keeps card faces for viewer's seat only. A negative viewer sees no faces.
func (h HandViews) Redact(viewer int) HandViews {
	out := make(HandViews, len(h))
	for i, v := range h {
		out[i] = HandView{Seat: v.Seat, Count: v.Count}
		if v.Seat == viewer {
			out[i].Cards = v.Cards
		}
	}
	return out
}

// Redactable payloads carry hands and must be personalised per recipient.
type Redactable interface {
	Redact(viewer int) any
}

type GameStartPayload struct {
	Players       [Seats]Player `json:"players"`
	Hands         HandViews     `json:"hands"`
	CurrentPlayer int           `json:"currentPlayer"`
	CurrentRound  int           `json:"currentRound"`
	HandNumber    int           `json:"handNumber"`
}

func (p GameStartPayload) Redact(viewer int) any {
	p.Hands = p.Hands.Redact(viewer)
	return p
}

type CardPlayedPayload struct {
	PlayerIndex int          `json:"playerIndex"`
	PlayerName  string       `json:"playerName"`
	Card        Card         `json:"card"`
	PlayedCards []PlayedCard `json:"playedCards"`
	IsBot       bool         `json:"isBot"`
	RoundNumber int          `json:"roundNumber"`
}

type TurnChangedPayload struct {
	CurrentPlayer int       `json:"currentPlayer"`
	AllHands      HandViews `json:"allHands"`
	RoundNumber   int       `json:"roundNumber"`
}

func (p TurnChangedPayload) Redact(viewer int) any {
	p.AllHands = p.AllHands.Redact(viewer)
	return p
}

type RoundCompletePayload struct {
	CurrentPlayer int          `json:"currentPlayer"`
	RoundWinner   *RoundWinner `json:"roundWinner"`
	Scores        TeamScore    `json:"scores"`
	IsDraw        bool         `json:"isDraw"`
	RoundNumber   int          `json:"roundNumber"`
}

type TrucoPayload struct {
	PlayerIndex int        `json:"playerIndex"`
	PlayerName  string     `json:"playerName"`
	Team        Team       `json:"team"`
	Truco       TrucoState `json:"trucoState"`
}

// HandOutcome describes how a hand ended. Reason is one of the Reason constants.
type HandOutcome struct {
	HandNumber   int           `json:"handNumber"`
	Winner       Team          `json:"gameWinner"`
	Awarded      int           `json:"awarded"`
	Reason       string        `json:"reason"`
	RoundResults []RoundResult `json:"roundResults"`
	Scores       TeamScore     `json:"scores"`
	Games        TeamScore     `json:"games"`
	Sets         TeamScore     `json:"sets"`
	SetWinner    Team          `json:"setWinner,omitempty"`
}

const (
	ReasonRounds    = "rounds"
	ReasonRejection = "rejection"
	ReasonVoid      = "void"
)

type GameCompletePayload struct {
	RoundWinner *RoundWinner `json:"roundWinner"`
	HandOutcome
}

type NewGameStartedPayload struct {
	CurrentPlayer int       `json:"currentPlayer"`
	AllHands      HandViews `json:"allHands"`
	Scores        TeamScore `json:"scores"`
	Games         TeamScore `json:"games"`
	Sets          TeamScore `json:"sets"`
	CurrentRound  int       `json:"currentRound"`
	HandNumber    int       `json:"handNumber"`
}

func (p NewGameStartedPayload) Redact(viewer int) any {
	p.AllHands = p.AllHands.Redact(viewer)
	return p
}

// HandViews lists every seat's hand with faces; redact before sending.
func (s *GameState) HandViews() HandViews {
	views := make(HandViews, Seats)
	for i := range s.Players {
		hand := s.Players[i].Hand
		views[i] = HandView{Seat: i, Count: len(hand), Cards: append([]Card(nil), hand...)}
	}
	return views
}
