package truco

import (
	"fmt"
	"math/rand"

	appErr "truco-service/pkg/errors"
)

// Game is the server-authoritative state machine of one Truco room. It owns
// the current hand and the progression counters that survive between hands.
// Game is not safe for concurrent use; callers serialise access.
type Game struct {
	members [Seats]Member
	rng     *rand.Rand
	state   *GameState

	generation int
}

func NewGame(members []Member, rng *rand.Rand) (*Game, error) {
	if len(members) != Seats {
		return nil, fmt.Errorf("%w: got %d players", appErr.ErrRoomNotReady, len(members))
	}
	g := &Game{rng: rng}
	for i, m := range members {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: seat %d is empty", appErr.ErrRoomNotReady, i)
		}
		g.members[i] = m
	}
	return g, nil
}

// State exposes the live hand. Callers must not mutate it.
func (g *Game) State() *GameState { return g.state }

// Snapshot returns a deep copy of the current hand, or nil before the first deal.
func (g *Game) Snapshot() *GameState {
	if g.state == nil {
		return nil
	}
	return g.state.clone()
}

func (g *Game) Members() [Seats]Member { return g.members }

// DealHand starts a new hand. The first player rotates one seat per hand.
func (g *Game) DealHand() []Event {
	prev := g.state
	s := &GameState{
		Truco:      newTrucoState(),
		botsPlayed: make(map[int]struct{}),
	}
	if prev != nil {
		s.Games = prev.Games
		s.Sets = prev.Sets
		s.HandNumber = prev.HandNumber
	}
	s.HandNumber++
	g.generation++
	s.CurrentRound = g.generation

	deck := NewDeck()
	deck.Shuffle(g.rng)
	hands, err := dealHands(deck)
	if err != nil {
		// A full deck always covers a deal.
		panic(err)
	}
	for i, m := range g.members {
		s.Players[i] = Player{ID: m.ID, Name: m.Name, Team: TeamForSeat(i), IsBot: m.IsBot, Hand: hands[i]}
	}
	s.CurrentPlayer = (s.HandNumber - 1) % Seats
	g.state = s

	if prev == nil {
		return []Event{{Kind: EventGameStart, Payload: GameStartPayload{
			Players:       s.Players,
			Hands:         s.HandViews(),
			CurrentPlayer: s.CurrentPlayer,
			CurrentRound:  s.CurrentRound,
			HandNumber:    s.HandNumber,
		}}}
	}
	return []Event{{Kind: EventNewGameStarted, Payload: NewGameStartedPayload{
		CurrentPlayer: s.CurrentPlayer,
		AllHands:      s.HandViews(),
		Scores:        s.Scores,
		Games:         s.Games,
		Sets:          s.Sets,
		CurrentRound:  s.CurrentRound,
		HandNumber:    s.HandNumber,
	}}}
}

// dealHands deals HandSize cards to every seat, one at a time around the table.
func dealHands(deck *Deck) ([Seats][]Card, error) {
	var hands [Seats][]Card
	if deck.Len() < Seats*HandSize {
		return hands, fmt.Errorf("deck has %d cards, a deal needs %d", deck.Len(), Seats*HandSize)
	}
	for n := 0; n < HandSize; n++ {
		for i := range hands {
			c, ok := deck.Draw()
			if !ok {
				return hands, fmt.Errorf("deck ran out at card %d of seat %d", n+1, i)
			}
			hands[i] = append(hands[i], c)
		}
	}
	return hands, nil
}

// StartNextHand deals again once the given hand has completed. Calls for any
// other hand are stale and ignored.
func (g *Game) StartNextHand(handNumber int) []Event {
	s := g.state
	if s == nil || !s.GameCompleted || s.HandNumber != handNumber {
		return nil
	}
	return g.DealHand()
}

// checkSeat runs the validations shared by every seat action.
func (g *Game) checkSeat(seat int) error {
	s := g.state
	if s == nil {
		return appErr.ErrNoActiveGame
	}
	if s.GameCompleted {
		return appErr.ErrGameCompleted
	}
	if seat < 0 || seat >= Seats {
		return appErr.ErrInvalidPlayer
	}
	return nil
}

// PlayCard moves one card from the seat's hand to the table.
func (g *Game) PlayCard(seat, cardIndex int) ([]Event, error) {
	if err := g.checkSeat(seat); err != nil {
		return nil, err
	}
	s := g.state
	if s.RoundJustCompleted {
		return nil, appErr.ErrRoundResolving
	}
	if s.Truco.WaitingForResponse {
		return nil, appErr.ErrTrucoPending
	}
	if seat != s.CurrentPlayer {
		return nil, appErr.ErrNotYourTurn
	}
	p := &s.Players[seat]
	if p.HasPlayedThisTurn || s.AwaitingTurnComplete || s.BotPlayed(seat) {
		return nil, appErr.ErrAlreadyPlayed
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return nil, appErr.ErrInvalidCardIndex
	}
	if len(s.PlayedCards) >= Seats || s.hasPlayedCard(seat) {
		return nil, appErr.ErrDuplicatePlay
	}

	card := p.Hand[cardIndex]
	p.Hand = append(p.Hand[:cardIndex:cardIndex], p.Hand[cardIndex+1:]...)
	p.HasPlayedThisTurn = true
	if p.IsBot {
		s.botsPlayed[seat] = struct{}{}
	}
	s.RoundWinnerStarting = false
	s.PlayedCards = append(s.PlayedCards, PlayedCard{Player: p.Name, Card: card, PlayerIndex: seat})

	events := []Event{{Kind: EventCardPlayed, Payload: CardPlayedPayload{
		PlayerIndex: seat,
		PlayerName:  p.Name,
		Card:        card,
		PlayedCards: append([]PlayedCard(nil), s.PlayedCards...),
		IsBot:       p.IsBot,
		RoundNumber: s.CurrentRound,
	}}}

	if len(s.PlayedCards) == Seats {
		return append(events, g.resolveRound()), nil
	}
	if p.IsBot {
		s.AwaitingTurnComplete = true
		return events, nil
	}
	return append(events, g.advanceTurn(NextOpposite(seat))), nil
}

// CompleteTurn releases the turn held by a bot seat after its card was shown.
// Notices for another generation, another seat or a turn already released are
// discarded and produce no events.
func (g *Game) CompleteTurn(seat, roundNumber int) []Event {
	s := g.state
	if s == nil || s.GameCompleted {
		return nil
	}
	if roundNumber != s.CurrentRound || s.RoundJustCompleted || s.RoundWinnerStarting {
		return nil
	}
	if !s.AwaitingTurnComplete || seat != s.CurrentPlayer || !s.Players[seat].HasPlayedThisTurn {
		return nil
	}
	s.AwaitingTurnComplete = false
	return []Event{g.advanceTurn(NextOpposite(seat))}
}

func (g *Game) advanceTurn(next int) Event {
	s := g.state
	s.CurrentPlayer = next
	return Event{Kind: EventTurnChanged, Payload: TurnChangedPayload{
		CurrentPlayer: next,
		AllHands:      s.HandViews(),
		RoundNumber:   s.CurrentRound,
	}}
}

func (g *Game) resolveRound() Event {
	s := g.state
	last := s.PlayedCards[len(s.PlayedCards)-1].PlayerIndex
	result := RoundResult{Round: len(s.RoundResults) + 1}

	winner, ok := ResolveRound(s.PlayedCards)
	var payloadWinner *RoundWinner
	if ok {
		result.WinnerTeam = winner.WinnerTeam
		s.Scores.Add(winner.WinnerTeam, 1)
		s.nextStarter = winner.PlayerIndex
		payloadWinner = &winner
	} else {
		result.IsDraw = true
		s.nextStarter = NextOpposite(last)
	}
	s.RoundResults = append(s.RoundResults, result)
	s.RoundJustCompleted = true
	s.AwaitingTurnComplete = false

	return Event{Kind: EventRoundComplete, Payload: RoundCompletePayload{
		CurrentPlayer: s.nextStarter,
		RoundWinner:   payloadWinner,
		Scores:        s.Scores,
		IsDraw:        result.IsDraw,
		RoundNumber:   s.CurrentRound,
	}}
}

// FinishRound runs once the played cards have been on display. It either
// completes the hand or clears the table and opens the next round.
func (g *Game) FinishRound(roundNumber int) []Event {
	s := g.state
	if s == nil || s.GameCompleted || !s.RoundJustCompleted || s.CurrentRound != roundNumber {
		return nil
	}
	last := s.RoundResults[len(s.RoundResults)-1]
	var lastWinner *RoundWinner
	if !last.IsDraw {
		w := RoundWinner{
			PlayerIndex: s.nextStarter,
			WinnerName:  s.Players[s.nextStarter].Name,
			WinnerTeam:  last.WinnerTeam,
		}
		for _, pc := range s.PlayedCards {
			if pc.PlayerIndex == s.nextStarter {
				w.Card = pc.Card
			}
		}
		lastWinner = &w
	}

	if team, ok := HandWinner(s.RoundResults); ok {
		return g.completeHand(team, s.Truco.CurrentValue, ReasonRounds, lastWinner)
	}
	if len(s.RoundResults) >= MaxRounds {
		return g.completeHand(NoTeam, 0, ReasonVoid, lastWinner)
	}

	s.PlayedCards = nil
	for i := range s.Players {
		s.Players[i].HasPlayedThisTurn = false
	}
	s.botsPlayed = make(map[int]struct{})
	s.RoundJustCompleted = false
	s.RoundWinnerStarting = !last.IsDraw
	g.generation++
	s.CurrentRound = g.generation
	return []Event{g.advanceTurn(s.nextStarter)}
}
