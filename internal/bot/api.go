package bot

import "truco-service/internal/truco"

// View is what a bot may know when deciding: its own hand and public table state.
type View struct {
	Seat         int
	Hand         []truco.Card
	Played       []truco.PlayedCard
	RoundResults []truco.RoundResult
	Truco        truco.TrucoState
	CanCallTruco bool
}

// Move is a bot's decision on its own turn. When CallTruco is set the card
// is played later, once the call is answered.
type Move struct {
	CallTruco bool
	CardIndex int
}

// Brain is implemented by every bot strategy.
type Brain interface {
	DecideTurn(v View) Move
	DecideResponse(v View) truco.Response
}

// NewView builds the bot's view of seat from the live hand.
func NewView(s *truco.GameState, seat int, canCall bool) View {
	return View{
		Seat:         seat,
		Hand:         append([]truco.Card(nil), s.Hand(seat)...),
		Played:       append([]truco.PlayedCard(nil), s.PlayedCards...),
		RoundResults: append([]truco.RoundResult(nil), s.RoundResults...),
		Truco:        s.Truco,
		CanCallTruco: canCall,
	}
}
