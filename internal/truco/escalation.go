package truco

import (
	"fmt"

	appErr "truco-service/pkg/errors"
)

// Response is a reply to a pending Truco call.
type Response string

const (
	Accept Response = "accept"
	Reject Response = "reject"
	Raise  Response = "raise"
)

func ParseResponse(s string) (Response, error) {
	switch r := Response(s); r {
	case Accept, Reject, Raise:
		return r, nil
	default:
		return "", fmt.Errorf("unknown truco response %q", s)
	}
}

// CanCallTruco reports whether seat may open a Truco challenge right now.
func (g *Game) CanCallTruco(seat int) bool {
	return g.trucoCallError(seat) == nil
}

func (g *Game) trucoCallError(seat int) error {
	if err := g.checkSeat(seat); err != nil {
		return err
	}
	s := g.state
	if s.RoundJustCompleted {
		return appErr.ErrRoundResolving
	}
	// One challenge per hand: once accepted the stake stays fixed.
	if s.Truco.IsActive || s.Truco.WaitingForResponse || s.Truco.CurrentValue > 1 {
		return appErr.ErrTrucoAlreadyActive
	}
	if seat != s.CurrentPlayer || s.AwaitingTurnComplete {
		return appErr.ErrNotYourTurn
	}
	return nil
}

// RequestTruco opens the challenge. The next seat in order answers.
func (g *Game) RequestTruco(seat int) ([]Event, error) {
	if err := g.trucoCallError(seat); err != nil {
		return nil, err
	}
	s := g.state
	team := TeamForSeat(seat)
	s.Truco = TrucoState{
		IsActive:            true,
		CurrentValue:        1,
		PotentialValue:      TrucoStep,
		RejectionValue:      1,
		CallerTeam:          team,
		CallerIndex:         seat,
		OriginalCallerIndex: seat,
		WaitingForResponse:  true,
		ResponsePlayerIndex: (seat + 1) % Seats,
	}
	return []Event{g.trucoEvent(EventTrucoCalled, seat)}, nil
}

// RespondTruco applies accept, reject or raise from the designated responder.
func (g *Game) RespondTruco(seat int, resp Response) ([]Event, error) {
	if err := g.checkSeat(seat); err != nil {
		return nil, err
	}
	s := g.state
	if !s.Truco.WaitingForResponse {
		return nil, appErr.ErrNoTrucoPending
	}
	if seat != s.Truco.ResponsePlayerIndex {
		return nil, appErr.ErrNotYourTurn
	}

	switch resp {
	case Accept:
		t := &s.Truco
		t.CurrentValue = t.PotentialValue
		t.RejectionValue = t.PotentialValue
		t.WaitingForResponse = false
		t.IsActive = false
		events := []Event{g.trucoEvent(EventTrucoAccepted, seat)}
		return append(events, g.advanceTurn(t.OriginalCallerIndex)), nil

	case Reject:
		t := s.Truco
		events := []Event{g.trucoEvent(EventTrucoRejected, seat)}
		s.Truco.WaitingForResponse = false
		s.Truco.IsActive = false
		return append(events, g.completeHand(t.CallerTeam, t.RejectionValue, ReasonRejection, nil)...), nil

	case Raise:
		t := &s.Truco
		team := TeamForSeat(seat)
		if team == t.CallerTeam {
			return nil, appErr.ErrTeamCannotRaiseOwnCall
		}
		if t.PotentialValue >= MaxTrucoValue {
			return nil, appErr.ErrTrucoMaxValue
		}
		t.RejectionValue = t.PotentialValue
		t.PotentialValue += TrucoStep
		t.CallerTeam = team
		t.CallerIndex = seat
		if team != TeamForSeat(t.OriginalCallerIndex) {
			t.ResponsePlayerIndex = t.OriginalCallerIndex
		} else {
			t.ResponsePlayerIndex = NextOpposite(seat)
		}
		return []Event{g.trucoEvent(EventTrucoRaised, seat)}, nil

	default:
		return nil, fmt.Errorf("unknown truco response %q", resp)
	}
}

func (g *Game) trucoEvent(kind EventKind, seat int) Event {
	s := g.state
	return Event{Kind: kind, Payload: TrucoPayload{
		PlayerIndex: seat,
		PlayerName:  s.Players[seat].Name,
		Team:        TeamForSeat(seat),
		Truco:       s.Truco,
	}}
}
