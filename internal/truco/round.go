package truco

// RoundWinner is the outcome of a round that was not drawn.
type RoundWinner struct {
	PlayerIndex int    `json:"playerIndex"`
	WinnerName  string `json:"winnerName"`
	WinnerTeam  Team   `json:"winnerTeam"`
	Card        Card   `json:"card"`
}

// ResolveRound returns the lowest-power card's owner. When two or more cards
// share the lowest power the round is drawn and ok is false.
func ResolveRound(played []PlayedCard) (RoundWinner, bool) {
	if len(played) == 0 {
		return RoundWinner{}, false
	}
	best := 0
	tied := false
	for i := 1; i < len(played); i++ {
		switch {
		case played[i].Card.Power < played[best].Card.Power:
			best = i
			tied = false
		case played[i].Card.Power == played[best].Card.Power:
			tied = true
		}
	}
	if tied {
		return RoundWinner{}, false
	}
	pc := played[best]
	return RoundWinner{
		PlayerIndex: pc.PlayerIndex,
		WinnerName:  pc.Player,
		WinnerTeam:  TeamForSeat(pc.PlayerIndex),
		Card:        pc.Card,
	}, true
}

// HandWinner applies the hand-winner table to the round history of one hand.
// Histories the table does not name (three draws, or a win for each team
// around a draw) are left undecided.
func HandWinner(results []RoundResult) (Team, bool) {
	var wins TeamScore
	for _, r := range results {
		if !r.IsDraw {
			wins.Add(r.WinnerTeam, 1)
		}
	}
	if wins.Team1 >= 2 {
		return Team1, true
	}
	if wins.Team2 >= 2 {
		return Team2, true
	}

	switch len(results) {
	case 2:
		r1, r2 := results[0], results[1]
		switch {
		case r1.IsDraw && !r2.IsDraw:
			return r2.WinnerTeam, true
		case !r1.IsDraw && r2.IsDraw:
			return r1.WinnerTeam, true
		}
	case 3:
		r1, r2, r3 := results[0], results[1], results[2]
		switch {
		case r1.IsDraw && r2.IsDraw && !r3.IsDraw:
			return r3.WinnerTeam, true
		case !r1.IsDraw && !r2.IsDraw && r3.IsDraw:
			return r1.WinnerTeam, true
		case !r1.IsDraw && r2.IsDraw && r3.IsDraw:
			return r1.WinnerTeam, true
		}
	}
	return NoTeam, false
}

// NextOpposite returns the nearest seat after from, in seat order, that
// belongs to the other team.
func NextOpposite(from int) int {
	team := TeamForSeat(from)
	for k := 1; k < Seats; k++ {
		seat := (from + k) % Seats
		if TeamForSeat(seat) != team {
			return seat
		}
	}
	return (from + 1) % Seats
}
