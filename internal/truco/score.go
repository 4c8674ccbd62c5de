package truco

// awardGames credits a hand win. Reaching GamesPerSet converts to one set and
// clears both teams' games in the same step.
func awardGames(s *GameState, team Team, value int) (setWinner Team) {
	if team == NoTeam || value <= 0 {
		return NoTeam
	}
	s.Games.Add(team, value)
	if s.Games.Get(team) >= GamesPerSet {
		s.Sets.Add(team, 1)
		s.Games = TeamScore{}
		return team
	}
	return NoTeam
}

func (g *Game) completeHand(winner Team, value int, reason string, roundWinner *RoundWinner) []Event {
	s := g.state
	setWinner := awardGames(s, winner, value)
	s.GameCompleted = true
	s.RoundJustCompleted = false
	s.AwaitingTurnComplete = false
	s.RoundWinnerStarting = false

	awarded := value
	if winner == NoTeam {
		awarded = 0
	}
	outcome := HandOutcome{
		HandNumber:   s.HandNumber,
		Winner:       winner,
		Awarded:      awarded,
		Reason:       reason,
		RoundResults: append([]RoundResult(nil), s.RoundResults...),
		Scores:       s.Scores,
		Games:        s.Games,
		Sets:         s.Sets,
		SetWinner:    setWinner,
	}
	return []Event{{Kind: EventGameComplete, Payload: GameCompletePayload{
		RoundWinner: roundWinner,
		HandOutcome: outcome,
	}}}
}
