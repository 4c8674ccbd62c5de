package bot

import "truco-service/internal/truco"

// Tuning holds the hand-strength thresholds of StandardBot.
type Tuning struct {
	CallThreshold   int
	AcceptThreshold int
	// AcceptPerStep raises the accept bar for every step above the first call.
	AcceptPerStep  int
	RaiseThreshold int
	RoundWinBonus  int
}

var DefaultTuning = Tuning{
	CallThreshold:   30,
	AcceptThreshold: 18,
	AcceptPerStep:   4,
	RaiseThreshold:  36,
	RoundWinBonus:   10,
}

// StandardBot plays the cheapest card that still helps its team and calls
// Truco when its hand is strong enough.
type StandardBot struct {
	Tuning Tuning
}

func NewStandardBot() *StandardBot {
	return &StandardBot{Tuning: DefaultTuning}
}

// Strength scores the remaining hand plus rounds already won by the bot's team.
func Strength(v View, bonus int) int {
	total := 0
	for _, c := range v.Hand {
		total += truco.WeakestPower + 1 - c.Power
	}
	team := truco.TeamForSeat(v.Seat)
	for _, r := range v.RoundResults {
		if !r.IsDraw && r.WinnerTeam == team {
			total += bonus
		}
	}
	return total
}

func (b *StandardBot) DecideTurn(v View) Move {
	if v.CanCallTruco && Strength(v, b.Tuning.RoundWinBonus) >= b.Tuning.CallThreshold {
		return Move{CallTruco: true}
	}
	return Move{CardIndex: chooseCard(v)}
}

func (b *StandardBot) DecideResponse(v View) truco.Response {
	t := v.Truco
	strength := Strength(v, b.Tuning.RoundWinBonus)
	canRaise := t.PotentialValue < truco.MaxTrucoValue && truco.TeamForSeat(v.Seat) != t.CallerTeam
	if canRaise && strength >= b.Tuning.RaiseThreshold+(t.PotentialValue-truco.TrucoStep) {
		return truco.Raise
	}
	steps := (t.PotentialValue - truco.TrucoStep) / truco.TrucoStep
	if strength >= b.Tuning.AcceptThreshold+steps*b.Tuning.AcceptPerStep {
		return truco.Accept
	}
	return truco.Reject
}

// chooseCard picks the weakest card when the partner already holds the round
// or nothing can win it, otherwise the weakest card that beats the table.
func chooseCard(v View) int {
	if len(v.Hand) == 0 {
		return 0
	}
	weakest := 0
	for i, c := range v.Hand {
		if c.Power > v.Hand[weakest].Power {
			weakest = i
		}
	}
	if len(v.Played) == 0 {
		return weakest
	}

	best, ok := truco.ResolveRound(v.Played)
	if ok && best.WinnerTeam == truco.TeamForSeat(v.Seat) {
		return weakest
	}
	target := v.Played[0].Card.Power
	for _, pc := range v.Played {
		if pc.Card.Power < target {
			target = pc.Card.Power
		}
	}
	pick := -1
	for i, c := range v.Hand {
		if c.Power < target && (pick < 0 || c.Power > v.Hand[pick].Power) {
			pick = i
		}
	}
	if pick < 0 {
		return weakest
	}
	return pick
}
