package truco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func played(cards ...Card) []PlayedCard {
	out := make([]PlayedCard, len(cards))
	for i, c := range cards {
		out[i] = PlayedCard{Player: "p", Card: c, PlayerIndex: i}
	}
	return out
}

func TestResolveRound(t *testing.T) {
	tests := []struct {
		name     string
		cards    []PlayedCard
		wantSeat int
		wantDraw bool
	}{
		{
			name:     "lowest power wins",
			cards:    played(MustCard("K", Clubs), MustCard("4", Clubs), MustCard("3", Spades), MustCard("5", Hearts)),
			wantSeat: 1,
		},
		{
			name:     "manilha beats three",
			cards:    played(MustCard("3", Spades), MustCard("3", Hearts), MustCard("A", Diamonds), MustCard("2", Hearts)),
			wantSeat: 2,
		},
		{
			name:     "tie at minimum is a draw",
			cards:    played(MustCard("3", Spades), MustCard("3", Hearts), MustCard("4", Spades), MustCard("5", Spades)),
			wantDraw: true,
		},
		{
			name:     "tie above minimum is not a draw",
			cards:    played(MustCard("5", Spades), MustCard("5", Hearts), MustCard("2", Spades), MustCard("6", Spades)),
			wantSeat: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := ResolveRound(tt.cards)
			if tt.wantDraw {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.Equal(t, tt.wantSeat, w.PlayerIndex)
			require.Equal(t, TeamForSeat(tt.wantSeat), w.WinnerTeam)
		})
	}
}

func win(round int, team Team) RoundResult { return RoundResult{Round: round, WinnerTeam: team} }
func draw(round int) RoundResult { return RoundResult{Round: round, IsDraw: true} }

func TestHandWinner(t *testing.T) {
	tests := []struct {
		name    string
		results []RoundResult
		want    Team
		decided bool
	}{
		{"single round", []RoundResult{win(1, Team1)}, NoTeam, false},
		{"two wins same team", []RoundResult{win(1, Team2), win(2, Team2)}, Team2, true},
		{"split after two", []RoundResult{win(1, Team1), win(2, Team2)}, NoTeam, false},
		{"draw then win", []RoundResult{draw(1), win(2, Team2)}, Team2, true},
		{"win then draw", []RoundResult{win(1, Team1), draw(2)}, Team1, true},
		{"two draws then win", []RoundResult{draw(1), draw(2), win(3, Team2)}, Team2, true},
		{"split then draw", []RoundResult{win(1, Team2), win(2, Team1), draw(3)}, Team2, true},
		{"win then two draws", []RoundResult{win(1, Team1), draw(2), draw(3)}, Team1, true},
		{"split then decider", []RoundResult{win(1, Team1), win(2, Team2), win(3, Team2)}, Team2, true},
		{"two draws", []RoundResult{draw(1), draw(2)}, NoTeam, false},
		// Not covered by the table; left undecided.
		{"three draws", []RoundResult{draw(1), draw(2), draw(3)}, NoTeam, false},
		{"win draw other win", []RoundResult{win(1, Team1), draw(2), win(3, Team2)}, NoTeam, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HandWinner(tt.results)
			require.Equal(t, tt.decided, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextOpposite(t *testing.T) {
	for seat := 0; seat < Seats; seat++ {
		next := NextOpposite(seat)
		require.NotEqual(t, TeamForSeat(seat), TeamForSeat(next))
		require.Equal(t, (seat+1)%Seats, next)
	}
}
