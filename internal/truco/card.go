package truco

import (
	"fmt"
	"math/rand"
)

type Suit string

const (
	Clubs    Suit = "clubs"
	Hearts   Suit = "hearts"
	Spades   Suit = "spades"
	Diamonds Suit = "diamonds"
)

var suits = []Suit{Clubs, Hearts, Spades, Diamonds}

// Ranks in deck order. There are no 8, 9 or 10 in a Truco deck.
var ranks = []string{"A", "2", "3", "4", "5", "6", "7", "J", "Q", "K"}

// Card is immutable once dealt. Lower Power always wins.
type Card struct {
	Suit  Suit   `json:"suit"`
	Rank  string `json:"rank"`
	Name  string `json:"name"`
	Power int    `json:"power"`
}

func (c Card) String() string { return c.Name }

// manilhas outrank every other card, strongest first.
var manilhas = map[string]int{
	"4" + string(Clubs):    1,
	"7" + string(Hearts):   2,
	"A" + string(Spades):   3,
	"7" + string(Diamonds): 4,
	"A" + string(Clubs):    5,
	"A" + string(Hearts):   6,
	"A" + string(Diamonds): 7,
}

// rankPower covers the non-manilha cards. Equal ranks share a power, which is
// what makes a round draw possible.
var rankPower = map[string]int{
	"3": 8,
	"2": 9,
	"K": 10,
	"J": 11,
	"Q": 12,
	"7": 13,
	"6": 14,
	"5": 15,
	"4": 16,
}

// WeakestPower is the largest power value in the deck.
const WeakestPower = 16

func NewCard(rank string, suit Suit) (Card, error) {
	power, ok := manilhas[rank+string(suit)]
	if !ok {
		power, ok = rankPower[rank]
	}
	if !ok {
		return Card{}, fmt.Errorf("unknown card %s of %s", rank, suit)
	}
	return Card{Suit: suit, Rank: rank, Name: rank + " of " + string(suit), Power: power}, nil
}

// MustCard is for fixed tables and tests.
func MustCard(rank string, suit Suit) Card {
	c, err := NewCard(rank, suit)
	if err != nil {
		panic(err)
	}
	return c
}

// IsManilha reports whether the card belongs to the fixed manilha table.
func (c Card) IsManilha() bool {
	_, ok := manilhas[c.Rank+string(c.Suit)]
	return ok
}

// Deck is consumed by popping from the end.
type Deck struct {
	cards []Card
}

// NewDeck returns the 40 cards in suit/rank order.
func NewDeck() *Deck {
	cards := make([]Card, 0, len(suits)*len(ranks))
	for _, s := range suits {
		for _, r := range ranks {
			cards = append(cards, MustCard(r, s))
		}
	}
	return &Deck{cards: cards}
}

// Shuffle is a Fisher-Yates shuffle.
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

func (d *Deck) Len() int { return len(d.cards) }
