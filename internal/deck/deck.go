// Package deck builds the cards used by a Spot the Same game.
//
// A deck is a finite projective plane of order n: it has n²+n+1 cards, every
// card carries n+1 symbols, there are n²+n+1 distinct symbols in total, and any
// two distinct cards share exactly one symbol. That last property is the whole
// game — whatever two cards are face up, there is always exactly one match.
//
// The construction below relies on arithmetic modulo n, so it is only correct
// when n is prime. Players pick a "deck size" (symbols per card, n+1) and only
// sizes whose order is prime are offered.
package deck

import (
	"errors"
	"fmt"
)

// Card is an ordered list of symbol ids. Cards are treated as immutable once
// generated; anything that needs a different order works on a copy (see Shuffle).
type Card []int

// Deck is every card of one projective plane.
type Deck []Card

// Deck sizes offered to players. A deck size is the number of symbols per card
// (order + 1).
const (
	MinDeckSize = 4
	MaxDeckSize = 8
)

// ErrInvalidOrder is returned when a deck is requested for an order the
// construction cannot handle.
var ErrInvalidOrder = errors.New("deck order must be prime")

// Contains reports whether the card carries the given symbol.
func (c Card) Contains(symbol int) bool {
	for _, s := range c {
		if s == symbol {
			return true
		}
	}
	return false
}

// Clone returns a copy of the card that shares no memory with the original.
func (c Card) Clone() Card {
	out := make(Card, len(c))
	copy(out, c)
	return out
}

// Shared returns the symbols present on both cards, in the order they appear on c.
// For two distinct cards of one deck this always has length 1.
func (c Card) Shared(other Card) []int {
	var out []int
	for _, s := range c {
		if other.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}

// Generate builds the deck of the given prime order.
//
// Layout (n = order):
//  1. card 0 holds symbols 0..n
//  2. cards 1..n hold symbol 0 plus one block of n symbols from n+1 .. n+n²
//  3. the remaining n² cards, indexed (i, j), hold symbol i+1 plus, for each
//     k in 0..n-1, symbol n+1 + n*k + ((i*k + j) mod n)
func Generate(order int) (Deck, error) {
	if !IsPrime(order) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}

	n := order
	deck := make(Deck, 0, n*n+n+1)

	first := make(Card, 0, n+1)
	for s := 0; s <= n; s++ {
		first = append(first, s)
	}
	deck = append(deck, first)

	for j := 0; j < n; j++ {
		card := make(Card, 0, n+1)
		card = append(card, 0)
		for k := 0; k < n; k++ {
			card = append(card, n+1+n*j+k)
		}
		deck = append(deck, card)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			card := make(Card, 0, n+1)
			card = append(card, i+1)
			for k := 0; k < n; k++ {
				card = append(card, n+1+n*k+(i*k+j)%n)
			}
			deck = append(deck, card)
		}
	}

	return deck, nil
}

// CardCount returns how many cards a deck of the given order has.
func CardCount(order int) int {
	return order*order + order + 1
}

// Order converts a player-facing deck size (symbols per card) into the
// generator order.
func Order(deckSize int) int {
	return deckSize - 1
}

// ValidDeckSize reports whether a deck size is offered to players: within the
// supported range and with a prime order.
func ValidDeckSize(deckSize int) bool {
	if deckSize < MinDeckSize || deckSize > MaxDeckSize {
		return false
	}
	return IsPrime(Order(deckSize))
}

// CardsPerPlayer is how many cards each seat receives for a game of the given
// deck size and roster size. One card is taken first as the active card; the
// rest is split evenly and the remainder stays out of play.
func CardsPerPlayer(deckSize, players int) int {
	if players <= 0 {
		return 0
	}
	return (CardCount(Order(deckSize)) - 1) / players
}

// AvailableDeckSizes lists the valid deck sizes that deal at least
// minPerPlayer cards to every one of the given number of players.
func AvailableDeckSizes(players, minPerPlayer int) []int {
	sizes := make([]int, 0, MaxDeckSize-MinDeckSize+1)
	for size := MinDeckSize; size <= MaxDeckSize; size++ {
		if !ValidDeckSize(size) {
			continue
		}
		if CardsPerPlayer(size, players) >= minPerPlayer {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// IsPrime reports whether x is a prime number.
func IsPrime(x int) bool {
	if x < 2 {
		return false
	}
	for i := 2; i*i <= x; i++ {
		if x%i == 0 {
			return false
		}
	}
	return true
}
