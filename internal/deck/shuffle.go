package deck

import "math/rand"

// Shuffle returns a uniformly shuffled copy of s (Fisher–Yates). The input is
// never modified, so callers can shuffle a card that is still referenced
// elsewhere without aliasing surprises. Empty and single-element inputs come
// back as an equal copy.
func Shuffle[T any](rng *rand.Rand, s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal shuffles the deck, takes the first card as the active card and splits
// the rest into seats hands of equal size. Cards left over after the even
// split are not dealt.
func Deal(rng *rand.Rand, d Deck, seats int) (active Card, hands []Deck) {
	shuffled := Shuffle(rng, d)
	if len(shuffled) == 0 || seats <= 0 {
		return nil, nil
	}

	active = shuffled[0].Clone()
	rest := shuffled[1:]
	perSeat := len(rest) / seats

	hands = make([]Deck, seats)
	for s := 0; s < seats; s++ {
		hand := make(Deck, 0, perSeat)
		for _, c := range rest[s*perSeat : (s+1)*perSeat] {
			hand = append(hand, c.Clone())
		}
		hands[s] = hand
	}
	return active, hands
}
