package deck

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestGenerateSizes(t *testing.T) {
	for _, n := range []int{2, 3, 5, 7} {
		d, err := Generate(n)
		if err != nil {
			t.Fatalf("order %d: %v", n, err)
		}
		if len(d) != n*n+n+1 {
			t.Fatalf("order %d: got %d cards, want %d", n, len(d), n*n+n+1)
		}

		symbols := make(map[int]bool)
		for i, c := range d {
			if len(c) != n+1 {
				t.Fatalf("order %d card %d: got %d symbols, want %d", n, i, len(c), n+1)
			}
			for _, s := range c {
				symbols[s] = true
			}
		}
		if len(symbols) != n*n+n+1 {
			t.Fatalf("order %d: got %d distinct symbols, want %d", n, len(symbols), n*n+n+1)
		}
	}
}

func TestGeneratePairwiseOneSharedSymbol(t *testing.T) {
	for _, deckSize := range []int{4, 6, 8} {
		n := Order(deckSize)
		d, err := Generate(n)
		if err != nil {
			t.Fatalf("deck size %d: %v", deckSize, err)
		}
		for a := 0; a < len(d); a++ {
			for b := a + 1; b < len(d); b++ {
				if shared := d[a].Shared(d[b]); len(shared) != 1 {
					t.Fatalf("deck size %d: cards %d and %d share %v", deckSize, a, b, shared)
				}
			}
		}
	}
}

func TestGenerateRejectsNonPrimeOrder(t *testing.T) {
	for _, n := range []int{0, 1, 4, 6, 9} {
		if _, err := Generate(n); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("order %d: err = %v, want ErrInvalidOrder", n, err)
		}
	}
}

func TestValidDeckSize(t *testing.T) {
	tests := []struct {
		size int
		want bool
	}{
		{3, false},
		{4, true},
		{5, false}, // order 4 is a prime power, not a prime
		{6, true},
		{7, false},
		{8, true},
		{9, false},
	}
	for _, tt := range tests {
		if got := ValidDeckSize(tt.size); got != tt.want {
			t.Errorf("ValidDeckSize(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestAvailableDeckSizes(t *testing.T) {
	tests := []struct {
		players int
		want    []int
	}{
		{2, []int{4, 6, 8}},
		{3, []int{6, 8}}, // 12/3 = 4 < 5
		{7, []int{8}},    // 30/7 = 4 < 5
		{8, []int{8}},
		{12, []int{}}, // 56/12 = 4
	}
	for _, tt := range tests {
		got := AvailableDeckSizes(tt.players, 5)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("AvailableDeckSizes(%d) = %v, want %v", tt.players, got, tt.want)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in := []int{5, 1, 1, 9, 3, 3, 3, 0}
	orig := append([]int(nil), in...)

	out := Shuffle(rng, in)

	if !reflect.DeepEqual(in, orig) {
		t.Fatalf("input was modified: %v", in)
	}
	a := append([]int(nil), out...)
	b := append([]int(nil), orig...)
	sort.Ints(a)
	sort.Ints(b)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("shuffle changed the multiset: %v vs %v", out, orig)
	}
}

func TestShuffleShortInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if out := Shuffle(rng, []int{}); len(out) != 0 {
		t.Fatalf("empty input gave %v", out)
	}
	if out := Shuffle(rng, []int{42}); !reflect.DeepEqual(out, []int{42}) {
		t.Fatalf("singleton input gave %v", out)
	}
}

func TestDealSplitsEvenly(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d, _ := Generate(3)

	active, hands := Deal(rng, d, 2)
	if len(active) != 4 {
		t.Fatalf("active card has %d symbols, want 4", len(active))
	}
	if len(hands) != 2 {
		t.Fatalf("got %d hands, want 2", len(hands))
	}
	for i, h := range hands {
		if len(h) != 6 {
			t.Fatalf("hand %d has %d cards, want 6", i, len(h))
		}
		for _, c := range h {
			if len(c.Shared(active)) != 1 {
				t.Fatalf("hand %d card %v does not share one symbol with %v", i, c, active)
			}
		}
	}

	// 30 cards after the active one, 4 seats: 7 each, 2 left out.
	d5, _ := Generate(5)
	_, hands = Deal(rng, d5, 4)
	for i, h := range hands {
		if len(h) != 7 {
			t.Fatalf("order 5 hand %d has %d cards, want 7", i, len(h))
		}
	}
}

func TestEveryDealtSymbolHasAnIcon(t *testing.T) {
	for size := MinDeckSize; size <= MaxDeckSize; size++ {
		if !ValidDeckSize(size) {
			continue
		}
		d, err := Generate(Order(size))
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", Order(size), err)
		}
		if err := CheckAssets(d); err != nil {
			t.Errorf("deck size %d: %v", size, err)
		}
	}

	if err := CheckAssets(Deck{{0, SymbolCount}}); err == nil {
		t.Error("CheckAssets() accepted a symbol past the icon table")
	}
	if name, ok := Asset(7); !ok || name != "icon-07" {
		t.Errorf("Asset(7) = %q, %v", name, ok)
	}
	if _, ok := Asset(-1); ok {
		t.Error("Asset(-1) found an icon")
	}
}
