package deck

import "fmt"

// SymbolCount is how many distinct symbols the largest supported deck uses.
// Every symbol id in any deck we deal lies in [0, SymbolCount).
var SymbolCount = CardCount(Order(MaxDeckSize))

// assets maps each symbol id to the name of the icon clients draw for it.
var assets = func() []string {
	out := make([]string, SymbolCount)
	for id := range out {
		out[id] = fmt.Sprintf("icon-%02d", id)
	}
	return out
}()

// Asset returns the icon name for a symbol id and false if there is none.
func Asset(symbol int) (string, bool) {
	if symbol < 0 || symbol >= len(assets) {
		return "", false
	}
	return assets[symbol], true
}

// Assets returns a copy of the whole symbol id → icon table, indexed by id.
func Assets() []string {
	out := make([]string, len(assets))
	copy(out, assets)
	return out
}

// CheckAssets fails if any card in d carries a symbol without an icon.
func CheckAssets(d Deck) error {
	for i, c := range d {
		for _, s := range c {
			if _, ok := Asset(s); !ok {
				return fmt.Errorf("card %d: symbol %d has no icon", i, s)
			}
		}
	}
	return nil
}
