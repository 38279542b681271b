package market

import (
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	Forex Kind = "forex"
	Stock Kind = "stock"
)

type Instrument struct {
	Symbol     string  `json:"symbol"`
	Kind       Kind    `json:"kind"`
	Precision  int     `json:"precision"`
	StartPrice float64 `json:"start_price"`

	// Board instruments are shown on the dashboard; the rest are only
	// offered as upload pairs.
	Board bool `json:"board"`
	order int
}

// IsStock reports whether the instrument trades as an equity.
func (i Instrument) IsStock() bool {
	return i.Kind == Stock
}

var Instruments = map[string]Instrument{
	"EUR/USD": {Symbol: "EUR/USD", Kind: Forex, Precision: 4, StartPrice: 1.0847, Board: true, order: 0},
	"GBP/USD": {Symbol: "GBP/USD", Kind: Forex, Precision: 4, StartPrice: 1.2634, Board: true, order: 1},
	"USD/JPY": {Symbol: "USD/JPY", Kind: Forex, Precision: 2, StartPrice: 149.85, Board: true, order: 2},
	"AUD/USD": {Symbol: "AUD/USD", Kind: Forex, Precision: 4, StartPrice: 0.6523, Board: true, order: 3},
	"USD/CAD": {Symbol: "USD/CAD", Kind: Forex, Precision: 4, StartPrice: 1.3456, Board: true, order: 4},
	"EUR/GBP": {Symbol: "EUR/GBP", Kind: Forex, Precision: 4, StartPrice: 0.8591, Board: true, order: 5},
	"AAPL":    {Symbol: "AAPL", Kind: Stock, Precision: 2, StartPrice: 185.50, Board: true, order: 6},
	"TSLA":    {Symbol: "TSLA", Kind: Stock, Precision: 2, StartPrice: 248.75, Board: true, order: 7},
	"GOOGL":   {Symbol: "GOOGL", Kind: Stock, Precision: 2, StartPrice: 142.80, Board: true, order: 8},
	"MSFT":    {Symbol: "MSFT", Kind: Stock, Precision: 2, StartPrice: 378.90, Board: true, order: 9},
	"NVDA":    {Symbol: "NVDA", Kind: Stock, Precision: 2, StartPrice: 469.30, Board: true, order: 10},
	"AMZN":    {Symbol: "AMZN", Kind: Stock, Precision: 2, StartPrice: 151.25, Board: true, order: 11},

	"GBP/JPY": {Symbol: "GBP/JPY", Kind: Forex, Precision: 2, StartPrice: 189.40, order: 12},
	"EUR/JPY": {Symbol: "EUR/JPY", Kind: Forex, Precision: 2, StartPrice: 162.55, order: 13},
	"NZD/USD": {Symbol: "NZD/USD", Kind: Forex, Precision: 4, StartPrice: 0.6012, order: 14},
	"USD/CHF": {Symbol: "USD/CHF", Kind: Forex, Precision: 4, StartPrice: 0.8843, order: 15},
	"AUD/JPY": {Symbol: "AUD/JPY", Kind: Forex, Precision: 2, StartPrice: 97.74, order: 16},
	"CAD/JPY": {Symbol: "CAD/JPY", Kind: Forex, Precision: 2, StartPrice: 111.36, order: 17},
}

// Lookup finds an instrument by symbol. "EUR_USD" and "eur/usd" are accepted.
func Lookup(symbol string) (Instrument, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "_", "/"))
	in, ok := Instruments[s]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument: %s", symbol)
	}
	return in, nil
}

// BoardInstruments returns the dashboard instruments in display order.
func BoardInstruments() []Instrument {
	return sorted(func(i Instrument) bool { return i.Board })
}

// UploadPairs returns the forex pairs offered for chart analysis.
func UploadPairs() []Instrument {
	return sorted(func(i Instrument) bool { return i.Kind == Forex })
}

func sorted(keep func(Instrument) bool) []Instrument {
	var out []Instrument
	for _, in := range Instruments {
		if keep(in) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].order < out[b].order })
	return out
}
