package market

import (
	"errors"
	"sync"
)

type Trend string

const (
	Up   Trend = "up"
	Down Trend = "down"
)

// Quote is the ticker line shown for one instrument.
type Quote struct {
	Symbol  string  `json:"pair"`
	Price   float64 `json:"price"`
	Change  float64 `json:"change"`
	Percent float64 `json:"percentage"`
	Trend   Trend   `json:"trend"`
}

var ErrNoQuote = errors.New("quote not found")

type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	order  []string
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]Quote)}
}

func (qs *QuoteStore) Set(q Quote) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	if _, ok := qs.quotes[q.Symbol]; !ok {
		qs.order = append(qs.order, q.Symbol)
	}
	qs.quotes[q.Symbol] = q
}

func (qs *QuoteStore) Get(symbol string) (Quote, error) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	q, ok := qs.quotes[symbol]
	if !ok {
		return Quote{}, ErrNoQuote
	}
	return q, nil
}

// All returns the quotes in insertion order.
func (qs *QuoteStore) All() []Quote {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	out := make([]Quote, 0, len(qs.order))
	for _, s := range qs.order {
		out = append(out, qs.quotes[s])
	}
	return out
}
