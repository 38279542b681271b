// Package feed runs the live market board behind the dashboard: one
// synthetic candle series per instrument, a price ticker and the timers
// that keep both moving.
package feed

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rustyeddy/forexai/market"
	"github.com/rustyeddy/forexai/market/synth"
)

const (
	CompactSize   = 50
	MaximizedSize = 100

	tickScale    = 0.001
	refreshScale = 0.01
)

type UpdateKind string

const (
	CandleUpdate UpdateKind = "candle"
	QuoteUpdate  UpdateKind = "quote"
	ResetUpdate  UpdateKind = "reset"
)

// Update is one change pushed to subscribers.
type Update struct {
	Kind   UpdateKind     `json:"type"`
	Symbol string         `json:"symbol,omitempty"`
	Candle *market.Candle `json:"candle,omitempty"`
	Quote  *market.Quote  `json:"quote,omitempty"`
}

// Board is safe for concurrent use.
type Board struct {
	gen *synth.Generator
	now func() time.Time

	mu          sync.RWMutex
	instruments []market.Instrument
	windows     map[string]*synth.Window
	ref         map[string]float64
	quotes      *market.QuoteStore
	tf          market.Timeframe
	maximized   bool

	subMu  sync.Mutex
	subs   map[int]chan Update
	nextID int
}

// NewBoard seeds every board instrument at its starting price and
// generates the initial compact 1H series.
func NewBoard(gen *synth.Generator, now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	b := &Board{
		gen:         gen,
		now:         now,
		instruments: market.BoardInstruments(),
		windows:     make(map[string]*synth.Window),
		ref:         make(map[string]float64),
		quotes:      market.NewQuoteStore(),
		tf:          market.H1,
		subs:        make(map[int]chan Update),
	}
	for _, in := range b.instruments {
		b.windows[in.Symbol] = synth.NewWindow(CompactSize)
		b.ref[in.Symbol] = in.StartPrice
		b.quotes.Set(market.Quote{Symbol: in.Symbol, Price: in.StartPrice, Trend: market.Up})
	}
	b.mu.Lock()
	b.regenerateLocked()
	b.mu.Unlock()
	return b
}

func (b *Board) size() int {
	if b.maximized {
		return MaximizedSize
	}
	return CompactSize
}

// regenerateLocked rebuilds every series from the current quote price.
func (b *Board) regenerateLocked() {
	n, end := b.size(), b.now()
	for _, in := range b.instruments {
		price := in.StartPrice
		if q, err := b.quotes.Get(in.Symbol); err == nil {
			price = q.Price
		}
		w := b.windows[in.Symbol]
		w.Resize(n)
		w.Reset(b.gen.Series(in, price, n, b.tf, end))
	}
}

// Refresh regenerates every series and moves every quote.
func (b *Board) Refresh() {
	b.mu.Lock()
	b.jitterLocked(refreshScale)
	b.regenerateLocked()
	b.mu.Unlock()
	b.publish(Update{Kind: ResetUpdate})
}

// SetMaximized switches between 50 and 100 candles. The series are
// regenerated wholesale.
func (b *Board) SetMaximized(on bool) {
	b.mu.Lock()
	b.maximized = on
	b.regenerateLocked()
	b.mu.Unlock()
	b.publish(Update{Kind: ResetUpdate})
}

func (b *Board) SetTimeframe(tf market.Timeframe) error {
	if _, err := market.ParseTimeframe(string(tf)); err != nil {
		return err
	}
	b.mu.Lock()
	b.tf = tf
	b.regenerateLocked()
	b.mu.Unlock()
	b.publish(Update{Kind: ResetUpdate})
	return nil
}

func (b *Board) Timeframe() market.Timeframe {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tf
}

func (b *Board) Maximized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maximized
}

// TickQuotes nudges every quote by a small random amount.
func (b *Board) TickQuotes() {
	b.mu.Lock()
	quotes := b.jitterLocked(tickScale)
	b.mu.Unlock()
	for i := range quotes {
		b.publish(Update{Kind: QuoteUpdate, Symbol: quotes[i].Symbol, Quote: &quotes[i]})
	}
}

func (b *Board) jitterLocked(scale float64) []market.Quote {
	out := make([]market.Quote, 0, len(b.instruments))
	for _, in := range b.instruments {
		q, err := b.quotes.Get(in.Symbol)
		if err != nil {
			continue
		}
		q.Price = b.gen.Jitter(q.Price, scale, in.Precision)
		if q.Price <= 0 {
			q.Price = in.StartPrice
		}
		ref := b.ref[in.Symbol]
		q.Change = market.Round(q.Price-ref, in.Precision)
		q.Percent = market.Round(q.Change/ref*100, 2)
		q.Trend = market.Up
		if q.Change < 0 {
			q.Trend = market.Down
		}
		b.quotes.Set(q)
		out = append(out, q)
	}
	return out
}

// SlideCandles appends one candle to each series, opening at the last
// close, and drops the oldest. Series lengths do not change.
func (b *Board) SlideCandles() {
	b.mu.Lock()
	step := b.tf.Step()
	var pushed []Update
	for _, in := range b.instruments {
		w := b.windows[in.Symbol]
		last, ok := w.Last()
		if !ok {
			continue
		}
		c := b.gen.Next(in, last.Close, last.Time.Add(step))
		w.Push(c)
		pushed = append(pushed, Update{Kind: CandleUpdate, Symbol: in.Symbol, Candle: &c})
	}
	b.mu.Unlock()
	for _, u := range pushed {
		b.publish(u)
	}
}

// Series returns a copy of one instrument's candles.
func (b *Board) Series(symbol string) ([]market.Candle, error) {
	in, err := market.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	w, ok := b.windows[in.Symbol]
	if !ok {
		return nil, fmt.Errorf("%s is not on the board", in.Symbol)
	}
	return w.Candles(), nil
}

func (b *Board) Quotes() []market.Quote {
	return b.quotes.All()
}

// Candles serves an analysis: the board's own series when it matches the
// timeframe, preceded by generated history when n exceeds what the board
// holds. Other instruments get a fresh series.
func (b *Board) Candles(in market.Instrument, tf market.Timeframe, n int) []market.Candle {
	b.mu.RLock()
	var have []market.Candle
	if w, ok := b.windows[in.Symbol]; ok && b.tf == tf {
		have = w.Candles()
	}
	b.mu.RUnlock()

	if len(have) == 0 {
		return b.gen.Series(in, in.StartPrice, n, tf, b.now())
	}
	if len(have) >= n {
		return have[len(have)-n:]
	}
	first := have[0]
	prefix := b.gen.Series(in, first.Open, n-len(have), tf, first.Time.Add(-tf.Step()))
	stitch(prefix, first.Open, in.Precision)
	return append(prefix, have...)
}

// stitch rescales a generated prefix so its last close meets open.
// Scaling by a positive factor keeps every candle's ordering intact.
func stitch(prefix []market.Candle, open float64, prec int) {
	if len(prefix) == 0 {
		return
	}
	last := prefix[len(prefix)-1].Close
	if last <= 0 {
		return
	}
	k := open / last
	for i := range prefix {
		c := &prefix[i]
		c.Open = market.Round(c.Open*k, prec)
		c.Close = market.Round(c.Close*k, prec)
		c.High = math.Max(market.Round(c.High*k, prec), c.Top())
		c.Low = math.Min(market.Round(c.Low*k, prec), c.Bottom())
	}
	prefix[len(prefix)-1].Close = open
	lc := &prefix[len(prefix)-1]
	lc.High = math.Max(lc.High, lc.Top())
	lc.Low = math.Min(lc.Low, lc.Bottom())
}

type Snapshot struct {
	Timeframe market.Timeframe           `json:"timeframe"`
	Maximized bool                       `json:"maximized"`
	Quotes    []market.Quote             `json:"marketData"`
	Series    map[string][]market.Candle `json:"chartData"`
}

func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := Snapshot{
		Timeframe: b.tf,
		Maximized: b.maximized,
		Quotes:    b.quotes.All(),
		Series:    make(map[string][]market.Candle, len(b.windows)),
	}
	for sym, w := range b.windows {
		s.Series[sym] = w.Candles()
	}
	return s
}

// Subscribe registers for updates. Slow subscribers miss updates rather
// than stall the board. Call cancel to unsubscribe.
func (b *Board) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 64)
	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
			close(ch)
		})
	}
}

func (b *Board) publish(u Update) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
