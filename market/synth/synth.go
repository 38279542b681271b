// Package synth generates synthetic candlestick data for the dashboard.
//
// The series is a pseudo-random walk: each candle opens at the previous
// close and drifts by a bounded random percentage. It is a display faker,
// not a calibrated market model.
package synth

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rustyeddy/forexai/market"
)

// Params controls the shape of generated candles.
type Params struct {
	Volatility   float64 // max total percentage swing per candle
	RangeFactor  float64 // max wick extension as a fraction of price
	BaseVolume   int64
	VolumeSpread float64 // extra volume as a multiple of BaseVolume
}

var (
	ForexParams = Params{Volatility: 0.005, RangeFactor: 0.003, BaseVolume: 500_000, VolumeSpread: 1}
	StockParams = Params{Volatility: 0.025, RangeFactor: 0.015, BaseVolume: 1_000_000, VolumeSpread: 2}
)

// ParamsFor picks the parameter set for an instrument kind.
func ParamsFor(k market.Kind) Params {
	if k == market.Stock {
		return StockParams
	}
	return ForexParams
}

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Next produces one candle opening at open.
func (g *Generator) Next(in market.Instrument, open float64, t time.Time) market.Candle {
	p := ParamsFor(in.Kind)

	change := (g.float() - 0.5) * p.Volatility
	closeP := open + open*change

	rangeFactor := g.float() * p.RangeFactor
	high := math.Max(open, closeP) + g.float()*rangeFactor*open
	low := math.Min(open, closeP) - g.float()*rangeFactor*open

	volume := p.BaseVolume + int64(g.float()*float64(p.BaseVolume)*p.VolumeSpread)

	c := market.Candle{
		Time:   t,
		Open:   market.Round(open, in.Precision),
		High:   market.Round(high, in.Precision),
		Low:    market.Round(low, in.Precision),
		Close:  market.Round(closeP, in.Precision),
		Volume: volume,
	}
	// rounding can nudge the wicks inside the body
	c.High = math.Max(c.High, c.Top())
	c.Low = math.Min(c.Low, c.Bottom())
	return c
}

// Series generates n candles starting at start. The last candle is stamped
// at end and earlier ones step back by tf.
func (g *Generator) Series(in market.Instrument, start float64, n int, tf market.Timeframe, end time.Time) []market.Candle {
	if n <= 0 {
		return nil
	}
	out := make([]market.Candle, 0, n)
	t := end.Add(-time.Duration(n-1) * tf.Step())
	price := start
	for i := 0; i < n; i++ {
		c := g.Next(in, price, t)
		out = append(out, c)
		price = c.Close
		t = t.Add(tf.Step())
	}
	return out
}

// Jitter moves price by a uniform amount in [-scale/2, scale/2) and rounds.
func (g *Generator) Jitter(price, scale float64, prec int) float64 {
	return market.Round(price+(g.float()-0.5)*scale, prec)
}

// Envelope bounds where the close of a series of n steps can land given
// the per-step volatility, ignoring rounding.
func Envelope(start float64, n int, volatility float64) (lo, hi float64) {
	step := volatility / 2
	lo = start * math.Pow(1-step, float64(n))
	hi = start * math.Pow(1+step, float64(n))
	return lo, hi
}
