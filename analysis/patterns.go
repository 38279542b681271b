package analysis

import (
	"math"

	"github.com/rustyeddy/forexai/indicators"
	"github.com/rustyeddy/forexai/market"
)

type Bias int

const (
	Bearish Bias = -1
	Neutral Bias = 0
	Bullish Bias = 1
)

// Pattern is a named chart formation found at the end of a series.
type Pattern struct {
	Name string
	Bias Bias
}

type detector struct {
	levels bool // support/resistance family, run at every depth
	find   func(cs []market.Candle, atr float64) (Pattern, bool)
}

var detectors = []detector{
	{levels: true, find: doubleBottom},
	{levels: true, find: doubleTop},
	{levels: true, find: supportBounce},
	{levels: true, find: resistanceBreak},
	{levels: true, find: supportBreak},
	{find: engulfing},
	{find: maCrossover},
	{find: volumeSpike},
}

// Detect runs the pattern detectors over candles. With levelsOnly only
// the support and resistance detectors run.
func Detect(candles []market.Candle, atr float64, levelsOnly bool) []Pattern {
	var out []Pattern
	for _, d := range detectors {
		if levelsOnly && !d.levels {
			continue
		}
		if p, ok := d.find(candles, atr); ok {
			out = append(out, p)
		}
	}
	return out
}

// Levels returns the lowest low and highest high of the lookback candles
// before the last one.
func Levels(candles []market.Candle, lookback int) (support, resistance float64) {
	if len(candles) < 2 {
		return 0, 0
	}
	prior := candles[:len(candles)-1]
	if len(prior) > lookback {
		prior = prior[len(prior)-lookback:]
	}
	support, resistance = math.Inf(1), math.Inf(-1)
	for _, c := range prior {
		support = math.Min(support, c.Low)
		resistance = math.Max(resistance, c.High)
	}
	return support, resistance
}

func tail(cs []market.Candle, n int) []market.Candle {
	if len(cs) > n {
		return cs[len(cs)-n:]
	}
	return cs
}

// extremes finds the two most extreme candles in window that are at
// least gap bars apart. low selects lows, otherwise highs.
func extremes(window []market.Candle, gap int, low bool) (a, b int, ok bool) {
	val := func(i int) float64 {
		if low {
			return window[i].Low
		}
		return -window[i].High
	}
	a = 0
	for i := range window {
		if val(i) < val(a) {
			a = i
		}
	}
	b = -1
	for i := range window {
		if i-a < gap && a-i < gap {
			continue
		}
		if b < 0 || val(i) < val(b) {
			b = i
		}
	}
	return a, b, b >= 0
}

func doubleBottom(cs []market.Candle, atr float64) (Pattern, bool) {
	if len(cs) < 20 || atr <= 0 {
		return Pattern{}, false
	}
	w := tail(cs, 30)
	a, b, ok := extremes(w[:len(w)-1], 5, true)
	if !ok || math.Abs(w[a].Low-w[b].Low) > atr/2 {
		return Pattern{}, false
	}
	last := w[len(w)-1]
	if last.Close <= math.Max(w[a].Low, w[b].Low)+atr {
		return Pattern{}, false
	}
	return Pattern{"Double Bottom", Bullish}, true
}

func doubleTop(cs []market.Candle, atr float64) (Pattern, bool) {
	if len(cs) < 20 || atr <= 0 {
		return Pattern{}, false
	}
	w := tail(cs, 30)
	a, b, ok := extremes(w[:len(w)-1], 5, false)
	if !ok || math.Abs(w[a].High-w[b].High) > atr/2 {
		return Pattern{}, false
	}
	last := w[len(w)-1]
	if last.Close >= math.Min(w[a].High, w[b].High)-atr {
		return Pattern{}, false
	}
	return Pattern{"Double Top", Bearish}, true
}

func supportBounce(cs []market.Candle, atr float64) (Pattern, bool) {
	if len(cs) < 5 || atr <= 0 {
		return Pattern{}, false
	}
	support, _ := Levels(cs, 20)
	last := cs[len(cs)-1]
	if last.Low-support <= atr/2 && last.Low >= support-atr/2 && last.Green() && last.Close > support {
		return Pattern{"Support Bounce", Bullish}, true
	}
	return Pattern{}, false
}

func resistanceBreak(cs []market.Candle, _ float64) (Pattern, bool) {
	if len(cs) < 5 {
		return Pattern{}, false
	}
	_, resistance := Levels(cs, 20)
	if cs[len(cs)-1].Close > resistance {
		return Pattern{"Resistance Break", Bullish}, true
	}
	return Pattern{}, false
}

func supportBreak(cs []market.Candle, _ float64) (Pattern, bool) {
	if len(cs) < 5 {
		return Pattern{}, false
	}
	support, _ := Levels(cs, 20)
	if cs[len(cs)-1].Close < support {
		return Pattern{"Support Break", Bearish}, true
	}
	return Pattern{}, false
}

func engulfing(cs []market.Candle, _ float64) (Pattern, bool) {
	if len(cs) < 2 {
		return Pattern{}, false
	}
	prev, last := cs[len(cs)-2], cs[len(cs)-1]
	if last.Body() <= prev.Body() || last.Top() < prev.Top() || last.Bottom() > prev.Bottom() {
		return Pattern{}, false
	}
	switch {
	case !prev.Green() && last.Green():
		return Pattern{"Bullish Engulfing", Bullish}, true
	case prev.Green() && !last.Green():
		return Pattern{"Bearish Engulfing", Bearish}, true
	}
	return Pattern{}, false
}

// maCrossover looks for EMA(8) crossing EMA(21) within the last three candles.
func maCrossover(cs []market.Candle, _ float64) (Pattern, bool) {
	fast, slow := indicators.EMA(cs, 8), indicators.EMA(cs, 21)
	lag := len(fast) - len(slow)
	diffs := make([]float64, len(slow))
	for i, s := range slow {
		diffs[i] = fast[i+lag] - s
	}
	if len(diffs) < 4 {
		return Pattern{}, false
	}
	now := diffs[len(diffs)-1]
	for _, d := range diffs[len(diffs)-4 : len(diffs)-1] {
		if d <= 0 && now > 0 {
			return Pattern{"Moving Average Crossover", Bullish}, true
		}
		if d >= 0 && now < 0 {
			return Pattern{"Moving Average Crossover", Bearish}, true
		}
	}
	return Pattern{}, false
}

func volumeSpike(cs []market.Candle, _ float64) (Pattern, bool) {
	if len(cs) < 6 {
		return Pattern{}, false
	}
	avg := averageVolume(cs[:len(cs)-1], 20)
	last := cs[len(cs)-1]
	if avg > 0 && float64(last.Volume) > 1.5*avg {
		if last.Green() {
			return Pattern{"Volume Spike", Bullish}, true
		}
		return Pattern{"Volume Spike", Bearish}, true
	}
	return Pattern{}, false
}

func averageVolume(cs []market.Candle, n int) float64 {
	cs = tail(cs, n)
	if len(cs) == 0 {
		return 0
	}
	v, _ := indicators.Run(indicators.NewVolumeMA(len(cs)), cs)
	return v
}
