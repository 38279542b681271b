// Package analysis computes trade recommendations from a price series and
// runs the upload, analyze, result workflow around it.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/forexai/indicators"
	"github.com/rustyeddy/forexai/market"
	"github.com/rustyeddy/forexai/risk"
)

// MinCandles is the shortest series Analyze accepts. MACD(12,26) with a
// 9 period signal needs 34 closes; the rest is headroom for the patterns.
const MinCandles = 60

var ErrShortSeries = errors.New("not enough candles to analyze")

type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
)

type Recommendation string

const (
	Buy  Recommendation = "BUY"
	Sell Recommendation = "SELL"
)

func (r Recommendation) side() risk.Side {
	if r == Sell {
		return risk.Sell
	}
	return risk.Buy
}

func (r Recommendation) bias() Bias {
	if r == Sell {
		return Bearish
	}
	return Bullish
}

type Technicals struct {
	RSI       float64 `json:"rsi"`
	MACD      string  `json:"macd,omitempty"`
	Bollinger string  `json:"bollinger,omitempty"`
	Volume    string  `json:"volume"`
	ATR       float64 `json:"atr"`
	ADX       float64 `json:"adx,omitempty"`
}

// Sizing is the risk assessment attached to advanced analyses.
type Sizing struct {
	Equity     float64 `json:"equity"`
	RiskPct    float64 `json:"riskPct"`
	RiskAmount float64 `json:"riskAmount"`
	StopPips   float64 `json:"stopPips"`
	Units      float64 `json:"units"`
}

type Result struct {
	Pair            string           `json:"pair"`
	Depth           Depth            `json:"depth"`
	Confidence      int              `json:"confidence"`
	Trend           Trend            `json:"trend"`
	Recommendation  Recommendation   `json:"recommendation"`
	Entry           float64          `json:"entryPrice"`
	Target          float64          `json:"targetPrice"`
	Stop            float64          `json:"stopLoss"`
	RiskReward      float64          `json:"riskReward"`
	Timeframe       market.Timeframe `json:"timeframe"`
	Support         float64          `json:"support"`
	Resistance      float64          `json:"resistance"`
	Patterns        []string         `json:"patterns"`
	Technicals      Technicals       `json:"technicalIndicators"`
	MarketSentiment string           `json:"marketSentiment,omitempty"`
	NewsImpact      string           `json:"newsImpact,omitempty"`
	Sizing          *Sizing          `json:"sizing,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Account is used to size positions for advanced analyses.
type Account struct {
	Equity  float64
	RiskPct float64
}

type Request struct {
	Instrument market.Instrument
	Timeframe  market.Timeframe
	Depth      Depth
	Account    Account
}

// Analyze produces a recommendation for the last candle of the series.
// The result depends only on its inputs.
func Analyze(req Request, candles []market.Candle) (Result, error) {
	if len(candles) < MinCandles {
		return Result{}, fmt.Errorf("%w: have %d, need %d", ErrShortSeries, len(candles), MinCandles)
	}
	in := req.Instrument
	last := candles[len(candles)-1]

	fast, _ := indicators.Run(indicators.NewEMA(8), candles)
	slow, _ := indicators.Run(indicators.NewEMA(21), candles)
	rsi, _ := indicators.Run(indicators.NewRSI(14), candles)
	atr, err := indicators.ATRFunc(candles, 14)
	if err != nil {
		return Result{}, fmt.Errorf("atr: %w", err)
	}

	ts := timeSeries(candles)
	m := macd(ts)
	bb := bollinger(ts)

	trend := TrendBearish
	if fast >= slow {
		trend = TrendBullish
	}

	var rec Recommendation
	switch {
	case trend == TrendBullish && rsi < 70:
		rec = Buy
	case trend == TrendBearish && rsi > 30:
		rec = Sell
	case m.Histogram >= 0:
		rec = Buy
	default:
		rec = Sell
	}

	patterns := Detect(candles, atr, req.Depth == Quick)
	support, resistance := Levels(candles, 20)

	res := Result{
		Pair:           in.Symbol,
		Depth:          req.Depth,
		Trend:          trend,
		Recommendation: rec,
		Timeframe:      req.Timeframe,
		Support:        market.Round(support, in.Precision),
		Resistance:     market.Round(resistance, in.Precision),
		Patterns:       make([]string, 0, len(patterns)),
		Technicals: Technicals{
			RSI:    math.Round(rsi),
			Volume: volumeLabel(candles),
			ATR:    market.Round(atr, in.Precision+1),
		},
		CreatedAt: last.Time,
	}
	for _, p := range patterns {
		res.Patterns = append(res.Patterns, p.Name)
	}
	if req.Depth != Quick {
		res.Technicals.MACD = macdLabel(m)
		res.Technicals.Bollinger = bollingerLabel(last.Close, bb)
	}

	score := 50
	agree := func(ok bool, pts int) {
		if ok {
			score += pts
		}
	}
	agree((trend == TrendBullish) == (rec == Buy), 12)
	agree((m.Histogram >= 0) == (rec == Buy), 12)
	agree((rsi >= 50) == (rec == Buy) && rsi > 30 && rsi < 70, 8)
	agree((rec == Buy && last.Close < bb.Upper) || (rec == Sell && last.Close > bb.Lower), 5)
	agree(res.Technicals.Volume == "Above average", 5)
	for _, p := range patterns {
		agree(p.Bias == rec.bias(), 3)
	}

	stopMult, targetMult := req.Depth.multiples()
	if atr <= 0 {
		atr = last.Range()
	}
	lv := risk.StopTarget(rec.side(), last.Close, atr, stopMult, targetMult).Round(in.Precision)
	res.Entry, res.Stop, res.Target = lv.Entry, lv.Stop, lv.Target
	res.RiskReward = market.Round(risk.RR(lv.Entry, lv.Stop, lv.Target), 2)

	if req.Depth == Advanced {
		adx, _ := indicators.Run(indicators.NewADX(14), candles)
		res.Technicals.ADX = math.Round(adx*10) / 10
		agree(adx >= 25, 7)
		res.MarketSentiment = sentiment(rec, adx)
		res.NewsImpact = newsImpact(atr / last.Close)
		res.Sizing = sizing(in, lv, req.Account)
	}

	res.Confidence = max(50, min(99, score))
	return res, nil
}

func macdLabel(m macdReading) string {
	switch {
	case m.Histogram >= 0 && m.Previous < 0:
		return "Bullish Crossover"
	case m.Histogram < 0 && m.Previous >= 0:
		return "Bearish Crossover"
	case m.Histogram >= 0:
		return "Bullish"
	}
	return "Bearish"
}

func bollingerLabel(close float64, b bands) string {
	switch {
	case close > b.Upper:
		return "Above upper band"
	case close < b.Lower:
		return "Below lower band"
	}
	return "Within bands"
}

func volumeLabel(candles []market.Candle) string {
	avg := averageVolume(candles[:len(candles)-1], 20)
	v := float64(candles[len(candles)-1].Volume)
	switch {
	case avg == 0:
		return "Average"
	case v > 1.2*avg:
		return "Above average"
	case v < 0.8*avg:
		return "Below average"
	}
	return "Average"
}

func sentiment(rec Recommendation, adx float64) string {
	if adx < 20 {
		return "Neutral"
	}
	if rec == Buy {
		return "Positive"
	}
	return "Negative"
}

func newsImpact(relATR float64) string {
	switch {
	case relATR > 0.004:
		return "Medium to High"
	case relATR > 0.002:
		return "Low to Medium"
	}
	return "Low"
}

// quoteToUSD converts one unit of the instrument's quote currency into
// USD using the entry price. Crosses without USD return 0.
func quoteToUSD(in market.Instrument, price float64) float64 {
	rate, err := market.QuoteToAccountRate(in, "USD", price)
	if err != nil {
		return 0
	}
	return rate
}

func sizing(in market.Instrument, lv risk.Levels, acct Account) *Sizing {
	if acct.Equity <= 0 || acct.RiskPct <= 0 {
		return nil
	}
	r := risk.Size(risk.Account{Equity: acct.Equity, RiskPct: acct.RiskPct}, lv, in.Precision, quoteToUSD(in, lv.Entry))
	return &Sizing{
		Equity:     acct.Equity,
		RiskPct:    acct.RiskPct,
		RiskAmount: r.RiskAmount,
		StopPips:   market.Round(r.StopPips, 1),
		Units:      r.Units,
	}
}
