package market

import (
	"math"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Green reports whether the candle closed at or above its open.
func (c Candle) Green() bool {
	return c.Close >= c.Open
}

// Top is the upper edge of the body.
func (c Candle) Top() float64 {
	return math.Max(c.Open, c.Close)
}

// Bottom is the lower edge of the body.
func (c Candle) Bottom() float64 {
	return math.Min(c.Open, c.Close)
}

func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

func (c Candle) UpperWick() float64 {
	return c.High - c.Top()
}

func (c Candle) LowerWick() float64 {
	return c.Bottom() - c.Low
}

// Range is high minus low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Valid reports whether the OHLC ordering holds:
// high >= max(open, close) and low <= min(open, close).
func (c Candle) Valid() bool {
	return c.High >= c.Top() && c.Low <= c.Bottom()
}
