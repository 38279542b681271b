// Package risk holds the price-distance arithmetic behind trade levels.
package risk

import "math"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RR is reward over risk; 0 when the stop sits on the entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// Levels are the stop and target for a trade.
type Levels struct {
	Entry  float64
	Stop   float64
	Target float64
}

// StopTarget places the stop stopMult ATRs against the side and the
// target targetMult ATRs with it.
func StopTarget(side Side, entry, atr, stopMult, targetMult float64) Levels {
	dir := 1.0
	if side == Sell {
		dir = -1.0
	}
	return Levels{
		Entry:  entry,
		Stop:   entry - dir*stopMult*atr,
		Target: entry + dir*targetMult*atr,
	}
}

// Round returns the levels rounded to prec decimals.
func (l Levels) Round(prec int) Levels {
	p := math.Pow10(prec)
	r := func(x float64) float64 { return math.Round(x*p) / p }
	return Levels{Entry: r(l.Entry), Stop: r(l.Stop), Target: r(l.Target)}
}
