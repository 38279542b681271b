package risk

import "math"

// Account is the balance a position is sized against.
type Account struct {
	Equity  float64
	RiskPct float64 // 0.01 risks one percent
}

// Position is the size that loses RiskPct of equity if the stop is hit.
type Position struct {
	Units      float64
	StopPips   float64
	RiskAmount float64
}

// PipSize is one pip for a quote precision: 0.0001 for 4-decimal pairs,
// 0.01 for 2-decimal pairs and stocks.
func PipSize(precision int) float64 {
	return math.Pow10(-precision)
}

// Size sizes a position for lv. rate converts one unit of the quote
// currency into the account currency:
//
//	EUR/USD for a USD account → 1.0
//	USD/JPY for a USD account → 1 / USDJPY mid
//
// A zero rate or a stop on the entry yields zero units.
func Size(acct Account, lv Levels, precision int, rate float64) Position {
	pip := PipSize(precision)
	stopPips := math.Abs(lv.Entry-lv.Stop) / pip
	riskAmt := acct.Equity * acct.RiskPct

	p := Position{StopPips: stopPips, RiskAmount: riskAmt}
	if stopPips == 0 || rate == 0 {
		return p
	}
	pipValue := pip * rate
	p.Units = math.Floor(riskAmt / (stopPips * pipValue))
	return p
}
