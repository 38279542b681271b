package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/forexai/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
// Usage:
//
//	adx := indicators.NewADX(14)
//	adx.Update(candle)
//	if adx.Ready() && adx.Value() >= 20 { ... }
type ADX struct {
	Period int

	prev     market.Candle
	havePrev bool

	// Wilder-smoothed values after warmup
	tr  float64
	pdm float64
	mdm float64

	adx   float64
	dxSum float64

	// count of candles processed (including the first prev seed)
	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{Period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX(%d)", a.Period)
}

// Warmup is Period candles to seed TR/DM, Period DX values to seed ADX,
// plus the initial previous candle.
func (a *ADX) Warmup() int {
	return 2*a.Period + 1
}

func (a *ADX) Reset() {
	*a = ADX{Period: a.Period}
}

func (a *ADX) Value() float64 {
	return a.adx
}

func (a *ADX) Ready() bool {
	return a.ready
}

func (a *ADX) Update(c market.Candle) {
	if !a.havePrev {
		a.prev = c
		a.havePrev = true
		a.count = 1
		return
	}

	upMove := c.High - a.prev.High
	downMove := a.prev.Low - c.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	tr := trueRange(c, a.prev)

	a.prev = c
	a.count++

	p := float64(a.Period)

	// Phase A: simple averages of the first Period samples seed the smoothing.
	if a.count <= a.Period+1 {
		a.tr += tr
		a.pdm += pdm
		a.mdm += mdm
		if a.count == a.Period+1 {
			a.tr /= p
			a.pdm /= p
			a.mdm /= p
		}
		return
	}

	a.tr = (a.tr*(p-1) + tr) / p
	a.pdm = (a.pdm*(p-1) + pdm) / p
	a.mdm = (a.mdm*(p-1) + mdm) / p

	if a.tr == 0 {
		return
	}

	pdi := 100.0 * (a.pdm / a.tr)
	mdi := 100.0 * (a.mdm / a.tr)
	den := pdi + mdi
	if den == 0 {
		return
	}
	dx := 100 * math.Abs(pdi-mdi) / den

	// Phase B: first DX at count == Period+2, ADX seeded at 2*Period+1.
	firstDXCount := a.Period + 2
	seedADXCount := 2*a.Period + 1

	if !a.ready {
		if a.count >= firstDXCount && a.count <= seedADXCount {
			a.dxSum += dx
		}
		if a.count == seedADXCount {
			a.adx = a.dxSum / p
			a.ready = true
		}
		return
	}

	a.adx = (a.adx*(p-1) + dx) / p
}
