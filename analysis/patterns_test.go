package analysis

import (
	"testing"
	"time"

	"github.com/rustyeddy/forexai/market"
	"github.com/stretchr/testify/assert"
)

func flat(n int, price float64, vol int64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = market.Candle{
			Time: t0.Add(time.Duration(i) * time.Hour),
			Open: price, Close: price, High: price + 0.001, Low: price - 0.001,
			Volume: vol,
		}
	}
	return out
}

func names(ps []Pattern) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestEngulfing(t *testing.T) {
	t.Parallel()

	cs := flat(10, 1.10, 100)
	cs = append(cs,
		market.Candle{Open: 1.100, Close: 1.095, High: 1.101, Low: 1.094, Volume: 100},
		market.Candle{Open: 1.094, Close: 1.1005, High: 1.1006, Low: 1.0935, Volume: 100},
	)
	p, ok := engulfing(cs, 0.002)
	assert.True(t, ok)
	assert.Equal(t, Pattern{"Bullish Engulfing", Bullish}, p)

	cs[len(cs)-2] = market.Candle{Open: 1.095, Close: 1.100, High: 1.101, Low: 1.094}
	cs[len(cs)-1] = market.Candle{Open: 1.1005, Close: 1.094, High: 1.101, Low: 1.0935}
	p, ok = engulfing(cs, 0.002)
	assert.True(t, ok)
	assert.Equal(t, Bearish, p.Bias)
}

func TestVolumeSpike(t *testing.T) {
	t.Parallel()

	cs := flat(20, 1.10, 100)
	cs[19].Volume = 1000
	cs[19].Close = 1.1005
	p, ok := volumeSpike(cs, 0)
	assert.True(t, ok)
	assert.Equal(t, Pattern{"Volume Spike", Bullish}, p)

	cs[19].Volume = 120
	_, ok = volumeSpike(cs, 0)
	assert.False(t, ok)
}

func TestLevelsAndBreaks(t *testing.T) {
	t.Parallel()

	cs := flat(20, 1.10, 100)
	support, resistance := Levels(cs, 20)
	assert.InDelta(t, 1.099, support, 1e-9)
	assert.InDelta(t, 1.101, resistance, 1e-9)

	up := append(flat(20, 1.10, 100), market.Candle{Open: 1.10, Close: 1.105, High: 1.106, Low: 1.0995})
	assert.Contains(t, names(Detect(up, 0.002, true)), "Resistance Break")

	down := append(flat(20, 1.10, 100), market.Candle{Open: 1.10, Close: 1.095, High: 1.1005, Low: 1.094})
	assert.Contains(t, names(Detect(down, 0.002, true)), "Support Break")
}

func TestSupportBounce(t *testing.T) {
	t.Parallel()

	cs := append(flat(20, 1.10, 100), market.Candle{Open: 1.0995, Close: 1.1008, High: 1.1009, Low: 1.0991})
	p, ok := supportBounce(cs, 0.002)
	assert.True(t, ok)
	assert.Equal(t, "Support Bounce", p.Name)
}

func TestDoubleBottom(t *testing.T) {
	t.Parallel()

	cs := flat(30, 1.10, 100)
	cs[8].Low = 1.090
	cs[20].Low = 1.0902
	cs[29] = market.Candle{Open: 1.10, Close: 1.104, High: 1.1045, Low: 1.0995}
	p, ok := doubleBottom(cs, 0.002)
	assert.True(t, ok)
	assert.Equal(t, Pattern{"Double Bottom", Bullish}, p)

	_, ok = doubleTop(cs, 0.002)
	assert.False(t, ok)
}

func TestMACrossover(t *testing.T) {
	t.Parallel()

	cs := zigzag(1.1000, -0.0010, -0.0005, 40)
	last := cs[len(cs)-1].Close
	for i := 0; i < 2; i++ {
		c := market.Candle{Time: cs[len(cs)-1].Time.Add(time.Hour), Open: last, Close: last + 0.02}
		c.High, c.Low = c.Close+0.0003, c.Open-0.0003
		cs = append(cs, c)
		last = c.Close
	}
	p, ok := maCrossover(cs, 0)
	assert.True(t, ok)
	assert.Equal(t, Pattern{"Moving Average Crossover", Bullish}, p)
}

func TestQuickOnlyRunsLevelDetectors(t *testing.T) {
	t.Parallel()

	cs := flat(20, 1.10, 100)
	cs[19] = market.Candle{Open: 1.10, Close: 1.105, High: 1.106, Low: 1.0995, Volume: 1000}
	all := names(Detect(cs, 0.002, false))
	quick := names(Detect(cs, 0.002, true))
	assert.Contains(t, all, "Volume Spike")
	assert.NotContains(t, quick, "Volume Spike")
	assert.Contains(t, quick, "Resistance Break")
}
