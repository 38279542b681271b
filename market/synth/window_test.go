package synth

import (
	"testing"
	"time"

	"github.com/rustyeddy/forexai/market"
	"github.com/stretchr/testify/assert"
)

func candleAt(i int) market.Candle {
	p := 1 + float64(i)/100
	return market.Candle{Time: end.Add(time.Duration(i) * time.Minute), Open: p, High: p, Low: p, Close: p}
}

func TestWindowPushPreservesLength(t *testing.T) {
	t.Parallel()

	w := NewWindow(50)
	for i := 0; i < 50; i++ {
		w.Push(candleAt(i))
	}
	assert.Equal(t, 50, w.Len())

	for i := 50; i < 120; i++ {
		before := w.Len()
		w.Push(candleAt(i))
		assert.Equal(t, before, w.Len())
	}

	cs := w.Candles()
	assert.Equal(t, candleAt(70), cs[0])
	last, ok := w.Last()
	assert.True(t, ok)
	assert.Equal(t, candleAt(119), last)
}

func TestWindowFillsBeforeSliding(t *testing.T) {
	w := NewWindow(3)
	_, ok := w.Last()
	assert.False(t, ok)

	w.Push(candleAt(0))
	w.Push(candleAt(1))
	assert.Equal(t, 2, w.Len())
	w.Push(candleAt(2))
	w.Push(candleAt(3))
	assert.Equal(t, []market.Candle{candleAt(1), candleAt(2), candleAt(3)}, w.Candles())
}

func TestWindowResetAndResize(t *testing.T) {
	w := NewWindow(2)
	w.Reset([]market.Candle{candleAt(0), candleAt(1), candleAt(2)})
	assert.Equal(t, []market.Candle{candleAt(1), candleAt(2)}, w.Candles())

	w.Resize(4)
	assert.Equal(t, 4, w.Cap())
	w.Push(candleAt(3))
	assert.Equal(t, 3, w.Len())

	w.Resize(1)
	assert.Equal(t, []market.Candle{candleAt(3)}, w.Candles())
}

func TestWindowCandlesIsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(candleAt(0))
	cs := w.Candles()
	cs[0].Close = 99
	last, _ := w.Last()
	assert.NotEqual(t, 99.0, last.Close)
}
