package indicators

import (
	"fmt"

	"github.com/rustyeddy/forexai/market"
)

// Field picks the candle value an average runs over.
type Field func(market.Candle) float64

func Close(c market.Candle) float64  { return c.Close }
func Volume(c market.Candle) float64 { return float64(c.Volume) }

// SimpleMA averages the last period values in a ring.
type SimpleMA struct {
	name   string
	period int
	field  Field
	ring   []float64
	next   int
	n      int
	sum    float64
}

func NewMA(period int) *SimpleMA {
	return newSimpleMA("MA", period, Close)
}

// NewVolumeMA averages volume instead of closes.
func NewVolumeMA(period int) *SimpleMA {
	return newSimpleMA("VMA", period, Volume)
}

func newSimpleMA(name string, period int, field Field) *SimpleMA {
	if period < 1 {
		period = 1
	}
	return &SimpleMA{name: name, period: period, field: field, ring: make([]float64, period)}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("%s(%d)", m.name, m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	clear(m.ring)
	m.next, m.n, m.sum = 0, 0, 0
}

func (m *SimpleMA) Update(c market.Candle) {
	v := m.field(c)
	if m.n == m.period {
		m.sum -= m.ring[m.next]
	} else {
		m.n++
	}
	m.ring[m.next] = v
	m.sum += v
	m.next = (m.next + 1) % m.period
}

func (m *SimpleMA) Ready() bool { return m.n == m.period }

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}

// ExponentialMA is seeded with the simple average of its first period
// closes.
type ExponentialMA struct {
	period int
	k      float64
	seed   float64
	n      int
	ema    float64
}

func NewEMA(period int) *ExponentialMA {
	if period < 1 {
		period = 1
	}
	return &ExponentialMA{period: period, k: 2.0 / float64(period+1)}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.seed, e.n, e.ema = 0, 0, 0
}

func (e *ExponentialMA) Update(c market.Candle) {
	if e.n < e.period {
		e.seed += c.Close
		e.n++
		if e.n == e.period {
			e.ema = e.seed / float64(e.period)
		}
		return
	}
	e.ema += (c.Close - e.ema) * e.k
}

func (e *ExponentialMA) Ready() bool { return e.n >= e.period }

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// MA returns the simple average at every candle from the first full
// window on, so len(out) is len(candles)-period+1.
func MA(candles []market.Candle, period int) []float64 {
	return series(NewMA(period), candles)
}

// EMA is the batch form of ExponentialMA, aligned like MA.
func EMA(candles []market.Candle, period int) []float64 {
	return series(NewEMA(period), candles)
}

func series(ind Indicator, candles []market.Candle) []float64 {
	var out []float64
	for _, c := range candles {
		ind.Update(c)
		if ind.Ready() {
			out = append(out, ind.Value())
		}
	}
	return out
}
