package analysis

import (
	"time"

	"github.com/rustyeddy/forexai/market"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// timeSeries converts candles into a techan series. Every candle is
// assumed to span step.
func timeSeries(candles []market.Candle) *techan.TimeSeries {
	ts := techan.NewTimeSeries()
	step := candleStep(candles)
	for _, c := range candles {
		candle := techan.NewCandle(techan.NewTimePeriod(c.Time, step))
		candle.OpenPrice = big.NewDecimal(c.Open)
		candle.ClosePrice = big.NewDecimal(c.Close)
		candle.MaxPrice = big.NewDecimal(c.High)
		candle.MinPrice = big.NewDecimal(c.Low)
		candle.Volume = big.NewDecimal(float64(c.Volume))
		ts.AddCandle(candle)
	}
	return ts
}

func candleStep(candles []market.Candle) (step time.Duration) {
	if len(candles) > 1 {
		step = candles[1].Time.Sub(candles[0].Time)
	}
	if step <= 0 {
		step = time.Hour
	}
	return step
}

type macdReading struct {
	Histogram float64
	Previous  float64
}

// macd returns the last two MACD(12,26) histogram values against a
// signal EMA(9).
func macd(ts *techan.TimeSeries) macdReading {
	closes := techan.NewClosePriceIndicator(ts)
	hist := techan.NewMACDHistogramIndicator(techan.NewMACDIndicator(closes, 12, 26), 9)
	last := len(ts.Candles) - 1
	return macdReading{
		Histogram: hist.Calculate(last).Float(),
		Previous:  hist.Calculate(last - 1).Float(),
	}
}

type bands struct {
	Upper, Lower float64
}

// bollinger returns the 20 period, 2 sigma bands at the last candle.
func bollinger(ts *techan.TimeSeries) bands {
	closes := techan.NewClosePriceIndicator(ts)
	last := len(ts.Candles) - 1
	return bands{
		Upper: techan.NewBollingerUpperBandIndicator(closes, 20, 2).Calculate(last).Float(),
		Lower: techan.NewBollingerLowerBandIndicator(closes, 20, 2).Calculate(last).Float(),
	}
}
