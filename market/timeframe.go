package market

import (
	"fmt"
	"strings"
	"time"
)

type Timeframe string

const (
	H1  Timeframe = "1H"
	M15 Timeframe = "15M"
	M5  Timeframe = "5M"
)

// Step is the spacing between consecutive candles.
func (tf Timeframe) Step() time.Duration {
	switch tf {
	case M15:
		return 15 * time.Minute
	case M5:
		return 5 * time.Minute
	default:
		return time.Hour
	}
}

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToUpper(strings.TrimSpace(s))); tf {
	case H1, M15, M5:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q (want 1H|15M|5M)", s)
	}
}
