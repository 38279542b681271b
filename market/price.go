package market

import (
	"math"
	"strconv"
)

// Round rounds x to prec decimal places.
func Round(x float64, prec int) float64 {
	p := math.Pow10(prec)
	return math.Round(x*p) / p
}

// Format renders x with prec decimal places.
func Format(x float64, prec int) string {
	return strconv.FormatFloat(x, 'f', prec, 64)
}

// FormatSigned renders x with an explicit leading sign.
func FormatSigned(x float64, prec int) string {
	s := Format(math.Abs(x), prec)
	if x < 0 {
		return "-" + s
	}
	return "+" + s
}
