package market

import (
	"fmt"
	"strings"
)

// Base is the first currency of a forex pair. Stocks have none.
func (i Instrument) Base() string {
	if i.IsStock() {
		return ""
	}
	base, _, _ := strings.Cut(i.Symbol, "/")
	return base
}

// Quote is the currency prices are expressed in. Stocks quote in USD.
func (i Instrument) Quote() string {
	if i.IsStock() {
		return "USD"
	}
	_, quote, _ := strings.Cut(i.Symbol, "/")
	return quote
}

// QuoteToAccountRate converts one unit of the instrument's quote currency
// into the account currency, using mid as the instrument's own price.
func QuoteToAccountRate(in Instrument, account string, mid float64) (float64, error) {
	// EUR/USD, GBP/USD and stocks for a USD account
	if in.Quote() == account {
		return 1.0, nil
	}

	// USD/JPY mid is JPY per USD; we want USD per JPY
	if in.Base() == account {
		if mid <= 0 {
			return 0, fmt.Errorf("no price for %s", in.Symbol)
		}
		return 1.0 / mid, nil
	}

	return 0, fmt.Errorf("cross conversion not implemented for %s → %s", in.Quote(), account)
}
