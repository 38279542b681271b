package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseQuote(t *testing.T) {
	in, err := Lookup("GBP_JPY")
	require.NoError(t, err)
	assert.Equal(t, "GBP", in.Base())
	assert.Equal(t, "JPY", in.Quote())

	aapl, err := Lookup("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "", aapl.Base())
	assert.Equal(t, "USD", aapl.Quote())
}

func TestQuoteToAccountRate(t *testing.T) {
	tests := []struct {
		symbol  string
		mid     float64
		want    float64
		wantErr bool
	}{
		{"EUR/USD", 1.0847, 1, false},
		{"AAPL", 185.50, 1, false},
		{"USD/JPY", 150, 1.0 / 150, false},
		{"USD/CAD", 0, 0, true},
		{"EUR/GBP", 0.8591, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			in, err := Lookup(tt.symbol)
			require.NoError(t, err)
			got, err := QuoteToAccountRate(in, "USD", tt.mid)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
