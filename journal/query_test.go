package journal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *SQLite {
	t.Helper()
	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	_, err := j.Seed(context.Background())
	require.NoError(t, err)
	return j
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestListSorting(t *testing.T) {
	t.Parallel()

	j := seeded(t)

	tests := []struct {
		sort SortKey
		want []string
	}{
		{SortDate, []string{"demo-1", "demo-2", "demo-3", "demo-4", "demo-5", "demo-6"}},
		{SortConfidence, []string{"demo-2", "demo-5", "demo-1", "demo-4", "demo-3", "demo-6"}},
		{SortProfit, []string{"demo-2", "demo-5", "demo-1", "demo-4", "demo-6", "demo-3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			recs, err := j.List(context.Background(), Query{Sort: tt.sort})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}
}

func TestListSearchAndStatus(t *testing.T) {
	t.Parallel()

	j := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"pair lower case", Query{Search: "eur"}, []string{"demo-1", "demo-5"}},
		{"recommendation", Query{Search: "Sell"}, []string{"demo-2", "demo-5"}},
		{"status", Query{Status: "completed"}, []string{"demo-1", "demo-2", "demo-3", "demo-5"}},
		{"all", Query{Status: "all"}, []string{"demo-1", "demo-2", "demo-3", "demo-4", "demo-5", "demo-6"}},
		{"combined", Query{Search: "usd", Status: "stopped"}, []string{"demo-6"}},
		{"no match", Query{Search: "btc"}, nil},
		{"percent is literal", Query{Search: "%"}, nil},
		{"underscore is literal", Query{Search: "_"}, nil},
		{"backslash is literal", Query{Search: `\`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := j.List(ctx, tt.q)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, recs)
				return
			}
			assert.Equal(t, tt.want, ids(recs))
		})
	}
}

func TestListOwnerSeesDemoAndOwn(t *testing.T) {
	t.Parallel()

	j := seeded(t)
	ctx := context.Background()

	mine := Record{ID: "mine", UID: "u1", Pair: "NZD/USD", Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Recommendation: "BUY", Status: StatusActive, Outcome: OutcomePending, Profit: decimal.Zero}
	theirs := mine
	theirs.ID, theirs.UID = "theirs", "u2"
	require.NoError(t, j.RecordAnalysis(ctx, mine))
	require.NoError(t, j.RecordAnalysis(ctx, theirs))

	recs, err := j.List(ctx, Query{UID: "u1"})
	require.NoError(t, err)
	assert.Len(t, recs, 7)
	assert.Equal(t, "mine", recs[0].ID)
	assert.NotContains(t, ids(recs), "theirs")

	recent, err := j.Recent(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"mine", "demo-1", "demo-2"}, ids(recent))
}

func TestStats(t *testing.T) {
	t.Parallel()

	j := seeded(t)

	st, err := j.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 4, st.Completed)
	assert.Equal(t, 1, st.Active)
	assert.True(t, decimal.NewFromInt(660).Equal(st.TotalProfit), st.TotalProfit.String())
	assert.Equal(t, 75, st.WinRate)
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	assert.Zero(t, st.WinRate)
	assert.True(t, st.TotalProfit.IsZero())
}

func TestParseSortAndStatus(t *testing.T) {
	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortDate, s)
	_, err = ParseSort("pair")
	assert.Error(t, err)

	st, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, "all", st)
	_, err = ParseStatus("open")
	assert.Error(t, err)
}
