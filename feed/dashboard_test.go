package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/market/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecents struct {
	recs []journal.Record
	err  error
	uid  string
	n    int
}

func (f *fakeRecents) Recent(_ context.Context, uid string, n int) ([]journal.Record, error) {
	f.uid, f.n = uid, n
	return f.recs, f.err
}

func TestDashboardDefaults(t *testing.T) {
	t.Parallel()

	d := NewDashboard(newBoard())
	v, err := d.View(context.Background(), nil, "")
	require.NoError(t, err)

	assert.True(t, v.DarkMode)
	assert.True(t, v.ShowVolume)
	assert.Equal(t, "EUR/USD", v.SelectedChart)
	assert.Equal(t, []string{"EUR/USD", "GBP/USD", "AAPL"}, v.Watchlist)
	assert.Len(t, v.Notifications, 3)
	assert.Equal(t, DemoStats, v.Stats)
	assert.Len(t, v.Series, 12)
}

func TestWatchlist(t *testing.T) {
	t.Parallel()

	d := NewDashboard(newBoard())
	require.NoError(t, d.Watch("usd_jpy"))
	require.NoError(t, d.Watch("USD/JPY"))
	assert.Equal(t, []string{"EUR/USD", "GBP/USD", "AAPL", "USD/JPY"}, d.Watchlist())

	d.Unwatch("GBP/USD")
	d.Unwatch("NVDA")
	assert.Equal(t, []string{"EUR/USD", "AAPL", "USD/JPY"}, d.Watchlist())

	assert.Error(t, d.Watch("DOGE"))
}

func TestNotificationsAndToggles(t *testing.T) {
	t.Parallel()

	d := NewDashboard(newBoard())
	d.Dismiss(2)
	d.Dismiss(99)
	ids := []int{}
	for _, n := range d.Notifications() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int{1, 3}, ids)

	assert.False(t, d.ToggleTheme())
	assert.True(t, d.ToggleTheme())
	assert.False(t, d.ToggleVolume())

	require.NoError(t, d.Select("nvda"))
	assert.Error(t, d.Select("GBP/JPY"))
}

func TestDashboardRecent(t *testing.T) {
	t.Parallel()

	d := NewDashboard(newBoard())
	rec := &fakeRecents{recs: journal.Demo()[:3]}
	v, err := d.View(context.Background(), rec, "u1")
	require.NoError(t, err)
	assert.Len(t, v.RecentAnalyses, 3)
	assert.Equal(t, "u1", rec.uid)
	assert.Equal(t, RecentCount, rec.n)

	rec.err = errors.New("db down")
	_, err = d.View(context.Background(), rec, "u1")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "trading_data_2025-01-09.json", ExportName(at))

	d := NewDashboard(newBoard())
	require.NoError(t, d.Select("AAPL"))
	doc, err := d.Export(context.Background(), &fakeRecents{}, "u1", at)
	require.NoError(t, err)
	assert.Len(t, doc.MarketData, 12)
	assert.Len(t, doc.ChartData, CompactSize)
	assert.Equal(t, at, doc.Timestamp)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"marketData", "chartData", "recentAnalyses", "stats", "timestamp"} {
		assert.Contains(t, m, k)
	}
}

func TestDashboardsRegistry(t *testing.T) {
	t.Parallel()

	reg := NewDashboards(synth.NewGenerator(7), func() time.Time { return t0 })
	a := reg.Get("s1")
	assert.Same(t, a, reg.Get("s1"))
	b := reg.Get("s2")
	assert.NotSame(t, a.Board, b.Board)

	a.Board.SetMaximized(true)
	reg.SlideCandles()
	reg.TickQuotes()
	cs, _ := a.Board.Series("EUR/USD")
	assert.Len(t, cs, MaximizedSize)
	cs, _ = b.Board.Series("EUR/USD")
	assert.Len(t, cs, CompactSize)

	reg.Drop("s1")
	assert.Equal(t, 1, reg.Len())
}

type countingTicker struct {
	ticks, slides atomic.Int32
}

func (c *countingTicker) TickQuotes()   { c.ticks.Add(1) }
func (c *countingTicker) SlideCandles() { c.slides.Add(1) }

func TestScheduler(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "@every 3s", every(DefaultTickInterval))

	ct := &countingTicker{}
	s := NewScheduler(ct, nil)
	require.NoError(t, s.Register(time.Second, time.Second))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return ct.ticks.Load() > 0 && ct.slides.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerEvery(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&countingTicker{}, nil)
	assert.Error(t, s.Every(0, "sweep", func() {}))

	var runs atomic.Int32
	require.NoError(t, s.Every(time.Second, "sweep", func() { runs.Add(1) }))
	assert.Len(t, s.Cron.Entries(), 1)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}
