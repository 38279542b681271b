package feed

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/market"
	"github.com/rustyeddy/forexai/market/synth"
)

// RecentCount is how many analyses the dashboard lists.
const RecentCount = 3

type Notification struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

func seedNotifications() []Notification {
	return []Notification{
		{ID: 1, Message: "EUR/USD hit resistance level", Time: "2 min ago", Type: "warning"},
		{ID: 2, Message: "AAPL breakout detected", Time: "5 min ago", Type: "success"},
		{ID: 3, Message: "Market volatility increased", Time: "10 min ago", Type: "info"},
	}
}

type Stats struct {
	TotalAnalyses    int    `json:"totalAnalyses"`
	SuccessRate      int    `json:"successRate"`
	AvgConfidence    int    `json:"avgConfidence"`
	ProfitableTrades int    `json:"profitableTrades"`
	TotalProfit      string `json:"totalProfit"`
	WinStreak        int    `json:"winStreak"`
}

// DemoStats are the headline figures on the dashboard.
var DemoStats = Stats{
	TotalAnalyses:    47,
	SuccessRate:      84,
	AvgConfidence:    89,
	ProfitableTrades: 12,
	TotalProfit:      "+2,340",
	WinStreak:        7,
}

// Recents lists a user's latest analyses.
type Recents interface {
	Recent(ctx context.Context, uid string, n int) ([]journal.Record, error)
}

// Dashboard is one session's dashboard: its own board plus the
// watchlist, notifications and display toggles.
type Dashboard struct {
	Board *Board

	mu            sync.Mutex
	dark          bool
	showVolume    bool
	selected      string
	watchlist     []string
	notifications []Notification
}

func NewDashboard(b *Board) *Dashboard {
	return &Dashboard{
		Board:         b,
		dark:          true,
		showVolume:    true,
		selected:      "EUR/USD",
		watchlist:     []string{"EUR/USD", "GBP/USD", "AAPL"},
		notifications: seedNotifications(),
	}
}

func (d *Dashboard) ToggleTheme() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dark = !d.dark
	return d.dark
}

func (d *Dashboard) ToggleVolume() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.showVolume = !d.showVolume
	return d.showVolume
}

// Select picks the chart shown in the main panel.
func (d *Dashboard) Select(symbol string) error {
	in, err := market.Lookup(symbol)
	if err != nil {
		return err
	}
	if !in.Board {
		return fmt.Errorf("%s is not on the board", in.Symbol)
	}
	d.mu.Lock()
	d.selected = in.Symbol
	d.mu.Unlock()
	return nil
}

// Watch adds symbol to the watchlist once.
func (d *Dashboard) Watch(symbol string) error {
	in, err := market.Lookup(symbol)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !slices.Contains(d.watchlist, in.Symbol) {
		d.watchlist = append(d.watchlist, in.Symbol)
	}
	return nil
}

func (d *Dashboard) Unwatch(symbol string) {
	if in, err := market.Lookup(symbol); err == nil {
		symbol = in.Symbol
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.watchlist = slices.DeleteFunc(d.watchlist, func(s string) bool { return s == symbol })
}

func (d *Dashboard) Watchlist() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.watchlist)
}

// Dismiss removes a notification. Unknown ids are ignored.
func (d *Dashboard) Dismiss(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = slices.DeleteFunc(d.notifications, func(n Notification) bool { return n.ID == id })
}

func (d *Dashboard) Notifications() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.notifications)
}

type View struct {
	Snapshot
	DarkMode       bool             `json:"isDarkMode"`
	ShowVolume     bool             `json:"showVolume"`
	SelectedChart  string           `json:"selectedChart"`
	Watchlist      []string         `json:"watchlist"`
	Notifications  []Notification   `json:"notifications"`
	Stats          Stats            `json:"stats"`
	RecentAnalyses []journal.Record `json:"recentAnalyses"`
}

// View assembles everything the dashboard page renders.
func (d *Dashboard) View(ctx context.Context, rec Recents, uid string) (View, error) {
	v := View{Snapshot: d.Board.Snapshot(), Stats: DemoStats}
	d.mu.Lock()
	v.DarkMode = d.dark
	v.ShowVolume = d.showVolume
	v.SelectedChart = d.selected
	v.Watchlist = slices.Clone(d.watchlist)
	v.Notifications = slices.Clone(d.notifications)
	d.mu.Unlock()

	if rec != nil {
		recent, err := rec.Recent(ctx, uid, RecentCount)
		if err != nil {
			return View{}, fmt.Errorf("recent analyses: %w", err)
		}
		v.RecentAnalyses = recent
	}
	return v, nil
}

// Export is the downloadable dashboard document.
type Export struct {
	MarketData     []market.Quote   `json:"marketData"`
	ChartData      []market.Candle  `json:"chartData"`
	RecentAnalyses []journal.Record `json:"recentAnalyses"`
	Stats          Stats            `json:"stats"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ExportName is the file name for an export taken at t.
func ExportName(t time.Time) string {
	return "trading_data_" + t.UTC().Format("2006-01-02") + ".json"
}

func (d *Dashboard) Export(ctx context.Context, rec Recents, uid string, now time.Time) (Export, error) {
	v, err := d.View(ctx, rec, uid)
	if err != nil {
		return Export{}, err
	}
	return Export{
		MarketData:     v.Quotes,
		ChartData:      v.Series[v.SelectedChart],
		RecentAnalyses: v.RecentAnalyses,
		Stats:          v.Stats,
		Timestamp:      now.UTC(),
	}, nil
}

// Dashboards holds one Dashboard per session and ticks all of them.
type Dashboards struct {
	gen *synth.Generator
	now func() time.Time

	mu sync.Mutex
	m  map[string]*Dashboard
}

func NewDashboards(gen *synth.Generator, now func() time.Time) *Dashboards {
	return &Dashboards{gen: gen, now: now, m: make(map[string]*Dashboard)}
}

// Get returns the session's dashboard, creating it on first use.
func (r *Dashboards) Get(sessionID string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.m[sessionID]
	if !ok {
		d = NewDashboard(NewBoard(r.gen, r.now))
		r.m[sessionID] = d
	}
	return d
}

func (r *Dashboards) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, sessionID)
}

// Keys lists the sessions holding a dashboard.
func (r *Dashboards) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	return out
}

func (r *Dashboards) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

func (r *Dashboards) boards() []*Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Board, 0, len(r.m))
	for _, d := range r.m {
		out = append(out, d.Board)
	}
	return out
}

func (r *Dashboards) TickQuotes() {
	for _, b := range r.boards() {
		b.TickQuotes()
	}
}

func (r *Dashboards) SlideCandles() {
	for _, b := range r.boards() {
		b.SlideCandles()
	}
}
