package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Demo returns the sample history shown to every account.
func Demo() []Record {
	at := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02 15:04", s)
		return t
	}
	return []Record{
		{ID: "demo-1", Pair: "EUR/USD", Time: at("2024-12-10 14:30"), Recommendation: "BUY", Confidence: 87,
			Entry: 1.0820, Target: 1.0890, Stop: 1.0780, Status: StatusCompleted, Outcome: OutcomeProfit,
			Profit: decimal.NewFromInt(245), RiskReward: 2.1, Patterns: []string{"Double Bottom", "Support Bounce"}, Image: "/chart1.jpg"},
		{ID: "demo-2", Pair: "GBP/USD", Time: at("2024-12-09 09:15"), Recommendation: "SELL", Confidence: 92,
			Entry: 1.2650, Target: 1.2580, Stop: 1.2720, Status: StatusCompleted, Outcome: OutcomeProfit,
			Profit: decimal.NewFromInt(320), RiskReward: 1.8, Patterns: []string{"Head and Shoulders", "Resistance Break"}, Image: "/chart2.jpg"},
		{ID: "demo-3", Pair: "USD/JPY", Time: at("2024-12-08 16:45"), Recommendation: "BUY", Confidence: 78,
			Entry: 149.20, Target: 150.80, Stop: 148.40, Status: StatusCompleted, Outcome: OutcomeLoss,
			Profit: decimal.NewFromInt(-180), RiskReward: 1.5, Patterns: []string{"Flag Pattern", "Volume Spike"}, Image: "/chart3.jpg"},
		{ID: "demo-4", Pair: "AUD/USD", Time: at("2024-12-07 11:20"), Recommendation: "BUY", Confidence: 85,
			Entry: 0.6520, Target: 0.6580, Stop: 0.6480, Status: StatusActive, Outcome: OutcomePending,
			Profit: decimal.NewFromInt(45), RiskReward: 2.0, Patterns: []string{"Ascending Triangle", "Moving Average Cross"}, Image: "/chart4.jpg"},
		{ID: "demo-5", Pair: "EUR/GBP", Time: at("2024-12-06 13:10"), Recommendation: "SELL", Confidence: 89,
			Entry: 0.8591, Target: 0.8520, Stop: 0.8640, Status: StatusCompleted, Outcome: OutcomeProfit,
			Profit: decimal.NewFromInt(275), RiskReward: 1.9, Patterns: []string{"Bearish Engulfing", "Trend Reversal"}, Image: "/chart5.jpg"},
		{ID: "demo-6", Pair: "USD/CAD", Time: at("2024-12-05 08:30"), Recommendation: "BUY", Confidence: 73,
			Entry: 1.3456, Target: 1.3520, Stop: 1.3400, Status: StatusStopped, Outcome: OutcomeLoss,
			Profit: decimal.NewFromInt(-150), RiskReward: 1.6, Patterns: []string{"Wedge Pattern", "Oversold RSI"}, Image: "/chart6.jpg"},
	}
}

// Seed inserts the demo history into an empty journal. It reports how
// many records were written.
func (j *SQLite) Seed(ctx context.Context) (int, error) {
	n, err := j.Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	demo := Demo()
	for _, r := range demo {
		if err := j.RecordAnalysis(ctx, r); err != nil {
			return 0, err
		}
	}
	return len(demo), nil
}
