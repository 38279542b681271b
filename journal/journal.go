// Package journal stores completed analyses and the trading history shown
// on the history page.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("analysis not found")

type Status string

const (
	StatusCompleted Status = "completed"
	StatusActive    Status = "active"
	StatusStopped   Status = "stopped"
)

type Outcome string

const (
	OutcomeProfit  Outcome = "profit"
	OutcomeLoss    Outcome = "loss"
	OutcomePending Outcome = "pending"
)

// Record is one analysis in the history. Profit is kept as a decimal so
// totals over many records do not accumulate float error.
type Record struct {
	ID             string          `json:"id"`
	UID            string          `json:"-"`
	Pair           string          `json:"pair"`
	Time           time.Time       `json:"time"`
	Recommendation string          `json:"recommendation"`
	Confidence     int             `json:"confidence"`
	Entry          float64         `json:"entryPrice"`
	Target         float64         `json:"targetPrice"`
	Stop           float64         `json:"stopLoss"`
	Status         Status          `json:"status"`
	Outcome        Outcome         `json:"outcome"`
	Profit         decimal.Decimal `json:"profit"`
	RiskReward     float64         `json:"riskReward"`
	Patterns       []string        `json:"patterns"`
	Image          string          `json:"image"`
	Depth          string          `json:"depth,omitempty"`
}

// Date and Clock return the record time the way the history table shows it.
func (r Record) Date() string  { return r.Time.Format("2006-01-02") }
func (r Record) Clock() string { return r.Time.Format("15:04") }

type Stats struct {
	Total       int             `json:"totalAnalyses"`
	Completed   int             `json:"completed"`
	Active      int             `json:"active"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
	WinRate     int             `json:"winRate"`
}

type Journal interface {
	RecordAnalysis(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q Query) ([]Record, error)
	Recent(ctx context.Context, uid string, n int) ([]Record, error)
	Stats(ctx context.Context, uid string) (Stats, error)
	Close() error
}
