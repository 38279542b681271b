package analysis

import (
	"context"
	"time"

	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/market"
	"github.com/rustyeddy/forexai/market/synth"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Source supplies the series an analysis is computed from.
type Source interface {
	Candles(in market.Instrument, tf market.Timeframe, n int) []market.Candle
}

// SynthSource generates a fresh synthetic series per request.
type SynthSource struct {
	Gen *synth.Generator
	Now func() time.Time
}

func (s SynthSource) Candles(in market.Instrument, tf market.Timeframe, n int) []market.Candle {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return s.Gen.Series(in, in.StartPrice, n, tf, now())
}

type Recorder interface {
	RecordAnalysis(ctx context.Context, r journal.Record) error
}

type Config struct {
	Delays    map[Depth]time.Duration
	Candles   int
	MaxUpload int64
	Account   Account
}

func DefaultConfig() Config {
	return Config{
		Delays:    DefaultDelays(),
		Candles:   120,
		MaxUpload: 10 << 20,
		Account:   Account{Equity: 10_000, RiskPct: 0.01},
	}
}

// Runner waits out the processing delay, computes the analysis and
// records it.
type Runner struct {
	src Source
	rec Recorder
	cfg Config
	log *logrus.Entry
}

func NewRunner(src Source, rec Recorder, cfg Config, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Candles < MinCandles {
		cfg.Candles = MinCandles
	}
	return &Runner{src: src, rec: rec, cfg: cfg, log: log.WithField("component", "analysis")}
}

// Run blocks for the depth's delay and then analyzes. It returns the
// context error if ctx ends first.
func (r *Runner) Run(ctx context.Context, in market.Instrument, opts Options) (Result, error) {
	return r.RunFrom(ctx, r.src, in, opts)
}

// RunFrom is Run reading the series from src instead of the runner's
// default source.
func (r *Runner) RunFrom(ctx context.Context, src Source, in market.Instrument, opts Options) (Result, error) {
	if src == nil {
		src = r.src
	}
	if d := r.cfg.Delays[opts.Depth]; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	candles := src.Candles(in, opts.Timeframe, r.cfg.Candles)
	return Analyze(Request{
		Instrument: in,
		Timeframe:  opts.Timeframe,
		Depth:      opts.Depth,
		Account:    r.cfg.Account,
	}, candles)
}

func (r *Runner) record(uid, image string, res Result) {
	if r.rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.rec.RecordAnalysis(ctx, ToRecord(res, uid, image)); err != nil {
		r.log.WithError(err).WithField("pair", res.Pair).Warn("record analysis failed")
	}
}

// ToRecord converts a fresh result into an open history entry.
func ToRecord(res Result, uid, image string) journal.Record {
	return journal.Record{
		UID:            uid,
		Pair:           res.Pair,
		Time:           res.CreatedAt,
		Recommendation: string(res.Recommendation),
		Confidence:     res.Confidence,
		Entry:          res.Entry,
		Target:         res.Target,
		Stop:           res.Stop,
		Status:         journal.StatusActive,
		Outcome:        journal.OutcomePending,
		Profit:         decimal.Zero,
		RiskReward:     res.RiskReward,
		Patterns:       res.Patterns,
		Image:          image,
		Depth:          string(res.Depth),
	}
}
