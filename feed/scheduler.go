package feed

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTickInterval  = 3 * time.Second
	DefaultSlideInterval = 5 * time.Second
)

// Ticker is what the scheduler drives: a single Board or every board of
// a Dashboards registry.
type Ticker interface {
	TickQuotes()
	SlideCandles()
}

// Scheduler moves the ticker on two cron jobs, one for quotes and one
// for candles.
type Scheduler struct {
	Cron   *cron.Cron
	target Ticker
	log    *logrus.Entry
}

func NewScheduler(target Ticker, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{
		Cron:   cron.New(),
		target: target,
		log:    log.WithField("component", "scheduler"),
	}
}

// Register adds both jobs. Zero intervals fall back to the defaults.
func (s *Scheduler) Register(tick, slide time.Duration) error {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if slide <= 0 {
		slide = DefaultSlideInterval
	}
	if _, err := s.Cron.AddFunc(every(tick), s.target.TickQuotes); err != nil {
		return fmt.Errorf("register quote ticker: %w", err)
	}
	if _, err := s.Cron.AddFunc(every(slide), s.target.SlideCandles); err != nil {
		return fmt.Errorf("register candle slide: %w", err)
	}
	s.log.WithFields(logrus.Fields{"tick": tick, "slide": slide}).Debug("jobs registered")
	return nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Every adds a housekeeping job run at a fixed interval.
func (s *Scheduler) Every(d time.Duration, name string, fn func()) error {
	if d <= 0 {
		return fmt.Errorf("register %s: interval must be positive", name)
	}
	if _, err := s.Cron.AddFunc(every(d), fn); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}
