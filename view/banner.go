package view

import "time"

// BannerTTL is how long an alert stays up.
const BannerTTL = 5 * time.Second

type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

type Alert struct {
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
}

// Banner holds at most one alert. Every new alert restarts the timer and
// an alert past BannerTTL is gone no matter what else happens.
type Banner struct {
	now   func() time.Time
	alert Alert
	at    time.Time
	set   bool
}

func NewBanner(now func() time.Time) *Banner {
	if now == nil {
		now = time.Now
	}
	return &Banner{now: now}
}

func (b *Banner) Error(msg string)   { b.show(KindError, msg) }
func (b *Banner) Success(msg string) { b.show(KindSuccess, msg) }

func (b *Banner) show(k Kind, msg string) {
	if msg == "" {
		b.Dismiss()
		return
	}
	b.alert = Alert{Kind: k, Message: msg}
	b.at = b.now()
	b.set = true
}

func (b *Banner) Dismiss() {
	b.alert = Alert{}
	b.set = false
}

// Current returns the live alert, if any.
func (b *Banner) Current() (Alert, bool) {
	if !b.set {
		return Alert{}, false
	}
	if b.now().Sub(b.at) >= BannerTTL {
		b.Dismiss()
		return Alert{}, false
	}
	return b.alert, true
}
