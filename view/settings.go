package view

import (
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	str2duration "github.com/xhit/go-str2duration/v2"
)

type Tab string

const (
	TabProfile       Tab = "profile"
	TabNotifications Tab = "notifications"
	TabSecurity      Tab = "security"
	TabPreferences   Tab = "preferences"
	TabBilling       Tab = "billing"
	TabData          Tab = "data"
)

var Tabs = []Tab{TabProfile, TabNotifications, TabSecurity, TabPreferences, TabBilling, TabData}

func ParseTab(s string) (Tab, error) {
	if t := Tab(s); slices.Contains(Tabs, t) {
		return t, nil
	}
	return "", fmt.Errorf("unknown settings tab %q", s)
}

var (
	Themes     = []string{"dark", "light", "auto"}
	Languages  = []string{"en", "es", "fr", "de", "ja", "zh"}
	Currencies = []string{"USD", "EUR", "GBP", "JPY", "CAD"}
	Timezones  = []string{"UTC-12", "UTC-8", "UTC-5", "UTC+0", "UTC+1", "UTC+8", "UTC+9"}

	HistoryRetention = []string{"1year", "2years", "5years", "forever"}
	ImageRetention   = []string{"30days", "90days", "1year", "never"}
)

type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
}

type Notifications struct {
	Email    bool `json:"email"`
	Push     bool `json:"push"`
	SMS      bool `json:"sms"`
	Analysis bool `json:"analysis"`
	Market   bool `json:"market"`
	News     bool `json:"news"`
}

type Security struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s Security) Validate() error {
	if s.CurrentPassword == "" {
		return ErrCurrentPass
	}
	if s.NewPassword != s.ConfirmPassword {
		return ErrPasswordMatch
	}
	if utf8.RuneCountInString(s.NewPassword) < MinPasswordLen {
		return ErrPasswordShort
	}
	return nil
}

type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

func (p Preferences) Validate() error {
	for _, c := range []struct {
		name, val string
		opts      []string
	}{
		{"theme", p.Theme, Themes},
		{"language", p.Language, Languages},
		{"currency", p.Currency, Currencies},
		{"timezone", p.Timezone, Timezones},
	} {
		if !slices.Contains(c.opts, c.val) {
			return fmt.Errorf("unsupported %s %q", c.name, c.val)
		}
	}
	return nil
}

type Retention struct {
	History string `json:"analysisHistory"`
	Images  string `json:"chartImages"`
}

func (r Retention) Validate() error {
	if !slices.Contains(HistoryRetention, r.History) {
		return fmt.Errorf("unsupported history retention %q", r.History)
	}
	if !slices.Contains(ImageRetention, r.Images) {
		return fmt.Errorf("unsupported image retention %q", r.Images)
	}
	return nil
}

var retentionSpans = map[string]string{
	"30days": "30d",
	"90days": "90d",
	"1year":  "365d",
	"2years": "730d",
	"5years": "1825d",
}

// RetentionPeriod converts a retention option to a duration. "forever"
// and "never" report ok=false.
func RetentionPeriod(opt string) (time.Duration, bool) {
	span, ok := retentionSpans[opt]
	if !ok {
		return 0, false
	}
	d, err := str2duration.ParseDuration(span)
	if err != nil {
		return 0, false
	}
	return d, true
}

type Invoice struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type Billing struct {
	Plan        string    `json:"plan"`
	Price       string    `json:"price"`
	NextBilling string    `json:"nextBilling"`
	Invoices    []Invoice `json:"invoices"`
}

// DemoBilling is the fixed plan shown on the billing tab.
func DemoBilling() Billing {
	inv := func(id, date string) Invoice {
		return Invoice{ID: id, Date: date, Amount: "$29.99", Status: "Paid", Description: "Pro Plan - Monthly"}
	}
	return Billing{
		Plan:        "Pro Plan",
		Price:       "$29.99/month",
		NextBilling: "January 15, 2025",
		Invoices: []Invoice{
			inv("INV-001", "Dec 15, 2024"),
			inv("INV-002", "Nov 15, 2024"),
			inv("INV-003", "Oct 15, 2024"),
			inv("INV-004", "Sep 15, 2024"),
		},
	}
}

const (
	saveDelay   = time.Second
	savedLinger = 3 * time.Second
)

type SaveStatus string

const (
	SaveIdle   SaveStatus = ""
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
)

var ErrReadOnlyTab = errors.New("tab has nothing to save")

// SettingsPanel is the settings page state. It lives only as long as the
// visitor's view.
type SettingsPanel struct {
	now func() time.Time

	Tab           Tab           `json:"tab"`
	Profile       Profile       `json:"profile"`
	Notifications Notifications `json:"notifications"`
	Preferences   Preferences   `json:"preferences"`
	Retention     Retention     `json:"retention"`

	savedAt time.Time
}

func NewSettingsPanel(now func() time.Time) *SettingsPanel {
	if now == nil {
		now = time.Now
	}
	return &SettingsPanel{
		now:           now,
		Tab:           TabProfile,
		Notifications: Notifications{Email: true, Push: true, Analysis: true, Market: true},
		Preferences:   Preferences{Theme: "dark", Language: "en", Currency: "USD", Timezone: "UTC-5"},
		Retention:     Retention{History: "1year", Images: "30days"},
	}
}

// SeedProfile fills the profile from the signed-in name, split on the
// first space.
func (s *SettingsPanel) SeedProfile(firstName, lastName, email string) {
	s.Profile.FirstName = firstName
	s.Profile.LastName = lastName
	s.Profile.Email = email
}

func (s *SettingsPanel) SetTab(t Tab) error {
	if _, err := ParseTab(string(t)); err != nil {
		return err
	}
	s.Tab = t
	return nil
}

// Save marks the panel as saving. The status reads "saving" for a
// second, then "saved" for three more, then clears.
func (s *SettingsPanel) Save() {
	s.savedAt = s.now()
}

func (s *SettingsPanel) Status() SaveStatus {
	if s.savedAt.IsZero() {
		return SaveIdle
	}
	switch elapsed := s.now().Sub(s.savedAt); {
	case elapsed < saveDelay:
		return SaveSaving
	case elapsed < saveDelay+savedLinger:
		return SaveSaved
	}
	return SaveIdle
}

func (s *SettingsPanel) SaveProfile(p Profile) {
	s.Profile = p
	s.Save()
}

func (s *SettingsPanel) SaveNotifications(n Notifications) {
	s.Notifications = n
	s.Save()
}

func (s *SettingsPanel) SaveSecurity(sec Security) error {
	if err := sec.Validate(); err != nil {
		return err
	}
	s.Save()
	return nil
}

func (s *SettingsPanel) SavePreferences(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Preferences = p
	s.Save()
	return nil
}

func (s *SettingsPanel) SaveRetention(r Retention) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.Retention = r
	s.Save()
	return nil
}

type SettingsSnapshot struct {
	Tab           Tab           `json:"activeTab"`
	Profile       Profile       `json:"profile"`
	Notifications Notifications `json:"notifications"`
	Preferences   Preferences   `json:"preferences"`
	Retention     Retention     `json:"retention"`
	Billing       Billing       `json:"billing"`
	SaveStatus    SaveStatus    `json:"saveStatus"`
}

func (s *SettingsPanel) Snapshot() SettingsSnapshot {
	return SettingsSnapshot{
		Tab:           s.Tab,
		Profile:       s.Profile,
		Notifications: s.Notifications,
		Preferences:   s.Preferences,
		Retention:     s.Retention,
		Billing:       DemoBilling(),
		SaveStatus:    s.Status(),
	}
}
