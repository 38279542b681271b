// Package view holds the per-visitor page state that the browser renders:
// the current page, alert banners, form validation and the settings panel.
package view

import (
	"errors"
	"fmt"
)

type Page string

const (
	Welcome   Page = "welcome"
	Login     Page = "login"
	Signup    Page = "signup"
	Forgot    Page = "forgot"
	Dashboard Page = "dashboard"
	Upload    Page = "upload"
	History   Page = "history"
	Settings  Page = "settings"
)

var ErrAuthRequired = errors.New("sign in required")

// Protected pages need a session.
func (p Page) Protected() bool {
	switch p {
	case Dashboard, Upload, History, Settings:
		return true
	}
	return false
}

func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case Welcome, Login, Signup, Forgot, Dashboard, Upload, History, Settings:
		return p, nil
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// Navigator tracks the current page. With dev navigation enabled the
// protected pages open without a session, showing the demo user.
type Navigator struct {
	page     Page
	signedIn bool
	devNav   bool
}

func NewNavigator(devNav bool) *Navigator {
	return &Navigator{page: Welcome, devNav: devNav}
}

func (n *Navigator) Page() Page { return n.page }

func (n *Navigator) SignedIn() bool { return n.signedIn }

// Go moves to p. A protected page without a session lands on the login
// page instead.
func (n *Navigator) Go(p Page) error {
	if _, err := ParsePage(string(p)); err != nil {
		return err
	}
	if p.Protected() && !n.signedIn && !n.devNav {
		n.page = Login
		return ErrAuthRequired
	}
	n.page = p
	return nil
}

// OnSignIn follows a new session to the dashboard.
func (n *Navigator) OnSignIn() {
	n.signedIn = true
	n.page = Dashboard
}

// OnSignOut returns to the welcome page.
func (n *Navigator) OnSignOut() {
	n.signedIn = false
	n.page = Welcome
}
