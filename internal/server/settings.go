package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/view"
)

func (s *Server) settingsReply(c *gin.Context, st *view.State) {
	snap := st.Settings.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"settings": snap,
		"options": gin.H{
			"tabs":             view.Tabs,
			"themes":           view.Themes,
			"languages":        view.Languages,
			"currencies":       view.Currencies,
			"timezones":        view.Timezones,
			"historyRetention": view.HistoryRetention,
			"imageRetention":   view.ImageRetention,
		},
	})
}

// getSettings seeds the profile from the demo user when dev navigation
// opened the page without a session.
func (s *Server) getSettings(c *gin.Context) {
	st := viewState(c)
	st.Lock()
	defer st.Unlock()
	if sc := currentScope(c); sc.Demo && st.Settings.Profile.Email == "" {
		st.Settings.SeedProfile(sc.User.FirstName, "", sc.User.Email)
	}
	s.settingsReply(c, st)
}

func (s *Server) setSettingsTab(c *gin.Context) {
	var req struct {
		Tab view.Tab `json:"tab"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	st := viewState(c)
	st.Lock()
	defer st.Unlock()
	if err := st.Settings.SetTab(req.Tab); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.settingsReply(c, st)
}

// saveSettings saves one tab. Only the session's view keeps the result.
func (s *Server) saveSettings(c *gin.Context) {
	tab, err := view.ParseTab(c.Param("tab"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}

	st := viewState(c)
	st.Lock()
	defer st.Unlock()
	panel := st.Settings

	invalid := errors.New(msgInvalidData)
	bind := func(v any) bool {
		if c.ShouldBindJSON(v) != nil {
			err = invalid
			return false
		}
		return true
	}

	switch tab {
	case view.TabProfile:
		var p view.Profile
		if bind(&p) {
			panel.SaveProfile(p)
		}
	case view.TabNotifications:
		var n view.Notifications
		if bind(&n) {
			panel.SaveNotifications(n)
		}
	case view.TabSecurity:
		var sec view.Security
		if bind(&sec) {
			err = panel.SaveSecurity(sec)
		}
	case view.TabPreferences:
		var p view.Preferences
		if bind(&p) {
			err = panel.SavePreferences(p)
		}
	case view.TabData:
		var r view.Retention
		if bind(&r) {
			err = panel.SaveRetention(r)
		}
	default:
		err = view.ErrReadOnlyTab
	}
	if err != nil {
		st.Banner.Error(err.Error())
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	panel.Tab = tab
	s.settingsReply(c, st)
}
