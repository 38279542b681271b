package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/feed"
	"github.com/rustyeddy/forexai/market"
)

func (s *Server) dashboard(c *gin.Context) *feed.Dashboard {
	return s.Dashboards.Get(currentScope(c).Key)
}

func (s *Server) getDashboard(c *gin.Context) {
	sc := currentScope(c)
	v, err := s.dashboard(c).View(c.Request.Context(), s.Journal, sc.UID)
	if err != nil {
		s.log.WithError(err).Error("dashboard view failed")
		fail(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sc.User, "demo": sc.Demo, "dashboard": v})
}

// getCandles serves one series. Symbols use "_" in paths ("EUR_USD").
func (s *Server) getCandles(c *gin.Context) {
	cs, err := s.dashboard(c).Board.Series(c.Param("symbol"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "candles": cs})
}

func (s *Server) refresh(c *gin.Context) {
	b := s.dashboard(c).Board
	b.Refresh()
	c.JSON(http.StatusOK, b.Snapshot())
}

func (s *Server) setSize(c *gin.Context) {
	var req struct {
		Maximized bool `json:"maximized"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	b := s.dashboard(c).Board
	b.SetMaximized(req.Maximized)
	c.JSON(http.StatusOK, b.Snapshot())
}

func (s *Server) setTimeframe(c *gin.Context) {
	var req struct {
		Timeframe string `json:"timeframe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	tf, err := market.ParseTimeframe(req.Timeframe)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	b := s.dashboard(c).Board
	if err := b.SetTimeframe(tf); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, b.Snapshot())
}

func (s *Server) toggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isDarkMode": s.dashboard(c).ToggleTheme()})
}

func (s *Server) toggleVolume(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"showVolume": s.dashboard(c).ToggleVolume()})
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) selectChart(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	if err := s.dashboard(c).Select(req.Symbol); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedChart": req.Symbol})
}

func (s *Server) watch(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	d := s.dashboard(c)
	if err := d.Watch(req.Symbol); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": d.Watchlist()})
}

func (s *Server) unwatch(c *gin.Context) {
	d := s.dashboard(c)
	d.Unwatch(c.Param("symbol"))
	c.JSON(http.StatusOK, gin.H{"watchlist": d.Watchlist()})
}

func (s *Server) dismissNotification(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid notification id")
		return
	}
	d := s.dashboard(c)
	d.Dismiss(id)
	c.JSON(http.StatusOK, gin.H{"notifications": d.Notifications()})
}

func (s *Server) exportDashboard(c *gin.Context) {
	now := s.Now()
	doc, err := s.dashboard(c).Export(c.Request.Context(), s.Journal, currentScope(c).UID, now)
	if err != nil {
		s.log.WithError(err).Error("dashboard export failed")
		fail(c, http.StatusInternalServerError, "Export failed")
		return
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fail(c, http.StatusInternalServerError, "Export failed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+feed.ExportName(now)+`"`)
	c.Data(http.StatusOK, "application/json", data)
}
