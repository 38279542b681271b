package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/journal"
)

func (s *Server) historyQuery(c *gin.Context) (journal.Query, error) {
	sort, err := journal.ParseSort(c.Query("sort"))
	if err != nil {
		return journal.Query{}, err
	}
	status, err := journal.ParseStatus(c.Query("status"))
	if err != nil {
		return journal.Query{}, err
	}
	return journal.Query{
		UID:    currentScope(c).UID,
		Search: c.Query("search"),
		Status: status,
		Sort:   sort,
	}, nil
}

func (s *Server) listHistory(c *gin.Context) {
	q, err := s.historyQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	recs, err := s.Journal.List(ctx, q)
	if err != nil {
		s.log.WithError(err).Error("list history failed")
		fail(c, http.StatusInternalServerError, "Failed to load history")
		return
	}
	stats, err := s.Journal.Stats(ctx, q.UID)
	if err != nil {
		s.log.WithError(err).Error("history stats failed")
		fail(c, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if recs == nil {
		recs = []journal.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": recs, "stats": stats})
}

// ownRecord loads a record the caller may see: their own or the shared
// demo history.
func (s *Server) ownRecord(c *gin.Context) (journal.Record, bool) {
	rec, err := s.Journal.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		fail(c, http.StatusNotFound, err.Error())
		return journal.Record{}, false
	}
	if err != nil {
		s.log.WithError(err).Error("get history failed")
		fail(c, http.StatusInternalServerError, "Failed to load analysis")
		return journal.Record{}, false
	}
	if rec.UID != "" && rec.UID != currentScope(c).UID {
		fail(c, http.StatusNotFound, journal.ErrNotFound.Error())
		return journal.Record{}, false
	}
	return rec, true
}

func (s *Server) getHistory(c *gin.Context) {
	if rec, ok := s.ownRecord(c); ok {
		c.JSON(http.StatusOK, rec)
	}
}

// deleteHistory removes one of the caller's analyses. The shared demo
// history is read-only.
func (s *Server) deleteHistory(c *gin.Context) {
	rec, ok := s.ownRecord(c)
	if !ok {
		return
	}
	if rec.UID == "" {
		fail(c, http.StatusForbidden, "Demo analyses cannot be deleted")
		return
	}
	if err := s.Journal.Delete(c.Request.Context(), rec.ID); err != nil {
		s.log.WithError(err).Error("delete history failed")
		fail(c, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exportHistory(c *gin.Context) {
	q, err := s.historyQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.Journal.List(c.Request.Context(), q)
	if err != nil {
		s.log.WithError(err).Error("export history failed")
		fail(c, http.StatusInternalServerError, "Export failed")
		return
	}
	name := "trading_history_" + s.Now().UTC().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := journal.WriteCSV(c.Writer, recs); err != nil {
		s.log.WithError(err).Warn("write csv failed")
	}
}
