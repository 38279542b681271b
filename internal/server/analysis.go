package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/analysis"
	"github.com/rustyeddy/forexai/market"
	"github.com/rustyeddy/forexai/view"
)

func (s *Server) job(c *gin.Context) *analysis.Job {
	sc := currentScope(c)
	return s.Workflows.Get(sc.Key, sc.UID)
}

func (s *Server) getAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, s.job(c).Snapshot())
}

func (s *Server) analysisCatalog(c *gin.Context) {
	var pairs []string
	for _, in := range market.UploadPairs() {
		pairs = append(pairs, in.Symbol)
	}
	c.JSON(http.StatusOK, gin.H{
		"pairs":      pairs,
		"timeframes": []market.Timeframe{market.H1, market.M15, market.M5},
		"depths":     analysis.Depths(),
		"maxUpload":  s.opts.MaxUpload,
	})
}

func (s *Server) selectFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, analysis.ErrNoFile.Error())
		return
	}
	if s.opts.MaxUpload > 0 && fh.Size > s.opts.MaxUpload {
		fail(c, http.StatusRequestEntityTooLarge, analysis.ErrTooLarge.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, analysis.ErrNoFile.Error())
		return
	}
	defer f.Close()

	r := io.Reader(f)
	if s.opts.MaxUpload > 0 {
		r = io.LimitReader(f, s.opts.MaxUpload+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		fail(c, http.StatusBadRequest, analysis.ErrNoFile.Error())
		return
	}

	j := s.job(c)
	if err := j.Select(fh.Filename, data); err != nil {
		s.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, j.Snapshot())
}

func (s *Server) removeFile(c *gin.Context) {
	j := s.job(c)
	j.Remove()
	c.JSON(http.StatusOK, j.Snapshot())
}

func (s *Server) getFile(c *gin.Context) {
	ct, data, ok := s.job(c).Image()
	if !ok {
		fail(c, http.StatusNotFound, analysis.ErrNoFile.Error())
		return
	}
	c.Data(http.StatusOK, ct, data)
}

func (s *Server) setOptions(c *gin.Context) {
	opts := analysis.DefaultOptions()
	if err := c.ShouldBindJSON(&opts); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	j := s.job(c)
	if err := j.SetOptions(opts); err != nil {
		s.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, j.Snapshot())
}

// startAnalysis runs the analysis against the session's own board. The
// run outlives the request and is cancelled when the visitor leaves the
// upload page or the session ends.
func (s *Server) startAnalysis(c *gin.Context) {
	j := s.job(c)
	j.UseSource(s.dashboard(c).Board)
	if err := j.Start(context.Background()); err != nil {
		s.jobError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, j.Snapshot())
}

func (s *Server) jobError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, analysis.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, analysis.ErrNotImage):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, analysis.ErrBusy), errors.Is(err, analysis.ErrState):
		status = http.StatusConflict
	}
	s.alert(c, status, view.KindError, err.Error())
}
