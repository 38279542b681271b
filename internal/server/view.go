package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/view"
)

func (s *Server) getView(c *gin.Context) {
	st := viewState(c)
	st.Lock()
	snap := st.Snapshot()
	st.Unlock()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) navigate(c *gin.Context) {
	var req struct {
		Page view.Page `json:"page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	st := viewState(c)
	st.Lock()
	from := st.Nav.Page()
	err := st.Nav.Go(req.Page)
	to := st.Nav.Page()
	snap := st.Snapshot()
	key := st.SessionID
	id := st.ID
	st.Unlock()

	// leaving the upload page drops any analysis still running
	if from == view.Upload && to != view.Upload {
		if key == "" {
			key = demoKey(id)
		}
		s.Workflows.Cancel(key)
	}

	switch {
	case errors.Is(err, view.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error(), "view": snap})
	case err != nil:
		fail(c, http.StatusBadRequest, err.Error())
	default:
		c.JSON(http.StatusOK, snap)
	}
}

func (s *Server) dismissBanner(c *gin.Context) {
	st := viewState(c)
	st.Lock()
	st.Banner.Dismiss()
	st.Unlock()
	c.Status(http.StatusNoContent)
}

// forgot runs fn against the visitor's recovery flow and replies with
// the flow, or with the validation error shown in the banner.
func (s *Server) forgot(c *gin.Context, fn func(f *view.ForgotFlow) error) {
	st := viewState(c)
	st.Lock()
	err := fn(st.Forgot)
	flow := *st.Forgot
	if err != nil {
		st.Banner.Error(err.Error())
	}
	st.Unlock()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, view.ErrStep) {
			status = http.StatusConflict
		}
		fail(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (s *Server) forgotMethod(c *gin.Context) {
	var req struct {
		Method view.Method `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	s.forgot(c, func(f *view.ForgotFlow) error { return f.SetMethod(req.Method) })
}

// forgotRequest sends the reset email for the email method. The provider
// call happens outside the view lock.
func (s *Server) forgotRequest(c *gin.Context) {
	var req struct {
		Contact string `json:"contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	st := viewState(c)
	st.Lock()
	email, err := st.Forgot.Request(req.Contact)
	if err != nil {
		st.Banner.Error(err.Error())
	}
	st.Unlock()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, view.ErrStep) {
			status = http.StatusConflict
		}
		fail(c, status, err.Error())
		return
	}

	if email != "" {
		if err := s.Identity.SendPasswordReset(c.Request.Context(), email); err != nil {
			s.providerError(c, err)
			return
		}
	}
	s.forgot(c, func(f *view.ForgotFlow) error {
		f.Sent()
		return nil
	})
	if email != "" {
		st.Lock()
		st.Banner.Success(msgResetSent)
		st.Unlock()
	}
}

func (s *Server) forgotContinue(c *gin.Context) {
	s.forgot(c, func(f *view.ForgotFlow) error { return f.Continue() })
}

func (s *Server) forgotVerify(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	s.forgot(c, func(f *view.ForgotFlow) error { return f.Verify(req.Code) })
}

func (s *Server) forgotReset(c *gin.Context) {
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	s.forgot(c, func(f *view.ForgotFlow) error { return f.Reset(req.Password, req.ConfirmPassword) })
}

func (s *Server) forgotBack(c *gin.Context) {
	s.forgot(c, func(f *view.ForgotFlow) error {
		f.Back()
		return nil
	})
}
