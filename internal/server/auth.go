package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/identity"
	"github.com/rustyeddy/forexai/view"
)

const (
	msgSignedUp      = "Account created successfully! Welcome to ForexAI Pro!"
	msgSignedIn      = "Welcome back! Signing you in..."
	msgFederated     = "Google sign in successful!"
	msgResetSent     = "Password reset email sent! Check your inbox."
	msgSignedOut     = "Signed out successfully"
	msgSignOutFailed = "Failed to sign out"
	msgInvalidData   = "Invalid data"
)

type signupRequest struct {
	view.SignupForm
	Method string `json:"method"`
}

func (s *Server) signUp(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	if req.Method == "google" {
		s.formError(c, errors.New("use federated sign-in for Google accounts"))
		return
	}
	if err := req.Validate(); err != nil {
		s.formError(c, err)
		return
	}
	u, err := s.Identity.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName())
	if err != nil {
		s.providerError(c, err)
		return
	}
	s.startSession(c, u, http.StatusCreated, msgSignedUp)
}

func (s *Server) signIn(c *gin.Context) {
	var form view.LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	if err := form.Validate(); err != nil {
		s.formError(c, err)
		return
	}
	u, err := s.Identity.SignIn(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		s.providerError(c, err)
		return
	}
	s.startSession(c, u, http.StatusOK, msgSignedIn)
}

// federatedRequest carries either the popup's credential or the error
// code the browser got when the popup failed.
type federatedRequest struct {
	Credential identity.IdPCredential `json:"credential"`
	Error      string                 `json:"error"`
}

func (s *Server) federated(c *gin.Context) {
	var req federatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	if req.Error != "" {
		s.providerError(c, identity.ErrorFromCode(req.Error))
		return
	}
	if req.Credential.IDToken == "" && req.Credential.AccessToken == "" {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	u, err := s.Identity.SignInWithIdP(c.Request.Context(), req.Credential)
	if err != nil {
		s.providerError(c, err)
		return
	}
	s.startSession(c, u, http.StatusOK, msgFederated)
}

func (s *Server) sendReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	if req.Email == "" {
		s.formError(c, view.ErrEmailRequired)
		return
	}
	if err := s.Identity.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		s.providerError(c, err)
		return
	}
	s.success(c, http.StatusOK, msgResetSent)
}

func (s *Server) signOut(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		s.clearSessionCookie(c)
		s.success(c, http.StatusOK, msgSignedOut)
		return
	}
	ctx := c.Request.Context()
	if err := s.Identity.SignOut(ctx, sess.IDToken); err != nil {
		s.log.WithError(err).Warn("provider sign-out failed")
		s.alert(c, http.StatusBadGateway, view.KindError, msgSignOutFailed)
		return
	}
	// the session manager's event moves every view of this session to
	// the welcome page
	if err := s.Sessions.Close(ctx, sess.ID); err != nil {
		s.log.WithError(err).Warn("close session failed")
	}
	s.clearSessionCookie(c)
	s.success(c, http.StatusOK, msgSignedOut)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.DisplayName == "" {
		fail(c, http.StatusBadRequest, msgInvalidData)
		return
	}
	sess, _ := currentSession(c)
	u, err := s.Identity.UpdateProfile(c.Request.Context(), sess.IDToken, req.DisplayName)
	if err != nil {
		s.providerError(c, err)
		return
	}
	sess, err = s.Sessions.Replace(c.Request.Context(), sess.ID, u)
	if err != nil {
		fail(c, http.StatusInternalServerError, identity.GenericMessage)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Projection()})
}

func (s *Server) currentSession(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Projection(), "expiresAt": sess.ExpiresAt})
}

func (s *Server) startSession(c *gin.Context, u identity.User, status int, msg string) {
	sess, err := s.Sessions.Open(c.Request.Context(), u)
	if err != nil {
		s.log.WithError(err).Error("open session failed")
		s.alert(c, http.StatusInternalServerError, view.KindError, identity.GenericMessage)
		return
	}
	if err := s.setSessionCookie(c, sess); err != nil {
		s.log.WithError(err).Error("issue session token failed")
		s.alert(c, http.StatusInternalServerError, view.KindError, identity.GenericMessage)
		return
	}

	st := viewState(c)
	st.Lock()
	st.SignedIn(sess.ID, sess.FirstName(), sess.LastName(), sess.Email)
	st.Banner.Success(msg)
	snap := st.Snapshot()
	st.Unlock()

	s.log.WithField("uid", sess.UID).Info("signed in")
	c.JSON(status, gin.H{"message": msg, "session": sess.Projection(), "view": snap})
}

// formError reports a validation failure without calling the provider.
func (s *Server) formError(c *gin.Context, err error) {
	s.alert(c, http.StatusBadRequest, view.KindError, err.Error())
}

// providerError maps a provider failure to its fixed message.
func (s *Server) providerError(c *gin.Context, err error) {
	code := identity.Code(err)
	if code == identity.CodeInternal || code == "" {
		s.log.WithError(err).Warn("identity provider failure")
	}
	s.alert(c, providerStatus(code), view.KindError, identity.MessageFor(err))
}

func providerStatus(code string) int {
	switch code {
	case identity.CodeUserNotFound, identity.CodeWrongPassword, identity.CodeInvalidCredential, identity.CodeInvalidToken:
		return http.StatusUnauthorized
	case identity.CodeEmailInUse:
		return http.StatusConflict
	case identity.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case identity.CodeInternal, "":
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) success(c *gin.Context, status int, msg string) {
	st := viewState(c)
	st.Lock()
	st.Banner.Success(msg)
	st.Unlock()
	c.JSON(status, gin.H{"message": msg})
}

// alert shows msg in the visitor's banner and aborts with it.
func (s *Server) alert(c *gin.Context, status int, kind view.Kind, msg string) {
	st := viewState(c)
	st.Lock()
	if kind == view.KindError {
		st.Banner.Error(msg)
	} else {
		st.Banner.Success(msg)
	}
	st.Unlock()
	fail(c, status, msg)
}
