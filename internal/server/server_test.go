package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rustyeddy/forexai/analysis"
	"github.com/rustyeddy/forexai/feed"
	"github.com/rustyeddy/forexai/identity"
	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/market/synth"
	"github.com/rustyeddy/forexai/session"
	"github.com/rustyeddy/forexai/view"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	srv   *Server
	ts    *httptest.Server
	hc    *http.Client
	idp   *identity.Local
	clk   *testClock
	store *session.MemoryStore
}

func newHarness(t *testing.T, devNav bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	_, err = j.Seed(context.Background())
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	gen := synth.NewGenerator(11)
	cfg := analysis.DefaultConfig()
	cfg.Delays = map[analysis.Depth]time.Duration{}
	runner := analysis.NewRunner(analysis.SynthSource{Gen: gen}, j, cfg, log.WithField("test", true))

	idp := identity.NewLocal(bcrypt.MinCost)
	clk := &testClock{t: time.Now()}
	store := session.NewMemoryStore(clk.Now)
	srv := New(Deps{
		Identity:   idp,
		Sessions:   session.NewManager(store, time.Hour, clk.Now),
		Tokens:     session.NewTokens("test-secret-0123456789", "forexai"),
		Journal:    j,
		Views:      view.NewStates(devNav, nil),
		Dashboards: feed.NewDashboards(gen, nil),
		Workflows:  analysis.NewWorkflows(runner),
		Log:        log,
	}, Options{DevNav: devNav, SessionTTL: time.Hour, MaxUpload: cfg.MaxUpload})
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{srv: srv, ts: ts, hc: &http.Client{Jar: jar}, idp: idp, clk: clk, store: store}
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (h *harness) signUp(t *testing.T) {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/auth/signup", map[string]any{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           "ada@example.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
		"agreeToTerms":    true,
		"method":          "email",
	})
	require.Equal(t, http.StatusCreated, status, body)
}

func alertMessage(t *testing.T, v map[string]any) string {
	t.Helper()
	a, ok := v["alert"].(map[string]any)
	require.True(t, ok, "no alert in %v", v)
	return a["message"].(string)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)
	status, body := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedNeedsSession(t *testing.T) {
	h := newHarness(t, false)
	status, body := h.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "sign in required", body["message"])

	status, body = h.do(t, http.MethodPost, "/api/view/navigate", map[string]any{"page": "history"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "login", body["view"].(map[string]any)["page"])
}

func TestSignupValidationSkipsProvider(t *testing.T) {
	h := newHarness(t, false)
	status, body := h.do(t, http.MethodPost, "/auth/signup", map[string]any{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           "ada@example.com",
		"password":        "secret1",
		"confirmPassword": "secret2",
		"agreeToTerms":    true,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Passwords do not match", body["message"])

	_, v := h.do(t, http.MethodGet, "/api/view", nil)
	assert.Equal(t, "Passwords do not match", alertMessage(t, v))

	for _, pw := range []string{"abc", "ééé"} {
		status, body = h.do(t, http.MethodPost, "/auth/signup", map[string]any{
			"firstName":       "Ada",
			"lastName":        "Lovelace",
			"email":           "ada@example.com",
			"password":        pw,
			"confirmPassword": pw,
			"agreeToTerms":    true,
		})
		assert.Equal(t, http.StatusBadRequest, status, pw)
		assert.Equal(t, "Password must be at least 6 characters", body["message"], pw)
	}

	_, err := h.idp.SignIn(context.Background(), "ada@example.com", "secret1")
	assert.Equal(t, identity.CodeUserNotFound, identity.Code(err))
	_, err = h.idp.SignIn(context.Background(), "ada@example.com", "ééé")
	assert.Equal(t, identity.CodeUserNotFound, identity.Code(err))
}

func TestSignUpSignOut(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	status, body := h.do(t, http.MethodGet, "/auth/session", nil)
	require.Equal(t, http.StatusOK, status)
	sess := body["session"].(map[string]any)
	assert.Equal(t, "Ada Lovelace", sess["displayName"])
	assert.Equal(t, "A", sess["initial"])

	_, v := h.do(t, http.MethodGet, "/api/view", nil)
	assert.Equal(t, "dashboard", v["page"])
	assert.Equal(t, "Account created successfully! Welcome to ForexAI Pro!", alertMessage(t, v))

	status, _ = h.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Signed out successfully", body["message"])

	_, v = h.do(t, http.MethodGet, "/api/view", nil)
	assert.Equal(t, "welcome", v["page"])
	assert.Equal(t, false, v["signedIn"])

	status, _ = h.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Zero(t, h.srv.Dashboards.Len())
}

func TestSignInErrors(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)
	h.do(t, http.MethodPost, "/auth/logout", nil)

	status, body := h.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please fill in all fields", body["message"])

	status, body = h.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "ada@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect password", body["message"])

	status, body = h.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "bob@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No account found with this email address", body["message"])

	status, body = h.do(t, http.MethodPost, "/auth/federated", map[string]any{"error": identity.CodePopupClosed})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Sign-in popup was closed before completion", body["message"])

	status, body = h.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "ada@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Welcome back! Signing you in...", body["message"])
}

func TestFederatedSignIn(t *testing.T) {
	h := newHarness(t, false)
	status, body := h.do(t, http.MethodPost, "/auth/federated", map[string]any{
		"credential": map[string]any{"providerId": "google.com", "idToken": "grace@example.com"},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Google sign in successful!", body["message"])
}

func TestForgotFlow(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)
	h.do(t, http.MethodPost, "/auth/logout", nil)

	status, body := h.do(t, http.MethodPost, "/api/forgot/request", map[string]any{"contact": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter your email address", body["message"])

	status, body = h.do(t, http.MethodPost, "/api/forgot/request", map[string]any{"contact": "ada@example.com"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "sent", body["step"])
	assert.True(t, h.idp.ResetRequested("ada@example.com"))

	_, v := h.do(t, http.MethodGet, "/api/view", nil)
	assert.Equal(t, "Password reset email sent! Check your inbox.", alertMessage(t, v))

	_, body = h.do(t, http.MethodPost, "/api/forgot/continue", nil)
	assert.Equal(t, "verify", body["step"])
	status, _ = h.do(t, http.MethodPost, "/api/forgot/verify", map[string]any{"code": "12"})
	assert.Equal(t, http.StatusBadRequest, status)
	_, body = h.do(t, http.MethodPost, "/api/forgot/verify", map[string]any{"code": "123456"})
	assert.Equal(t, "reset", body["step"])
	_, body = h.do(t, http.MethodPost, "/api/forgot/back", nil)
	assert.Equal(t, "verify", body["step"])
	status, _ = h.do(t, http.MethodPost, "/api/forgot/reset", map[string]any{"password": "a", "confirmPassword": "a"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestDashboardEndpoints(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	status, body := h.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	dash := body["dashboard"].(map[string]any)
	assert.Len(t, dash["marketData"], 12)
	assert.Len(t, dash["recentAnalyses"], feed.RecentCount)

	status, body = h.do(t, http.MethodGet, "/api/candles/EUR_USD", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["candles"], feed.CompactSize)

	status, _ = h.do(t, http.MethodGet, "/api/candles/DOGE", nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, body = h.do(t, http.MethodPost, "/api/dashboard/size", map[string]any{"maximized": true})
	assert.Equal(t, true, body["maximized"])
	status, _ = h.do(t, http.MethodPost, "/api/dashboard/timeframe", map[string]any{"timeframe": "4H"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = h.do(t, http.MethodPost, "/api/dashboard/watchlist", map[string]any{"symbol": "NVDA"})
	assert.Equal(t, []any{"EUR/USD", "GBP/USD", "AAPL", "NVDA"}, body["watchlist"])
	_, body = h.do(t, http.MethodDelete, "/api/dashboard/watchlist/EUR_USD", nil)
	assert.Equal(t, []any{"GBP/USD", "AAPL", "NVDA"}, body["watchlist"])
	_, body = h.do(t, http.MethodDelete, "/api/dashboard/notifications/1", nil)
	assert.Len(t, body["notifications"], 2)
	_, body = h.do(t, http.MethodPost, "/api/dashboard/theme", nil)
	assert.Equal(t, false, body["isDarkMode"])

	resp, err := h.hc.Get(h.ts.URL + "/api/dashboard/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "trading_data_")
}

func TestAnalysisFlow(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	status, _ := h.do(t, http.MethodPost, "/api/analysis/start", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "chart.png")
	require.NoError(t, err)
	_, err = fw.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err := h.hc.Post(h.ts.URL+"/api/analysis/file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := h.do(t, http.MethodPut, "/api/analysis/options", map[string]any{"pair": "GBP/USD", "timeframe": "1H", "depth": "quick"})
	require.Equal(t, http.StatusOK, status, body)
	status, _ = h.do(t, http.MethodPut, "/api/analysis/options", map[string]any{"pair": "AAPL", "timeframe": "1H", "depth": "quick"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodPost, "/api/analysis/start", nil)
	require.Equal(t, http.StatusAccepted, status)

	require.Eventually(t, func() bool {
		_, snap := h.do(t, http.MethodGet, "/api/analysis", nil)
		return snap["state"] == string(analysis.Complete)
	}, 5*time.Second, 20*time.Millisecond)

	_, snap := h.do(t, http.MethodGet, "/api/analysis", nil)
	res := snap["result"].(map[string]any)
	assert.Equal(t, "GBP/USD", res["pair"])

	// the history entry is written just after the job completes
	var newest map[string]any
	require.Eventually(t, func() bool {
		_, body := h.do(t, http.MethodGet, "/api/history?search=gbp", nil)
		recs := body["analyses"].([]any)
		newest = recs[0].(map[string]any)
		return !strings.HasPrefix(newest["id"].(string), "demo-")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "GBP/USD", newest["pair"])
	assert.Equal(t, "chart.png", newest["image"])
	id := newest["id"].(string)

	status, _ = h.do(t, http.MethodDelete, "/api/history/demo-1", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(t, http.MethodDelete, "/api/history/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = h.do(t, http.MethodGet, "/api/history/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("just some text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := h.hc.Post(h.ts.URL+"/api/analysis/file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestHistoryExport(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	resp, err := h.hc.Get(h.ts.URL + "/api/history/export?status=completed")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 5)

	status, _ := h.do(t, http.MethodGet, "/api/history?sort=volume", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSettings(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	_, body := h.do(t, http.MethodGet, "/api/settings", nil)
	settings := body["settings"].(map[string]any)
	assert.Equal(t, "Ada", settings["profile"].(map[string]any)["firstName"])
	assert.Equal(t, "Lovelace", settings["profile"].(map[string]any)["lastName"])

	status, _ := h.do(t, http.MethodPut, "/api/settings/preferences", map[string]any{"theme": "neon", "language": "en", "currency": "USD", "timezone": "UTC-5"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = h.do(t, http.MethodPut, "/api/settings/preferences", map[string]any{"theme": "light", "language": "fr", "currency": "EUR", "timezone": "UTC+1"})
	require.Equal(t, http.StatusOK, status)
	settings = body["settings"].(map[string]any)
	assert.Equal(t, "saving", settings["saveStatus"])
	assert.Equal(t, "preferences", settings["activeTab"])

	status, _ = h.do(t, http.MethodPut, "/api/settings/billing", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = h.do(t, http.MethodPut, "/api/settings/admin", map[string]any{})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDevNavigation(t *testing.T) {
	h := newHarness(t, true)

	status, body := h.do(t, http.MethodPost, "/api/view/navigate", map[string]any{"page": "dashboard"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Demo Trader", body["demoUser"].(map[string]any)["displayName"])

	status, body = h.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["demo"])
	assert.Equal(t, "Demo Trader", body["user"].(map[string]any)["displayName"])

	status, _ = h.do(t, http.MethodPut, "/auth/profile", map[string]any{"displayName": "X"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWebsocketStream(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)

	u := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
	hdr := http.Header{}
	base, err := http.NewRequest(http.MethodGet, h.ts.URL, nil)
	require.NoError(t, err)
	for _, ck := range h.hc.Jar.Cookies(base.URL) {
		hdr.Add("Cookie", ck.String())
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u, hdr)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return h.srv.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	h.srv.Dashboards.SlideCandles()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u1 feed.Update
	require.NoError(t, conn.ReadJSON(&u1))
	assert.Equal(t, feed.CandleUpdate, u1.Kind)
	require.NotNil(t, u1.Candle)

	h.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Eventually(t, func() bool { return h.srv.hub.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestClientFilter(t *testing.T) {
	c := &Client{hub: NewHub(logrus.NewEntry(logrus.New())), symbols: map[string]bool{}}
	assert.True(t, c.wants("AAPL"))

	c.handleMessage(WSMessage{Type: "subscribe", Symbols: []string{"eur_usd", "GBP/JPY", "DOGE"}})
	assert.True(t, c.wants("EUR/USD"))
	assert.False(t, c.wants("AAPL"))
	assert.False(t, c.wants("GBP/JPY"))
	assert.True(t, c.wants(""), "resets go to everyone")

	c.handleMessage(WSMessage{Type: "unsubscribe", Symbols: []string{"EUR/USD"}})
	assert.True(t, c.wants("AAPL"))
}

func TestSweepVisitors(t *testing.T) {
	h := newHarness(t, true)
	status, _ := h.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, h.srv.Dashboards.Len())

	assert.Zero(t, h.srv.SweepVisitors(time.Hour))
	assert.Equal(t, 1, h.srv.SweepVisitors(-time.Second))
	assert.Zero(t, h.srv.Dashboards.Len())
	assert.Zero(t, h.srv.Views.Len())
}

func TestExpiredSessionLosesDashboard(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)
	status, _ := h.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, h.srv.Dashboards.Len())

	h.clk.Advance(2 * time.Hour)
	status, _ = h.do(t, http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, status)

	// the read dropped the session, so a sweep has nothing left to report
	assert.Empty(t, h.store.Sweep())
	assert.Zero(t, h.srv.Dashboards.Len())
	assert.Zero(t, h.srv.Workflows.Len())

	status, _ = h.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSweepSessionsDropsEvicted(t *testing.T) {
	h := newHarness(t, false)
	h.signUp(t)
	status, _ := h.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, h.srv.Dashboards.Len())

	assert.Zero(t, h.srv.SweepSessions(context.Background()))
	assert.Equal(t, 1, h.srv.Dashboards.Len())

	// a store that forgets the key on its own, as Redis does on TTL
	for _, id := range h.srv.Dashboards.Keys() {
		require.NoError(t, h.store.Delete(context.Background(), id))
	}
	assert.Equal(t, 1, h.srv.SweepSessions(context.Background()))
	assert.Zero(t, h.srv.Dashboards.Len())
}
