package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/forexai/config"
	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/market"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seededDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	j, err := journal.NewSQLite(path)
	require.NoError(t, err)
	_, err = j.Seed(context.Background())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "forexai version "+version+"\n", out)
}

func TestConfigInitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forexai.yaml")

	out, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Sessions: memory store, ttl 7d")

	_, err = run(t, "config", "validate")
	assert.Error(t, err, "file flag is required")
}

func TestConfigValidateRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	cfg := config.Default()
	cfg.Session.Store = "disk"
	require.NoError(t, cfg.SaveToFile(path))

	_, err := run(t, "config", "validate", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.store")
}

func TestHistoryList(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "history", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "demo-1")
	assert.Contains(t, out, "6 analyses, 75% win rate, total profit 660.00")

	out, err = run(t, "history", "list", "--db", db, "--status", "stopped")
	require.NoError(t, err)
	assert.Contains(t, out, "USD/CAD")
	assert.NotContains(t, out, "EUR/USD")

	_, err = run(t, "history", "list", "--db", db, "--sort", "volume")
	assert.Error(t, err)
}

func TestHistoryShow(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "history", "show", "demo-2", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "** Analysis: GBP/USD SELL (demo-2)")

	_, err = run(t, "history", "show", "nope", "--db", db)
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestHistoryExport(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "history", "export", "--db", db, "-o", "-", "--search", "eur")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3, "header plus EUR/USD and EUR/GBP")

	path := filepath.Join(t.TempDir(), "out.csv")
	out, err = run(t, "history", "export", "--db", db, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 6 analyses")
}

func TestCandles(t *testing.T) {
	out, err := run(t, "candles", "EUR_USD", "-n", "5", "--seed", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "EUR/USD", lines[0])
	assert.Equal(t, "Change", strings.Fields(lines[1])[5])
	row := strings.Fields(lines[2])
	require.Len(t, row, 8)
	assert.Regexp(t, `^[+-]\d+\.\d{4}$`, row[6])

	out, err = run(t, "candles", "AAPL", "-n", "4", "-t", "15m", "--seed", "3", "--json")
	require.NoError(t, err)
	var cs []market.Candle
	require.NoError(t, json.Unmarshal([]byte(out), &cs))
	require.Len(t, cs, 4)
	for _, c := range cs {
		assert.True(t, c.Valid())
	}
	assert.Equal(t, market.M15.Step(), cs[1].Time.Sub(cs[0].Time))

	_, err = run(t, "candles", "DOGE")
	assert.Error(t, err)
	_, err = run(t, "candles", "EUR_USD", "-t", "4H")
	assert.Error(t, err)
}

func TestBuildWiresService(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.DBPath = filepath.Join(t.TempDir(), "forexai.db")
	cfg.Identity.BcryptCost = bcrypt.MinCost

	log := logrus.New()
	log.SetOutput(io.Discard)

	a, err := build(context.Background(), cfg, log)
	require.NoError(t, err)
	defer a.Close()

	n, err := a.journal.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(journal.Demo()), n)
	require.NotNil(t, a.memory)
	assert.Len(t, a.scheduler.Cron.Entries(), 3)

	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	a.sweep()
}

func TestBuildRejectsBadJournal(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "forexai.db")

	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := build(context.Background(), cfg, log)
	assert.Error(t, err)
}
