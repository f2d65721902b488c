package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.True(t, cfg.RateEnabled)
	assert.Equal(t, 10.0, cfg.RateRPS)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, time.Second, cfg.RetryAfter)
	assert.Equal(t, 100, cfg.WriteConcurrencyMax)
	assert.Equal(t, "users:events", cfg.EventsPrefix)
	assert.Equal(t, 24*time.Hour, cfg.EventsTTL)
	assert.True(t, cfg.EventsTrackUsers)
}

func TestReadConfig_Overrides(t *testing.T) {
	cfg, err := readConfig(env.Options{Environment: map[string]string{
		"LISTEN_ADDR":               ":9090",
		"RATE_RPS":                  "0.5",
		"RATE_BURST":                "1",
		"TRUST_XFF":                 "true",
		"WRITE_CONCURRENCY_TIMEOUT": "250ms",
		"EVENTS_TRACK_USERS":        "false",
	}})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 0.5, cfg.RateRPS)
	assert.Equal(t, 1, cfg.RateBurst)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteConcurrencyTimeout)
	assert.False(t, cfg.EventsTrackUsers)
}

func TestReadConfig_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"RATE_RPS must be > 0":               {"RATE_RPS": "0"},
		"RATE_BURST must be > 0":             {"RATE_BURST": "0"},
		"WRITE_CONCURRENCY_MAX must be >= 0": {"WRITE_CONCURRENCY_MAX": "-1"},
		"EVENTS_REDIS_ADDR is required":      {"EVENTS_REDIS_ENABLED": "true"},
	}
	for want, environ := range cases {
		_, err := readConfig(env.Options{Environment: environ})
		require.Error(t, err, want)
		assert.Contains(t, err.Error(), want)
	}

	_, err := readConfig(env.Options{Environment: map[string]string{"RATE_BURST": "many"}})
	require.Error(t, err)
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
	require.NoError(t, loadDotEnv(""))
}

func TestLoadDotEnv_SetsUnsetVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("USERSVC_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("USERSVC_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("USERSVC_TEST_DOTENV"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("USERSVC_TEST_DOTENV"))
}

func TestBuildApp_ServesAPIWithAdmission(t *testing.T) {
	cfg, err := readConfig(env.Options{Environment: map[string]string{
		"RATE_RPS":              "0.01",
		"RATE_BURST":            "3",
		"ADD_RATELIMIT_HEADERS": "true",
	}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer a.cleanup()

	send := func(method, path, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, strings.NewReader(body))
		r.RemoteAddr = "10.1.1.1:4000"
		w := httptest.NewRecorder()
		a.handler.ServeHTTP(w, r)
		return w
	}
	post := func() *httptest.ResponseRecorder {
		return send(http.MethodPost, "/api/v2/users", `{"name":"Juan Perez","email":"Juan@Email.com","age":25}`)
	}

	w := post()
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "10.1.1.1", w.Header().Get("X-RateLimit-Key"))

	w = post()
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(http.MethodGet, "/api/v2/user-stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"created":1}`, w.Body.String())

	w = post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	totals, err := a.totals.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals["created"])
	assert.Equal(t, int64(1), totals["rate_limited"])
}

func TestApp_LogTotalsSortedByOperation(t *testing.T) {
	cfg, err := readConfig(env.Options{Environment: map[string]string{"RATE_ENABLED": "false"}})
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer a.cleanup()

	for _, req := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/v2/users", `{"name":"Juan","email":"juan@email.com","age":25}`},
		{http.MethodPut, "/api/v2/users/1", `{"name":"Juan","email":"juan@email.com","age":26}`},
		{http.MethodDelete, "/api/v2/users/1", ""},
	} {
		w := httptest.NewRecorder()
		a.handler.ServeHTTP(w, httptest.NewRequest(req.method, req.path, strings.NewReader(req.body)))
		require.Less(t, w.Code, 300, req.method)
	}

	var logs bytes.Buffer
	a.logTotals(context.Background(), log.New(&logs, "", 0))
	assert.Equal(t, "event totals: created=1 deleted=1 updated=1\n", logs.String())
}

func TestBuildApp_FailsWhenRedisUnreachable(t *testing.T) {
	cfg, err := readConfig(env.Options{Environment: map[string]string{
		"EVENTS_REDIS_ENABLED": "true",
		"EVENTS_REDIS_ADDR":    "127.0.0.1:1",
	}})
	require.NoError(t, err)

	_, err = buildApp(context.Background(), cfg, log.New(io.Discard, "", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis events ping")
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, version+"\n", out.String())
}
