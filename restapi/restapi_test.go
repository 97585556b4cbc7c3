package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"code-sourcery.de/time-elapsed/config"
	"code-sourcery.de/time-elapsed/logger"
	"code-sourcery.de/time-elapsed/metrics"
	"code-sourcery.de/time-elapsed/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[restapi]
bindIp = 127.0.0.1
port = 8080
user = alice
password = secret

[elapsed]
defaultUnit = days
timezone = UTC

[thresholds]
trial = 4 weeks
anniversary = 1 year
`

type testServer struct {
	router      *gin.Engine
	applyConfig func(*config.Config)
	metrics     *metrics.Metrics
}

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.LoadConfigFromBytes([]byte(testConfig))
	require.NoError(t, err)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	router, applyConfig := NewRouter(cfg, m, registry, limiter)
	return &testServer{router: router, applyConfig: applyConfig, metrics: m}
}

func (s *testServer) do(method string, path string, body string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.SetBasicAuth("alice", "secret")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), w.Body.String())
	return result
}

func TestCheckElapsedWithTimestamps(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/elapsed", `{"start":"2016-01-01","end":"2016-12-31","amount":11,"unit":"Months"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["elapsed"])
	assert.Equal(t, 11.0, body["actual"])
	assert.Equal(t, "months", body["unit"])
	assert.Equal(t, "P11M30D", body["interval"])
	assert.Equal(t, 365.0, body["total_days"])
	assert.NotEmpty(t, body["request_id"])
	assert.Equal(t, body["request_id"], w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodPost, "/elapsed", `{"start":"2016-01-01","end":"2016-12-31","amount":"12","unit":"months"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["elapsed"])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ChecksTotal.WithLabelValues("months", "elapsed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ChecksTotal.WithLabelValues("months", "not_elapsed")))
}

func TestCheckElapsedWithIntervalAndDefaultUnit(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/elapsed", `{"interval":{"days":30,"total_days":30},"amount":30}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["elapsed"])
	assert.Equal(t, "days", body["unit"])

	w = s.do(http.MethodPost, "/elapsed", `{"interval":{"days":30,"total_days":30},"amount":5,"unit":"weeks"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["elapsed"])
	assert.Equal(t, 4.0, decode(t, w)["actual"])
}

func TestCheckElapsedErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   float64
	}{
		{"no interval", `{"amount":1,"unit":"days"}`, http.StatusUnprocessableEntity, 20000},
		{"inverted interval", `{"start":"2016-12-31","end":"2016-01-01","amount":1}`, http.StatusUnprocessableEntity, 10000},
		{"inverted interval object", `{"interval":{"total_days":3,"inverted":true},"amount":1}`, http.StatusUnprocessableEntity, 10000},
		{"non numeric amount", `{"start":"2016-01-01","end":"2016-12-31","amount":"kittens","unit":"year"}`, http.StatusUnprocessableEntity, 30000},
		{"missing amount", `{"start":"2016-01-01","end":"2016-12-31"}`, http.StatusUnprocessableEntity, 30000},
		{"zero amount", `{"start":"2016-01-01","end":"2016-12-31","amount":0,"unit":"year"}`, http.StatusBadRequest, 40000},
		{"negative amount", `{"start":"2016-01-01","end":"2016-12-31","amount":-1,"unit":"kittens"}`, http.StatusBadRequest, 40000},
		{"unknown unit", `{"start":"2016-01-01","end":"2016-12-31","amount":1,"unit":"kittens"}`, http.StatusBadRequest, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/elapsed", tt.body, true)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}

	assert.Equal(t, 5.0, testutil.ToFloat64(s.metrics.CheckErrors.WithLabelValues("logic")))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.CheckErrors.WithLabelValues("value")))
}

func TestEmptyBodyReportsMissingInterval(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/elapsed", "/thresholds/trial"} {
		w := s.do(http.MethodPost, path, "", true)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, path)
		body := decode(t, w)
		assert.Equal(t, 20000.0, body["code"], path)
		assert.Equal(t, "logic", body["kind"], path)
	}
}

func TestIntervalObjectOutOfRange(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{
		`{"interval":{"total_days":1125899906842624},"amount":1,"unit":"seconds"}`,
		`{"interval":{"days":-1,"total_days":3},"amount":1}`,
		`{"interval":{"hours":-2},"amount":1,"unit":"hours"}`,
	} {
		w := s.do(http.MethodPost, "/elapsed", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		result := decode(t, w)
		assert.NotContains(t, result, "code", body)
		assert.Contains(t, result["error"], "Invalid interval field", body)
	}
}

func TestMalformedRequests(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{
		`not json`,
		`{"start":"2016-01-01","amount":1}`,
		`{"start":"yesterday","end":"today","amount":1}`,
	} {
		w := s.do(http.MethodPost, "/elapsed", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.NotContains(t, decode(t, w), "code", body)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/units", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = s.do(http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnits(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/units", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["units"], 14)
	assert.Equal(t, "days", body["default"])
}

func TestThresholds(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/thresholds", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	thresholds := decode(t, w)["thresholds"].([]any)
	require.Len(t, thresholds, 2)
	assert.Equal(t, "trial", thresholds[0].(map[string]any)["name"])
	assert.Equal(t, "weeks", thresholds[0].(map[string]any)["unit"])

	w = s.do(http.MethodPost, "/thresholds/trial", `{"start":"2016-01-01","end":"2016-02-01"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["elapsed"])
	assert.Equal(t, "trial", body["threshold"])

	w = s.do(http.MethodPost, "/thresholds/anniversary", `{"start":"2016-01-01","end":"2016-12-31"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["elapsed"])

	w = s.do(http.MethodPost, "/thresholds/anniversary", `{}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/thresholds/missing", `{"start":"2016-01-01","end":"2016-02-01"}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigReloadIsApplied(t *testing.T) {
	defer logger.SetLogLevel(logger.GetLogLevel())
	s := newTestServer(t, nil)
	defer config.OnReload(s.applyConfig)()

	w := s.do(http.MethodPost, "/elapsed", `{"start":"2016-01-01","end":"2016-02-01","amount":5}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "days", decode(t, w)["unit"])
	assert.Equal(t, true, decode(t, w)["elapsed"])
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/thresholds/probation", `{}`, true).Code)

	reloaded := strings.NewReplacer(
		"defaultUnit = days", "defaultUnit = weeks",
		"anniversary = 1 year", "probation = 6 months",
	).Replace(testConfig)
	path := filepath.Join(t.TempDir(), "elapsed.conf")
	require.NoError(t, os.WriteFile(path, []byte(reloaded), 0600))
	require.NoError(t, config.Reload(path))

	w = s.do(http.MethodGet, "/thresholds", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	thresholds := decode(t, w)["thresholds"].([]any)
	require.Len(t, thresholds, 2)
	assert.Equal(t, "trial", thresholds[0].(map[string]any)["name"])
	assert.Equal(t, "probation", thresholds[1].(map[string]any)["name"])

	w = s.do(http.MethodPost, "/thresholds/anniversary", `{}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/elapsed", `{"start":"2016-01-01","end":"2016-02-01","amount":5}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "weeks", body["unit"])
	assert.Equal(t, 4.0, body["actual"])
	assert.Equal(t, false, body["elapsed"])
}

func TestRouterWithoutReloadRegistrationKeepsConfig(t *testing.T) {
	defer logger.SetLogLevel(logger.GetLogLevel())
	s := newTestServer(t, nil)

	reloaded := strings.Replace(testConfig, "defaultUnit = days", "defaultUnit = weeks", 1)
	path := filepath.Join(t.TempDir(), "elapsed.conf")
	require.NoError(t, os.WriteFile(path, []byte(reloaded), 0600))
	require.NoError(t, config.Reload(path))

	w := s.do(http.MethodGet, "/units", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "days", decode(t, w)["default"])
}

func TestRequestIdIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	limit, err := ratelimit.Parse("2/1h")
	require.NoError(t, err)
	s := newTestServer(t, ratelimit.NewLimiter(limit))

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/units", "", true).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/units", "", true).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/units", "", true).Code)
	// health checks are not limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", false).Code)
}
