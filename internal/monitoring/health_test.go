package monitoring

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/her-voice/companion/internal/storage_manager"
	"github.com/her-voice/companion/pkg/logger"
)

func newTestLogger() logger.Logger {
	var buf bytes.Buffer
	return logger.NewLogger(logger.Config{Level: logger.DebugLevel, Format: "json", Output: &buf})
}

func TestLivenessAlwaysHealthy(t *testing.T) {
	hm := NewHealthMonitor(Config{Logger: newTestLogger()})

	rec := httptest.NewRecorder()
	hm.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadinessProbesStorage(t *testing.T) {
	hm := NewHealthMonitor(Config{
		Logger:  newTestLogger(),
		Storage: storage_manager.NewLocalFileProvider(t.TempDir()),
	})

	rec := httptest.NewRecorder()
	hm.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadinessReportsBrokenStorage(t *testing.T) {
	hm := NewHealthMonitor(Config{
		Logger: newTestLogger(),
		// A file path as base dir makes every write fail.
		Storage:          storage_manager.NewLocalFileProvider("/dev/null/not-a-dir"),
		FailureThreshold: 1,
	})

	rec := httptest.NewRecorder()
	hm.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body["status"])
}

func TestCombinedHealthEndpoint(t *testing.T) {
	hm := NewHealthMonitor(Config{
		Logger:  newTestLogger(),
		Version: "1.2.3",
		Storage: storage_manager.NewLocalFileProvider(t.TempDir()),
	})

	rec := httptest.NewRecorder()
	hm.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
}
