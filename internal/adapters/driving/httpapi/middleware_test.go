package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-server/internal/logger"
)

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetJSON(true)
	t.Cleanup(func() {
		logger.SetJSON(false)
		logger.SetOutput(os.Stderr)
	})

	h := accessLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/queue/status", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/queue/status"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"method":"GET"`)
}

func TestRecoverer(t *testing.T) {
	logger.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}
