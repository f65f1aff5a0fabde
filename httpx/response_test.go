package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestErrorBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/subtotals/9", nil)
	w := httptest.NewRecorder()
	Error(w, r, http.StatusUnprocessableEntity, "in_use", "El elemento está en uso", map[string]string{"field": "B5"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "in_use", body.Code)
	assert.Equal(t, "El elemento está en uso", body.Message)
	assert.Equal(t, map[string]any{"field": "B5"}, body.Details)
}

func TestJSONNilPayload(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, nil)
	assert.Equal(t, "null", w.Body.String())
}

func TestJSONLogsWriteFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := WithLogger(httptest.NewRequest(http.MethodGet, "/api/templates", nil), log)

	JSON(brokenWriter{httptest.NewRecorder()}, r, http.StatusOK, map[string]int{"code": 1})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "response write failed", entry.Message)
	assert.Equal(t, "/api/templates", entry.Data["path"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "connection reset")
}

func TestJSONReportsEncodingFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := WithLogger(httptest.NewRequest(http.MethodGet, "/", nil), log)
	w := httptest.NewRecorder()

	JSON(w, r, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "encode_error", body.Code)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[0].Level)
}

func TestLoggerWithoutAttachedLogger(t *testing.T) {
	assert.NotNil(t, Logger(httptest.NewRequest(http.MethodGet, "/", nil)))
}
