package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGenerates(t *testing.T) {
	r := newRouter(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	require.NoError(t, err)
}

func TestRequestIDPropagatesAndIsLogged(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(RequestID(), RequestLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "request_id=trace-123")
}
