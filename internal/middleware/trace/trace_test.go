package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donortrack/internal/log"
)

func newRouter(buf *bytes.Buffer) (*gin.Engine, *Middleware, *string) {
	gin.SetMode(gin.TestMode)
	logger := log.New(log.Config{Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
	m := NewMiddleware(logger)

	var seen string
	r := gin.New()
	r.Use(m.Gin())
	r.GET("/donors/:id", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		log.FromContext(c.Request.Context()).InfoContext(c.Request.Context(), "handler ran")
		c.Status(http.StatusNotFound)
	})
	return r, m, &seen
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	r, m, seen := newRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/donors/9", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, *seen)
	assert.Equal(t, int64(1), m.TotalRequests())

	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "level=WARN", "404 logs at warn")
	assert.Contains(t, out, "request_id="+id)
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	r, _, seen := newRouter(&buf)

	req := httptest.NewRequest("GET", "/donors/1", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", *seen)
}
