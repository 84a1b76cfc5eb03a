package security

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"donortrack/internal/log"
)

func TestIsSuspicious(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		query  string
		want   bool
	}{
		{"plain list", "GET", "/donors/", "skip=0&limit=10", false},
		{"report", "GET", "/reports/donations-by-program/", "", false},
		{"traversal", "GET", "/../etc/passwd", "", true},
		{"dotenv", "GET", "/.env", "", true},
		{"sql in query", "GET", "/donors/", "name=x' UNION SELECT 1", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuspicious(tt.method, tt.path, tt.query))
		})
	}
}

func TestHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Headers(DefaultHeadersConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "no HSTS over plain HTTP")
}

func TestDetectorCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	d := NewDetector(logger)

	r := gin.New()
	r.Use(d.Gin())
	r.GET("/*any", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, p := range []string{"/donors/", "/wp-admin/", "/.git/config"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", p, nil))
	}

	assert.Equal(t, int64(2), d.Suspicious())
	assert.Contains(t, buf.String(), "Suspicious request")
}
