package security

import (
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"donortrack/internal/log"
)

// TrustedProxies are the networks whose forwarding headers are believed
// when resolving a client IP.
var TrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

// Detector flags probing requests. It only logs and counts; the request is
// still served (and will usually 404).
type Detector struct {
	logger     *log.Logger
	suspicious int64
}

// NewDetector creates a new security detector
func NewDetector(logger *log.Logger) *Detector {
	return &Detector{logger: logger.WithComponent(log.ComponentHTTP)}
}

// IsSuspicious reports whether the method, path or query look like a probe.
func IsSuspicious(method, path, rawQuery string) bool {
	for _, m := range unusualMethods {
		if method == m {
			return true
		}
	}
	if len(path)+len(rawQuery) > 2048 {
		return true
	}
	p := strings.ToLower(path)
	q := strings.ToLower(rawQuery)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(p, pattern) || strings.Contains(q, pattern) {
			return true
		}
	}
	return false
}

// Gin returns middleware that logs suspicious requests at warn level.
func (d *Detector) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		if IsSuspicious(r.Method, r.URL.Path, r.URL.RawQuery) {
			atomic.AddInt64(&d.suspicious, 1)
			d.logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, c.ClientIP(),
				log.FieldUserAgent, r.UserAgent())
		}
		c.Next()
	}
}

// Suspicious returns how many suspicious requests were seen.
func (d *Detector) Suspicious() int64 {
	return atomic.LoadInt64(&d.suspicious)
}
