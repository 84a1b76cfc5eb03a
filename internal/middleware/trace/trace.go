package trace

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"donortrack/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

// Middleware tags each request with an ID, puts a request-scoped logger in
// its context and logs start and completion.
type Middleware struct {
	logger        *log.Logger
	structured    *log.StructuredLogger
	totalRequests int64
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger) *Middleware {
	return &Middleware{
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// Gin returns the middleware handler.
func (m *Middleware) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// keep a caller-supplied ID so logs line up across services
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = GenerateRequestID()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, m.logger.With(log.FieldRequestID, requestID))
		c.Request = c.Request.WithContext(ctx)

		atomic.AddInt64(&m.totalRequests, 1)
		clientIP := c.ClientIP()
		m.structured.LogHTTPStart(ctx, c.Request, requestID, clientIP)

		c.Next()

		m.structured.LogHTTPEnd(ctx, c.Request, requestID, c.Writer.Status(), time.Since(start).Milliseconds(), clientIP)
	}
}

// TotalRequests returns how many requests passed through the middleware.
func (m *Middleware) TotalRequests() int64 {
	return atomic.LoadInt64(&m.totalRequests)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
