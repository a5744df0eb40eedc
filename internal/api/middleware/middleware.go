package middleware

import (
	"net/http"
	"time"

	"example.com/backstage/services/picking/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey = "X-Request-ID"
	actorHeader  = "X-Actor-ID"
	actorKey     = "actor_id"
)

// RequestID adds a request ID to the context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header(requestIDKey, requestID)

		c.Next()
	}
}

// CORS handles CORS
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID, X-Actor-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Logger logs API requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("API request")
	}
}

// Metrics records latency and error rate per route
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		name := "http " + c.Request.Method + " " + route
		m.RecordDuration(name, time.Since(start))
		if c.Writer.Status() >= http.StatusInternalServerError {
			m.RecordError(name)
		} else {
			m.RecordSuccess(name)
		}
	}
}

// NewRelic returns a gin middleware for New Relic tracing
func NewRelic(app *newrelic.Application) gin.HandlerFunc {
	return nrgin.Middleware(app)
}

// Actor reads the acting user from the X-Actor-ID header. A malformed value
// is rejected; a missing one is left for handlers that need it to report.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(actorHeader)
		if raw == "" {
			c.Next()
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message": "invalid " + actorHeader + " header",
				"code":    "VALIDATION_ERROR",
			})
			return
		}

		c.Set(actorKey, id)
		c.Next()
	}
}

// ActorID returns the actor parsed by Actor
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
