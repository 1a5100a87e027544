// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the correlation and access-log plumbing:
//
//   - RequestID() assigns every request a correlation ID. The gateway
//     forwards it downstream, so an inbound value is only reused when it is
//     a short token; anything else is replaced.
//   - Logger() is the plain access log used by the local employee stub.
//     The gateway uses RedactingLogger, which shares the same fields.
//   - Recovery() turns panics into the JSON 500 envelope.
//   - SetErrorCode / MarkRelayed let handlers annotate a response so that
//     access logs and metrics can tell gateway failures from relayed
//     downstream answers.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
	errorCodeKey    = "errorCode"
	relayedKey      = "relayedStatus"

	maxQueryLogLength = 2048
	maxRequestIDLen   = 128
)

// requestIDPattern accepts UUIDs and similar opaque tokens.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

// RequestID reuses a well-formed inbound X-Request-ID or generates a UUIDv4,
// stores it in the Gin context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	return s != "" && len(s) <= maxRequestIDLen && requestIDPattern.MatchString(s)
}

// RequestIDFrom returns the correlation ID set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// SetErrorCode records the error-envelope code written for this request.
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeKey, code)
}

// MarkRelayed records that the response is a downstream answer passed
// through unchanged.
func MarkRelayed(c *gin.Context, status int) {
	c.Set(relayedKey, status)
}

func errorCodeFrom(c *gin.Context) string {
	v, _ := c.Get(errorCodeKey)
	return asString(v)
}

func relayedStatusFrom(c *gin.Context) (int, bool) {
	v, ok := c.Get(relayedKey)
	if !ok {
		return 0, false
	}
	s, ok := v.(int)
	return s, ok
}

// routeOf returns the matched route template, or the raw path for misses.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// attachLogger builds the request-scoped logger and stores it for LoggerFrom.
func attachLogger(c *gin.Context, route string) *zerolog.Logger {
	l := log.With().
		Str("request_id", RequestIDFrom(c)).
		Str("method", c.Request.Method).
		Str("route", route).
		Logger()
	c.Set(loggerKey, &l)
	return &l
}

// accessEvent picks the level from the outcome and adds the response fields
// shared by Logger and RedactingLogger.
func accessEvent(c *gin.Context, l *zerolog.Logger, start time.Time) *zerolog.Event {
	status := c.Writer.Status()

	var ev *zerolog.Event
	switch {
	case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
		ev = l.Error()
	case status >= http.StatusBadRequest:
		ev = l.Warn()
	default:
		ev = l.Info()
	}
	if len(c.Errors) > 0 {
		ev = ev.Str("errors", c.Errors.String())
	}
	if code := errorCodeFrom(c); code != "" {
		ev = ev.Str("error_code", code)
	}
	if s, ok := relayedStatusFrom(c); ok {
		ev = ev.Str("downstream_status", strconv.Itoa(s))
	}
	return ev.
		Int("status", status).
		Int("bytes_out", c.Writer.Size()).
		Dur("latency", time.Since(start))
}

// Logger writes one structured access-log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := attachLogger(c, routeOf(c))

		c.Next()

		accessEvent(c, l, start).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength).
			Msg("request")
	}
}

// Recovery logs a panic with its stack and, if nothing was written yet,
// answers with the 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			SetErrorCode(c, "internal_error")
			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// none was attached.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate cuts s to max bytes plus an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
