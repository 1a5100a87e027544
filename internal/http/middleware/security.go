// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// SecurityHeaders hardens the gateway's JSON answers. Employee records are
// personal data, so responses are marked uncacheable and the correlation id
// is readable by browser clients. HSTS is sent only on HTTPS requests.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS bool          // only when traffic is HTTPS end to end
	HSTSMaxAge time.Duration // <= 0 means 180 days
	NoStore    bool
}

type headerPair struct{ name, value string }

// securityHeaders returns the fixed headers for opt and the HSTS value.
func securityHeaders(opt SecurityOptions) ([]headerPair, string) {
	fixed := []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"X-Permitted-Cross-Domain-Policies", "none"},
	}
	if opt.NoStore {
		fixed = append(fixed,
			headerPair{"Cache-Control", "no-store"},
			headerPair{"Pragma", "no-cache"},
			headerPair{"Expires", "0"},
		)
	}
	if !opt.EnableHSTS {
		return fixed, ""
	}
	age := opt.HSTSMaxAge
	if age <= 0 {
		age = defaultHSTSMaxAge
	}
	return fixed, "max-age=" + strconv.FormatInt(int64(age/time.Second), 10) + "; includeSubDomains"
}

// SecurityHeaders sets the hardening headers before the handler runs, so
// relayed downstream errors and gateway envelopes carry them too.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	fixed, hsts := securityHeaders(opt)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range fixed {
			h.Set(p.name, p.value)
		}
		if hsts != "" && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}
		c.Next()
	}
}

// exposeHeader adds name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	for _, v := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return
		}
	}
	if cur == "" {
		h.Set(key, name)
		return
	}
	h.Set(key, cur+", "+name)
}

// isHTTPS reports TLS on the connection or X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
