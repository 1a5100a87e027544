// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the gateway's access log. Request
// bodies are never logged. Query strings and header values are scrubbed of
// e-mail addresses, phone numbers and UUIDs, with three per-header overrides:
//
//   - MaskHeaders are replaced by "[REDACTED]" (credentials).
//   - FingerprintHeaders are replaced by a short SHA-256 prefix, so a value
//     forwarded downstream (Idempotency-Key) can be matched across both
//     services' logs without being disclosed.
//   - VerbatimHeaders are logged unchanged (correlation ids such as
//     X-Request-ID, which would otherwise be scrubbed as UUIDs).
package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const redactedValue = "[REDACTED]"

// RedactOptions configures RedactingLogger. Header names are matched
// case-insensitively. Authorization, Cookie and Set-Cookie are always masked.
type RedactOptions struct {
	MaskHeaders        []string
	FingerprintHeaders []string
	VerbatimHeaders    []string
}

var (
	// UUIDs first, so the phone pattern cannot eat their digit groups.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

type headerRule int

const (
	ruleScrub headerRule = iota
	ruleMask
	ruleFingerprint
	ruleVerbatim
)

// redactor applies RedactOptions to request metadata.
type redactor struct {
	rules map[string]headerRule
}

func newRedactor(opts RedactOptions) *redactor {
	r := &redactor{rules: map[string]headerRule{
		"authorization": ruleMask,
		"cookie":        ruleMask,
		"set-cookie":    ruleMask,
	}}
	add := func(names []string, rule headerRule) {
		for _, h := range names {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				r.rules[h] = rule
			}
		}
	}
	add(opts.VerbatimHeaders, ruleVerbatim)
	add(opts.FingerprintHeaders, ruleFingerprint)
	add(opts.MaskHeaders, ruleMask)
	return r
}

func (r *redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func (r *redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		val := strings.Join(vv, ", ")
		switch r.rules[strings.ToLower(k)] {
		case ruleMask:
			out[k] = redactedValue
		case ruleFingerprint:
			out[k] = fingerprint(val)
		case ruleVerbatim:
			out[k] = truncate(val, maxRequestIDLen)
		default:
			out[k] = r.scrub(val)
		}
	}
	return out
}

// fingerprint returns "sha256:" plus the first 12 hex digits of the digest.
func fingerprint(v string) string {
	sum := sha256.Sum256([]byte(v))
	return "sha256:" + hex.EncodeToString(sum[:])[:12]
}

// RedactingLogger attaches the request-scoped logger and writes one scrubbed
// access-log line per request.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()
		l := attachLogger(c, routeOf(c))

		// Snapshot before handlers run; the request is not mutated afterwards.
		query := rd.scrub(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := rd.headers(c.Request.Header)

		c.Next()

		accessEvent(c, l, start).
			Str("query", query).
			Interface("headers", headers).
			Msg("http_request")
	}
}
