package handler

import (
	"net/url"
	"strings"

	"sacredview/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"

	rawQueryKey   = "raw_query"
	rawRequestKey = "raw_request_uri"
	redacted      = "xxxxx"
)

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ScrubQuery hides credentials carried in the query string from every
// middleware between it and RestoreQuery, so access and panic logs only
// ever see the redacted form.
func ScrubQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Request.URL.RawQuery
		scrubbed := scrubQuery(raw)
		if scrubbed == raw {
			c.Next()
			return
		}

		c.Set(rawQueryKey, raw)
		c.Set(rawRequestKey, c.Request.RequestURI)
		c.Request.URL.RawQuery = scrubbed
		if c.Request.RequestURI != "" {
			c.Request.RequestURI = c.Request.URL.RequestURI()
		}
		c.Next()
	}
}

// RestoreQuery hands the original query back to the route handler and
// scrubs it again on the way out, including when the handler panics.
func RestoreQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(rawQueryKey)
		if !ok {
			c.Next()
			return
		}

		scrubbedQuery, scrubbedURI := c.Request.URL.RawQuery, c.Request.RequestURI
		c.Request.URL.RawQuery = raw.(string)
		c.Request.RequestURI = c.GetString(rawRequestKey)
		defer func() {
			c.Request.URL.RawQuery = scrubbedQuery
			c.Request.RequestURI = scrubbedURI
		}()
		c.Next()
	}
}

// scrubQuery masks the password parameter and the password inside a uri
// parameter. Pairs are rewritten in place so the order is kept.
func scrubQuery(raw string) string {
	if raw == "" {
		return raw
	}
	pairs := strings.Split(raw, "&")
	for i, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		switch name {
		case "password":
			if value != "" {
				pairs[i] = key + "=" + redacted
			}
		case "uri":
			decoded, err := url.QueryUnescape(value)
			if err != nil {
				pairs[i] = key + "=" + redacted
				continue
			}
			if clean := service.RedactURI(decoded); clean != decoded {
				pairs[i] = key + "=" + url.QueryEscape(clean)
			}
		}
	}
	return strings.Join(pairs, "&")
}
