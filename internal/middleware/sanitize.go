package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	scriptTag     = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	jsScheme      = regexp.MustCompile(`(?i)javascript\s*:`)
	inlineHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// SanitizeString strips script blocks, javascript: URLs and inline on*=
// handlers, then trims.
func SanitizeString(s string) string {
	s = scriptTag.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	s = inlineHandler.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Sanitize cleans every string in a JSON body and every query value before
// binding. Bodies that are not JSON objects or arrays pass through untouched.
func Sanitize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if q := c.Request.URL.Query(); len(q) > 0 {
			for key, vals := range q {
				for i := range vals {
					vals[i] = SanitizeString(vals[i])
				}
				q[key] = vals
			}
			c.Request.URL.RawQuery = q.Encode()
		}

		if c.Request.Body != nil && c.Request.Body != http.NoBody &&
			strings.HasPrefix(c.ContentType(), "application/json") {
			raw, err := io.ReadAll(c.Request.Body)
			if err != nil {
				abort(c, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body")
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(sanitizeJSON(raw)))
		}
		c.Next()
	}
}

func sanitizeJSON(raw []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		// leave malformed JSON for the binder to reject
		return raw
	}
	switch doc.(type) {
	case map[string]interface{}, []interface{}:
	default:
		return raw
	}
	out, err := json.Marshal(walk(doc))
	if err != nil {
		return raw
	}
	return out
}

func walk(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case map[string]interface{}:
		for k, val := range t {
			t[k] = walk(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = walk(val)
		}
		return t
	}
	return v
}
