package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"gallery-api/internal/api/respond"
	"gallery-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

const maxJSONBody = 1 << 20

var strict = bluemonday.StrictPolicy()

// SanitizeAndCleanInputMiddleware strips markup from every string in a JSON
// body, at any depth. Password fields are left untouched. Non-JSON bodies
// (multipart uploads) pass through.
func SanitizeAndCleanInputMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), "application/json") || c.Request.Body == nil {
			c.Next()
			return
		}

		buf, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBody+1))
		if err != nil {
			respond.Error(c, apperr.New(apperr.InvalidInput, "Invalid body"))
			return
		}
		if len(buf) > maxJSONBody {
			respond.Error(c, apperr.New(apperr.InvalidInput, "Request body too large"))
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body any
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			respond.Error(c, apperr.New(apperr.InvalidInput, "Malformed JSON"))
			return
		}

		newBody, err := json.Marshal(clean("", body))
		if err != nil {
			respond.Error(c, apperr.Wrap(apperr.Internal, "could not re-encode body", err))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}

func clean(key string, v any) any {
	switch x := v.(type) {
	case string:
		if strings.Contains(strings.ToLower(key), "password") {
			return x
		}
		return sanitizeString(x)
	case map[string]any:
		for k, item := range x {
			x[k] = clean(k, item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = clean(key, item)
		}
		return x
	default:
		return v
	}
}

// sanitizeString drops tags and keeps plain characters such as "&" readable.
func sanitizeString(s string) string {
	escaped := strict.Sanitize(s)
	plain := html.UnescapeString(escaped)
	if strings.ContainsAny(plain, "<>") {
		return escaped
	}
	return plain
}
