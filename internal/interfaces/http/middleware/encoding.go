package middleware

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/charmap"
)

// EnsureUTF8Body re-encodes JSON bodies sent as Windows-1252, as some Windows clients do
// with accented Portuguese text. Multipart uploads are left to the file loader.
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 ||
			strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body.Close()
		if err != nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(nil))
			c.Next()
			return
		}

		if !utf8.Valid(body) {
			if converted, err := charmap.Windows1252.NewDecoder().Bytes(body); err == nil && utf8.Valid(converted) {
				body = converted
				c.Request.ContentLength = int64(len(body))
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
