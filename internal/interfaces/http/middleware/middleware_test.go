package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func echoRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), EnsureUTF8Body())
	r.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return r
}

func TestEnsureUTF8Body_ConvertsWindows1252(t *testing.T) {
	// "média" in Windows-1252
	body := "{\"question\":\"m\xe9dia\"}"
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	echoRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"question":"média"}`, w.Body.String())
}

func TestEnsureUTF8Body_KeepsUTF8(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"question":"média"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	echoRouter().ServeHTTP(w, req)

	assert.Equal(t, `{"question":"média"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("x"))
	w := httptest.NewRecorder()
	echoRouter().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("x"))
	req.Header.Set(HeaderRequestID, "abc")
	w = httptest.NewRecorder()
	echoRouter().ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
}
