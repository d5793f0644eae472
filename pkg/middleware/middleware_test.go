package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"smallbiznis-backoffice/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	zap.ReplaceGlobals(zap.NewNop())
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Error())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errutil.NotFound("License not found", nil))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestErrorRendersBaseError(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "License not found")
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "boom")
}

func TestRequestIDIsPropagated(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	newEngine().ServeHTTP(w, req)

	require.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}
