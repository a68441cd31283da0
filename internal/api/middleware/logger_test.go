package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/timmy/artmatch/internal/logger"
)

func newTestRouter(seen *[2]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		ctx := c.Request.Context()
		seen[0] = logger.GetRequestID(ctx)
		seen[1] = logger.GetFieldString(ctx, logger.FieldComponent)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestLoggerReusesValidRequestID(t *testing.T) {
	var seen [2]string
	r := newTestRouter(&seen)

	const id = "0b7c6f1e-2d4a-4f55-9a59-7f3a1c2b9d10"
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != id {
		t.Errorf("response header = %q, want %q", got, id)
	}
	if seen[0] != id {
		t.Errorf("request_id in context = %q, want %q", seen[0], id)
	}
	if seen[1] != "api" {
		t.Errorf("component in context = %q, want api", seen[1])
	}
}

func TestRequestLoggerReplacesInvalidRequestID(t *testing.T) {
	var seen [2]string
	r := newTestRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get(RequestIDHeader)
	if got == "" || got == "not a uuid" {
		t.Errorf("response header = %q, want a generated id", got)
	}
	if seen[0] != got {
		t.Errorf("request_id in context = %q, want %q", seen[0], got)
	}
}
