package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDReusesOrGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{name: "client id reused", header: "abc-123", wantSame: true},
		{name: "missing generated", header: "", wantSame: false},
		{name: "control chars replaced", header: "bad\tid", wantSame: false},
		{name: "too long replaced", header: strings.Repeat("a", 200), wantSame: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			got := resp.Body.String()
			if got == "" || resp.Header().Get("X-Request-Id") != got {
				t.Fatalf("expected header and context id to match, got %q / %q", resp.Header().Get("X-Request-Id"), got)
			}
			if (got == tt.header) != tt.wantSame {
				t.Fatalf("header %q produced id %q", tt.header, got)
			}
		})
	}
}
