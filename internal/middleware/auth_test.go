package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(target, authHeader string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	return c
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"bearer header", "/x", "Bearer abc", "abc"},
		{"case-insensitive scheme", "/x", "bearer abc", "abc"},
		{"query fallback", "/x?token=abc", "", "abc"},
		{"header wins over query", "/x?token=query", "Bearer header", "header"},
		{"malformed header falls back to query", "/x?token=abc", "Basic dXNlcg==", "abc"},
		{"bare header falls back to query", "/x?token=abc", "abc", "abc"},
		{"nothing", "/x", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testContext(tt.target, tt.header)
			assert.Equal(t, tt.want, extractToken(c))
		})
	}
}
