package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerExtractor(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"basic scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
		{"no space", "Bearerabc123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerExtractor()(req))
		})
	}
}

func TestCookieExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, CookieExtractor("yva_session")(req))

	req.AddCookie(&http.Cookie{Name: "other", Value: "x"})
	req.AddCookie(&http.Cookie{Name: "yva_session", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", CookieExtractor("yva_session")(req))
}

func TestFirstToken_CookieTakesPrecedence(t *testing.T) {
	extractors := DefaultExtractors("yva_session")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", FirstToken(req, extractors...))

	req.AddCookie(&http.Cookie{Name: "yva_session", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", FirstToken(req, extractors...))

	assert.Empty(t, FirstToken(httptest.NewRequest(http.MethodGet, "/", nil), extractors...))
}

func TestAPIKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-api-key", "key")
	assert.Equal(t, "key", APIKeyExtractor()(req))
}
