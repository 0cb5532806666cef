package auth

import (
	"net/http"
	"strings"
)

// APIKeyHeader carries the static key accepted by the permissive gate.
const APIKeyHeader = "X-API-Key"

// TokenExtractor pulls a session token out of a request, or returns "".
type TokenExtractor func(r *http.Request) string

// CookieExtractor reads the token from the named cookie.
func CookieExtractor(name string) TokenExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// BearerExtractor reads the token from "Authorization: Bearer <token>".
func BearerExtractor() TokenExtractor {
	return func(r *http.Request) string {
		header := r.Header.Get("Authorization")
		if header == "" {
			return ""
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
}

// DefaultExtractors returns the session token sources in precedence order:
// the cookie wins over the Authorization header.
func DefaultExtractors(cookieName string) []TokenExtractor {
	return []TokenExtractor{CookieExtractor(cookieName), BearerExtractor()}
}

// FirstToken returns the first non-empty token produced by extractors.
func FirstToken(r *http.Request, extractors ...TokenExtractor) string {
	for _, extract := range extractors {
		if token := extract(r); token != "" {
			return token
		}
	}
	return ""
}

// APIKeyExtractor reads the static key header.
func APIKeyExtractor() func(r *http.Request) string {
	return func(r *http.Request) string {
		return r.Header.Get(APIKeyHeader)
	}
}
