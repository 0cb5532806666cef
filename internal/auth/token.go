package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the number of random bytes behind each session token.
const TokenBytes = 32

// tokenPrefixLen is how much of a token may appear in logs.
const tokenPrefixLen = 8

// GenerateToken creates a cryptographically secure session token,
// rendered as lowercase hex (64 characters).
func GenerateToken() (string, error) {
	bytes := make([]byte, TokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// TokenPrefix returns the loggable prefix of a token.
func TokenPrefix(token string) string {
	if len(token) <= tokenPrefixLen {
		return token
	}
	return token[:tokenPrefixLen] + "..."
}

// MatchAPIKey compares a caller-supplied key with the configured one in
// constant time. An empty configured key never matches.
func MatchAPIKey(configured, candidate string) bool {
	if configured == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(configured)) == 1
}
