// Package auth implements session-based authentication for the API.
//
// A login exchanges the single configured API key for an opaque session
// token, delivered both in the response body and as an http-only cookie.
// Protected routes pass through one of the Middleware gates:
//
//   - RequireSession admits only a valid session token, read from the
//     session cookie or else from "Authorization: Bearer <token>".
//   - RequireSessionOrAPIKey additionally accepts an X-API-Key header equal
//     to the configured key, for scripts and automation.
//   - Bypass attaches a synthetic session in development mode.
//
// All gates admit every request with a synthetic session when the resolved
// mode is development. A managed (Fly.io) deployment always resolves to
// production, whatever AUTH_MODE says.
//
// Sessions live in a Store. MemoryStore is the default and loses all
// sessions on restart; NewSQLiteStore and NewRedisStore keep them across
// restarts. Expired sessions are deleted when they are next looked up and,
// for stores that can list their tokens, by Manager.Sweep.
package auth
