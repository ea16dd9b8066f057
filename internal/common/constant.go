// Package common contains constants and small helpers shared across
// contentdesk components.
package common

// HTTP headers set on outbound API requests.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
	RequestIDHeaderName     = "X-Request-ID"
)

// Keys under which the session is persisted in the metadata store.
const (
	SessionKeyToken    = "token"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
)

// SessionKeys lists all persisted session keys.
var SessionKeys = []string{SessionKeyToken, SessionKeyUsername, SessionKeyRole}
