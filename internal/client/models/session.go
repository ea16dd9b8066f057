// Package models defines client-side data models used by the contentdesk CLI.
package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of capabilities a session can carry.
type Role string

const (
	RolePublic Role = "PUBLIC"
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole maps a raw role string onto Role. Matching is case-insensitive;
// anything else, including "" and padded values, becomes RolePublic.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(raw)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleUser:
		return RoleUser
	default:
		return RolePublic
	}
}

func (r Role) String() string { return string(r) }

// Session is the identity of the current user. The zero value is an
// anonymous visitor. Username, Role and Token are either all set or all empty.
type Session struct {
	Username string
	Role     Role
	Token    string
}

// NewSession builds a Session from raw values as they arrive from the auth API
// or from storage. If any of the three is blank the anonymous session is returned.
func NewSession(username, role, token string) Session {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	if username == "" || token == "" || strings.TrimSpace(role) == "" {
		return Session{}
	}
	return Session{Username: username, Role: ParseRole(role), Token: token}
}

// IsAuthenticated reports whether the session holds a token.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// EffectiveRole is the role used for authorization decisions.
func (s Session) EffectiveRole() Role {
	if !s.IsAuthenticated() {
		return RolePublic
	}
	return s.Role
}

// TokenExpiry decodes the exp claim of a JWT bearer token without verifying
// its signature. ok is false for opaque tokens or tokens without exp.
func (s Session) TokenExpiry() (exp time.Time, ok bool) {
	if s.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
