package access

import (
	"context"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/notify"
)

// Decision is the outcome of a route check.
type Decision int

const (
	Authorized Decision = iota
	Unauthenticated
	InsufficientRole
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case InsufficientRole:
		return "insufficient-role"
	default:
		return "unknown"
	}
}

const (
	MsgLoginRequired    = "You must be logged in to access this page."
	MsgPermissionDenied = "You do not have permission to access this page."
)

// Verdict tells the caller where to go and what to tell the user.
// RedirectTo and Message are empty when the decision is Authorized.
type Verdict struct {
	Decision   Decision
	RedirectTo string
	Message    string
}

func (v Verdict) Allowed() bool { return v.Decision == Authorized }

// Evaluate decides access to a protected route. An empty requiredRole means
// any authenticated user. Admins pass every check.
func Evaluate(s models.Session, requiredRole models.Role) Verdict {
	if s.Username == "" {
		return Verdict{Decision: Unauthenticated, RedirectTo: PathLogin, Message: MsgLoginRequired}
	}
	role := s.EffectiveRole()
	if role == models.RoleAdmin {
		return Verdict{Decision: Authorized}
	}
	if requiredRole != "" && role != requiredRole {
		return Verdict{Decision: InsufficientRole, RedirectTo: PathAccessDenied, Message: MsgPermissionDenied}
	}
	return Verdict{Decision: Authorized}
}

// Guard evaluates routes and tells the user about denials.
type Guard struct {
	notifier notify.Notifier
}

func NewGuard(n notify.Notifier) *Guard {
	if n == nil {
		n = notify.Discard
	}
	return &Guard{notifier: n}
}

// Check evaluates route for session. Public routes are always allowed.
func (g *Guard) Check(ctx context.Context, s models.Session, route Route) Verdict {
	if !route.Protected {
		return Verdict{Decision: Authorized}
	}
	v := Evaluate(s, route.RequiredRole)
	if !v.Allowed() {
		g.notifier.Notify(ctx, notify.Error, v.Message)
	}
	return v
}
