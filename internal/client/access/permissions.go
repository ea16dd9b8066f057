// Package access holds the client-side authorization rules: which content
// actions a session may take and which routes it may enter.
package access

import "github.com/dmitrijs2005/contentdesk/internal/client/models"

// Principal is who is asking. The zero value is an anonymous visitor.
type Principal struct {
	Username string
	Role     models.Role
}

// PrincipalOf derives the principal of a session.
func PrincipalOf(s models.Session) Principal {
	if !s.IsAuthenticated() {
		return Principal{Role: models.RolePublic}
	}
	return Principal{Username: s.Username, Role: s.EffectiveRole()}
}

// Actions lists what a principal may do with one content item.
type Actions struct {
	View   bool
	Edit   bool
	Delete bool
}

// Owns reports whether p authored item. Anonymous principals own nothing.
func (p Principal) Owns(item models.Content) bool {
	return p.Username != "" && p.Username == item.Author
}

// Permissions is the single authorization predicate for content items.
// Viewing is always allowed. Editing requires ownership whatever the role.
// Deleting requires ownership or the admin role.
func Permissions(p Principal, item models.Content) Actions {
	owns := p.Owns(item)
	return Actions{
		View:   true,
		Edit:   owns,
		Delete: owns || p.Role == models.RoleAdmin,
	}
}

func CanEdit(p Principal, item models.Content) bool {
	return Permissions(p, item).Edit
}

func CanDelete(p Principal, item models.Content) bool {
	return Permissions(p, item).Delete
}
