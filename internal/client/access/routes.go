package access

import (
	"strings"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
)

const (
	PathHome         = "/"
	PathLogin        = "/login"
	PathRegister     = "/register"
	PathMyContent    = "/my-content"
	PathAdmin        = "/admin"
	PathAccessDenied = "/access-denied"
	PathNotFound     = "/not-found"
)

// Route is one named view of the application.
type Route struct {
	Name      string
	Path      string
	Protected bool
	// RequiredRole is only meaningful for protected routes; empty means
	// any authenticated user.
	RequiredRole models.Role
}

// Routes is the navigation table.
var Routes = []Route{
	{Name: "home", Path: PathHome},
	{Name: "login", Path: PathLogin},
	{Name: "register", Path: PathRegister},
	{Name: "my-content", Path: PathMyContent, Protected: true, RequiredRole: models.RoleUser},
	{Name: "admin", Path: PathAdmin, Protected: true, RequiredRole: models.RoleAdmin},
	{Name: "access-denied", Path: PathAccessDenied},
	{Name: "not-found", Path: PathNotFound},
}

// Resolve finds the route for path. Unknown paths resolve to not-found.
func Resolve(path string) Route {
	p := strings.TrimSpace(path)
	if p == "" {
		p = PathHome
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	for _, r := range Routes {
		if r.Path == p {
			return r
		}
	}
	return MustRoute("not-found")
}

// MustRoute returns the route with the given name and panics if there is none.
func MustRoute(name string) Route {
	for _, r := range Routes {
		if r.Name == name {
			return r
		}
	}
	panic("access: unknown route " + name)
}
