package models

// Credentials is the body of the login and plain registration calls.
type Credentials struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput carries everything the registration form collects.
// AdminSecret is only sent for admin registration.
type RegisterInput struct {
	Credentials
	AdminSecret string `json:"adminSecret,omitempty"`
}

// AuthResponse is returned by all three auth endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session converts the response into a Session, normalizing the role.
func (r AuthResponse) Session() Session {
	return NewSession(r.Username, r.Role, r.Token)
}
