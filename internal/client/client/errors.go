package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrIncompleteResponse marks a 2xx reply that does not carry the saved item.
	ErrIncompleteResponse = errors.New("incomplete response")
)

// AuthError is returned by the auth endpoints when the server rejects the
// credentials, the admin secret or the username.
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError describes a failed content API call. Status is zero when the
// request never got a response.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Message)
	default:
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets errors.Is match the status classes against the package sentinels.
func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrUnavailable:
		if errors.Is(e.Err, ErrIncompleteResponse) {
			return false
		}
		return e.Status == 0 || e.Status >= http.StatusInternalServerError
	}
	return false
}

// CheckSaved returns a *NetworkError unless c has a server-assigned ID
// equal to want. A zero want accepts any non-zero ID.
func CheckSaved(op string, c models.Content, want int64) error {
	if c.ID == 0 || (want != 0 && c.ID != want) {
		return &NetworkError{Op: op, Err: ErrIncompleteResponse}
	}
	return nil
}
