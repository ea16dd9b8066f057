package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/client"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/common"
	"github.com/dustin/go-humanize"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// MsgPasswordMismatch blocks registration when the confirmation differs.
const MsgPasswordMismatch = "Passwords do not match"

var errPasswordMismatch = errors.New("passwords do not match")

// reportAuthError prints a failed login or registration inline.
func (a *App) reportAuthError(action string, err error) {
	var ae *client.AuthError
	switch {
	case errors.As(err, &ae):
		a.println(ae.Message)
	case errors.Is(err, models.ErrInvalid):
		a.println(err.Error())
	default:
		a.println(action+" failed:", err.Error())
	}
}

// askUsername prompts for a username, offering the last one entered so a
// failed attempt can be retried without retyping it.
func (a *App) askUsername() (string, error) {
	name, err := GetTextWithDefault(a.reader, "Enter username", a.lastUsername, a.out)
	if err != nil {
		return "", err
	}
	a.lastUsername = name
	return name, nil
}

// Login prompts for credentials and replaces the session on success. On
// failure the error is shown inline and the previous session is kept.
func (a *App) Login(ctx context.Context) error {
	username, err := a.askUsername()
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.in, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.Login(ctx, models.Credentials{Username: username, Password: string(password)})
	if err != nil {
		a.reportAuthError("Login", err)
		return err
	}

	a.println(fmt.Sprintf("Logged in as %s (%s)", sess.Username, sess.Role))
	a.view = access.MustRoute("home")
	return nil
}

// Register asks for a username and a confirmed password (and the admin
// secret with asAdmin), creates the account and logs it in.
func (a *App) Register(ctx context.Context, asAdmin bool) error {
	username, err := a.askUsername()
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.in, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.reader, a.in, "Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		a.println(MsgPasswordMismatch)
		return errPasswordMismatch
	}

	in := models.RegisterInput{Credentials: models.Credentials{Username: username, Password: string(password)}}
	if asAdmin {
		secret, err := getPassword(a.reader, a.in, "Enter admin secret", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(secret)
		in.AdminSecret = string(secret)
	}

	sess, err := a.auth.Register(ctx, in, asAdmin)
	if err != nil {
		a.reportAuthError("Registration", err)
		return err
	}

	a.println(fmt.Sprintf("Registered and logged in as %s (%s)", sess.Username, sess.Role))
	a.view = access.MustRoute("home")
	return nil
}

// Logout clears the session and returns to the home view.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	a.view = access.MustRoute("home")
	if err != nil {
		a.println("Logout failed:", err.Error())
		return err
	}
	a.println("Logged out")
	return nil
}

// WhoAmI prints the current identity and, for JWT tokens, when it expires.
func (a *App) WhoAmI(ctx context.Context) error {
	a.println(describeSession(a.auth.Current(), time.Now()))
	return nil
}

func describeSession(s models.Session, now time.Time) string {
	if !s.IsAuthenticated() {
		return "Not logged in"
	}
	out := fmt.Sprintf("%s (%s)", s.Username, s.Role)
	if exp, ok := s.TokenExpiry(); ok {
		if exp.After(now) {
			out += ", token expires " + humanize.RelTime(exp, now, "ago", "from now")
		} else {
			out += ", token expired " + humanize.RelTime(exp, now, "ago", "from now")
		}
	}
	return out
}
