// Package services contains the application services of the contentdesk
// client: the session store and the content manager.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/contentdesk/internal/client/client"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/contentdesk/internal/common"
	"github.com/dmitrijs2005/contentdesk/internal/logging"
)

var (
	// ErrIncompleteSession is returned when the auth API answers without a
	// token, username or role.
	ErrIncompleteSession = errors.New("auth response is missing token, username or role")

	// ErrAdminSecretRequired is returned by admin registration without a secret.
	ErrAdminSecretRequired = fmt.Errorf("%w: admin secret is required", models.ErrInvalid)
)

// SessionReader gives read-only access to the current identity.
type SessionReader interface {
	Current() models.Session
	IsAuthenticated() bool
}

// SessionStore owns the session: it restores it from local storage, replaces
// it on login/registration, clears it on logout, and keeps the API client's
// bearer token in sync. It is safe for concurrent use.
type SessionStore struct {
	api   client.AuthAPI
	store metadata.Store
	log   logging.Logger

	// opMu serializes persist-and-install so memory and storage agree.
	opMu sync.Mutex

	mu      sync.RWMutex
	session models.Session
}

var _ SessionReader = (*SessionStore)(nil)

func NewSessionStore(api client.AuthAPI, store metadata.Store, log logging.Logger) *SessionStore {
	if log == nil {
		log = logging.Nop()
	}
	return &SessionStore{api: api, store: store, log: log}
}

func (s *SessionStore) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *SessionStore) IsAuthenticated() bool {
	return s.Current().IsAuthenticated()
}

// Restore loads the persisted session. Incomplete persisted data is ignored
// and the session stays anonymous.
func (s *SessionStore) Restore(ctx context.Context) (models.Session, error) {
	vals := make(map[string]string, len(common.SessionKeys))
	for _, k := range common.SessionKeys {
		v, _, err := s.store.Get(ctx, k)
		if err != nil {
			return models.Session{}, fmt.Errorf("restore session: %w", err)
		}
		vals[k] = v
	}

	sess := models.NewSession(vals[common.SessionKeyUsername], vals[common.SessionKeyRole], vals[common.SessionKeyToken])
	if !sess.IsAuthenticated() {
		if vals[common.SessionKeyToken] != "" || vals[common.SessionKeyUsername] != "" || vals[common.SessionKeyRole] != "" {
			s.log.Warn(ctx, "ignoring incomplete persisted session")
		}
		return models.Session{}, nil
	}

	s.install(sess)
	s.log.Info(ctx, "session restored", "username", sess.Username, "role", sess.Role.String())
	return sess, nil
}

// Login authenticates against the auth API. On failure the previous
// session is kept and the error (usually *client.AuthError) is returned.
func (s *SessionStore) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	if err := models.Validate(creds); err != nil {
		return s.Current(), err
	}
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.log.Info(ctx, "login rejected", "username", creds.Username, "error", err)
		return s.Current(), err
	}
	return s.accept(ctx, resp)
}

// Register creates an account and logs it in. With asAdmin the account is
// an administrator and in.AdminSecret must be set; otherwise the secret is
// never sent.
func (s *SessionStore) Register(ctx context.Context, in models.RegisterInput, asAdmin bool) (models.Session, error) {
	if err := models.Validate(in); err != nil {
		return s.Current(), err
	}

	var (
		resp models.AuthResponse
		err  error
	)
	if asAdmin {
		if strings.TrimSpace(in.AdminSecret) == "" {
			return s.Current(), ErrAdminSecretRequired
		}
		resp, err = s.api.RegisterAdmin(ctx, in)
	} else {
		resp, err = s.api.Register(ctx, in.Credentials)
	}
	if err != nil {
		s.log.Info(ctx, "registration rejected", "username", in.Username, "admin", asAdmin, "error", err)
		return s.Current(), err
	}
	return s.accept(ctx, resp)
}

// Logout clears the in-memory session and the client token, then removes
// the persisted fields. It is idempotent.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.install(models.Session{})

	if err := s.store.Delete(ctx, common.SessionKeys...); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	s.log.Info(ctx, "logged out")
	return nil
}

// accept persists a fresh session and only then makes it current.
func (s *SessionStore) accept(ctx context.Context, resp models.AuthResponse) (models.Session, error) {
	sess := resp.Session()
	if !sess.IsAuthenticated() {
		return s.Current(), ErrIncompleteSession
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := s.store.Update(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Set(ctx, common.SessionKeyToken, sess.Token); err != nil {
			return err
		}
		if err := r.Set(ctx, common.SessionKeyUsername, sess.Username); err != nil {
			return err
		}
		return r.Set(ctx, common.SessionKeyRole, sess.Role.String())
	})
	if err != nil {
		return s.Current(), fmt.Errorf("persist session: %w", err)
	}

	s.install(sess)
	s.log.Info(ctx, "logged in", "username", sess.Username, "role", sess.Role.String())
	return sess, nil
}

func (s *SessionStore) install(sess models.Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.api.SetToken(sess.Token)
}
