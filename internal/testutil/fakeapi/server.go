// Package fakeapi is an in-memory implementation of the remote content and
// auth APIs for tests. Mount it under httptest and point the client at
// "<server URL>/api".
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Operation names accepted by FailNext and Calls.
const (
	OpLogin         = "login"
	OpRegister      = "register"
	OpRegisterAdmin = "register-admin"
	OpList          = "list"
	OpListMy        = "list-my"
	OpGet           = "get"
	OpCreate        = "create"
	OpUpdate        = "update"
	OpDelete        = "delete"
)

const DefaultAdminSecret = "let-me-in"

type user struct {
	password string
	role     models.Role
}

type failure struct {
	status  int
	message string
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Server is safe for concurrent use.
type Server struct {
	router     chi.Router
	signingKey []byte
	tokenTTL   time.Duration

	mu          sync.Mutex
	users       map[string]user
	contents    []models.Content
	nextID      int64
	adminSecret string
	failures    map[string][]failure
	calls       map[string]int
	lastHeaders http.Header
}

// New returns an empty server with DefaultAdminSecret.
func New() *Server {
	s := &Server{
		signingKey:  []byte("fakeapi-signing-key"),
		tokenTTL:    time.Hour,
		users:       map[string]user{},
		nextID:      1,
		adminSecret: DefaultAdminSecret,
		failures:    map[string][]failure{},
		calls:       map[string]int{},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/register/admin", s.handleRegisterAdmin)

		r.Get("/contents", s.handleList)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/contents/my", s.handleListMy)
			r.Post("/contents", s.handleCreate)
			r.Put("/contents/{id}", s.handleUpdate)
			r.Delete("/contents/{id}", s.handleDelete)
		})
		r.Get("/contents/{id}", s.handleGet)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastHeaders = r.Header.Clone()
	s.mu.Unlock()
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account directly, bypassing the API.
func (s *Server) AddUser(username, password string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{password: password, role: role}
}

// SetAdminSecret changes the secret required by admin registration.
func (s *Server) SetAdminSecret(secret string) {
	s.mu.Lock()
	s.adminSecret = secret
	s.mu.Unlock()
}

// Seed appends items in server order, assigning IDs and creation dates where missing.
func (s *Server) Seed(items ...models.Content) []models.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Content, 0, len(items))
	for _, it := range items {
		if it.ID == 0 {
			it.ID = s.nextID
		}
		if it.ID >= s.nextID {
			s.nextID = it.ID + 1
		}
		if it.Status == "" {
			it.Status = models.StatusDraft
		}
		if it.DateCreated.IsZero() {
			it.DateCreated = models.Timestamp{Time: time.Now().UTC()}
		}
		s.contents = append(s.contents, it)
		out = append(out, it)
	}
	return out
}

// Contents returns a snapshot of the stored items in server order.
func (s *Server) Contents() []models.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Content(nil), s.contents...)
}

// RemoveContent deletes an item behind the client's back.
func (s *Server) RemoveContent(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// FailNext makes the next call of op answer with status and message.
// Calls queue up: FailNext twice fails the next two calls.
func (s *Server) FailNext(op string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{status: status, message: message})
}

// Calls reports how many times op was invoked, failed calls included.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeaders.Clone()
}

// IssueToken signs a token for username the same way login does.
func (s *Server) IssueToken(username string, role models.Role) string {
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}).SignedString(s.signingKey)
	if err != nil {
		panic(err)
	}
	return tok
}

// enter counts the call and reports an injected failure, if any.
func (s *Server) enter(w http.ResponseWriter, op string) bool {
	s.mu.Lock()
	s.calls[op]++
	q := s.failures[op]
	var f *failure
	if len(q) > 0 {
		f = &q[0]
		s.failures[op] = q[1:]
	}
	s.mu.Unlock()

	if f == nil {
		return false
	}
	writeError(w, f.status, f.message)
	return true
}

type principalKey struct{}

type principal struct {
	username string
	role     models.Role
}

func (s *Server) parseToken(r *http.Request) (principal, error) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return principal{}, errors.New("missing bearer token")
	}
	var c claims
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(h, common.BearerPrefix), &c, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return principal{}, err
	}
	return principal{username: c.Subject, role: models.ParseRole(c.Role)}, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.parseToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func principalFrom(r *http.Request) principal {
	p, _ := r.Context().Value(principalKey{}).(principal)
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with {"message": msg}, or an empty body when msg is "".
func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) authResponse(username string, role models.Role) models.AuthResponse {
	return models.AuthResponse{Token: s.IssueToken(username, role), Username: username, Role: string(role)}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpLogin) {
		return
	}
	var in models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[in.Username]
	s.mu.Unlock()
	if !ok || u.password != in.Password {
		writeError(w, http.StatusUnauthorized, "")
		return
	}
	writeJSON(w, http.StatusOK, s.authResponse(in.Username, u.role))
}

func (s *Server) register(w http.ResponseWriter, in models.RegisterInput, role models.Role) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	s.mu.Lock()
	if _, exists := s.users[in.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "")
		return
	}
	s.users[in.Username] = user{password: in.Password, role: role}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.authResponse(in.Username, role))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpRegister) {
		return
	}
	var in models.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.register(w, in, models.RoleUser)
}

func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpRegisterAdmin) {
		return
	}
	var in models.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	secret := s.adminSecret
	s.mu.Unlock()
	if in.AdminSecret != secret {
		writeError(w, http.StatusForbidden, "Invalid admin secret")
		return
	}
	s.register(w, in, models.RoleAdmin)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpList) {
		return
	}
	writeJSON(w, http.StatusOK, s.Contents())
}

func (s *Server) handleListMy(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpListMy) {
		return
	}
	p := principalFrom(r)
	mine := []models.Content{}
	for _, c := range s.Contents() {
		if c.Author == p.username {
			mine = append(mine, c)
		}
	}
	writeJSON(w, http.StatusOK, mine)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) indexLocked(id int64) int {
	for i, c := range s.contents {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpGet) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	idx := s.indexLocked(id)
	var c models.Content
	if idx >= 0 {
		c = s.contents[idx]
	}
	s.mu.Unlock()
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Content not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (models.ContentInput, bool) {
	var in models.ContentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return in, false
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Desc) == "" {
		writeError(w, http.StatusBadRequest, "title and desc are required")
		return in, false
	}
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	return in, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpCreate) {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	p := principalFrom(r)

	s.mu.Lock()
	c := models.Content{
		ID:          s.nextID,
		Title:       in.Title,
		Desc:        in.Desc,
		Status:      in.Status,
		Author:      p.username,
		DateCreated: models.Timestamp{Time: time.Now().UTC()},
	}
	s.nextID++
	s.contents = append([]models.Content{c}, s.contents...)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpUpdate) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	p := principalFrom(r)

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Content not found")
		return
	}
	c := s.contents[idx]
	if c.Author != p.username {
		s.mu.Unlock()
		writeError(w, http.StatusForbidden, "You can only edit your own content")
		return
	}
	c.Title, c.Desc, c.Status = in.Title, in.Desc, in.Status
	c.DateUpdated = &models.Timestamp{Time: time.Now().UTC()}
	s.contents[idx] = c
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, OpDelete) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p := principalFrom(r)

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Content not found")
		return
	}
	if s.contents[idx].Author != p.username && p.role != models.RoleAdmin {
		s.mu.Unlock()
		writeError(w, http.StatusForbidden, "Not allowed to delete this content")
		return
	}
	s.removeLocked(id)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeLocked(id int64) {
	if i := s.indexLocked(id); i >= 0 {
		s.contents = append(s.contents[:i], s.contents[i+1:]...)
	}
}
