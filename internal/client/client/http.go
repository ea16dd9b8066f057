package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/common"
	"github.com/dmitrijs2005/contentdesk/internal/logging"
	"github.com/dmitrijs2005/contentdesk/internal/netx"
	"github.com/google/uuid"
)

// Fallback messages used when the auth API rejects a request without a message.
const (
	MsgInvalidCredentials  = "Invalid credentials"
	MsgRegisterFailed      = "Registration failed: username may already exist"
	MsgAdminRegisterFailed = "Admin registration failed: invalid secret or username exists"
)

const defaultTimeout = 15 * time.Second

// HTTPClient talks to the content and auth REST APIs.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	log     logging.Logger

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		hc := *c.hc
		hc.Timeout = d
		c.hc = &hc
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient returns a client for the API rooted at baseURL, for example
// "http://localhost:8080/api".
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q: must be an absolute http(s) URL", baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed bearer token.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// send performs one request. It returns the response only for 2xx statuses;
// the caller must close its body.
func (c *HTTPClient) send(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	req, err := netx.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	reqID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, reqID)
	if tok := c.Token(); tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}

	started := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "op", op, "method", method, "path", path, "request_id", reqID, "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}

	c.log.Debug(ctx, "request done",
		"op", op, "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Message: netx.ErrorMessage(resp)}
	}
	return resp, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	resp, err := c.send(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := netx.DecodeJSON(resp.Body, netx.MaxBodyBytes, out); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// authCall converts any rejection by the server into *AuthError.
func (c *HTTPClient) authCall(ctx context.Context, op, path string, body any, fallback string) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, op, http.MethodPost, path, body, &out)
	if err == nil {
		return out, nil
	}

	var ne *NetworkError
	if errors.As(err, &ne) && ne.Status != 0 && ne.Err == nil {
		msg := ne.Message
		if msg == "" {
			msg = fallback
		}
		return models.AuthResponse{}, &AuthError{Status: ne.Status, Message: msg, Err: err}
	}
	return models.AuthResponse{}, err
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	return c.authCall(ctx, "login", "/auth/login", creds, MsgInvalidCredentials)
}

func (c *HTTPClient) Register(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	return c.authCall(ctx, "register", "/auth/register", creds, MsgRegisterFailed)
}

func (c *HTTPClient) RegisterAdmin(ctx context.Context, in models.RegisterInput) (models.AuthResponse, error) {
	return c.authCall(ctx, "register admin", "/auth/register/admin", in, MsgAdminRegisterFailed)
}

func contentPath(id int64) string {
	return "/contents/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) ListContents(ctx context.Context) ([]models.Content, error) {
	var out []models.Content
	if err := c.do(ctx, "list contents", http.MethodGet, "/contents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListMyContents(ctx context.Context) ([]models.Content, error) {
	var out []models.Content
	if err := c.do(ctx, "list my contents", http.MethodGet, "/contents/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetContent(ctx context.Context, id int64) (models.Content, error) {
	var out models.Content
	if err := c.do(ctx, "get content", http.MethodGet, contentPath(id), nil, &out); err != nil {
		return models.Content{}, err
	}
	return out, nil
}

func (c *HTTPClient) CreateContent(ctx context.Context, in models.ContentInput) (models.Content, error) {
	var out models.Content
	if err := c.do(ctx, "create content", http.MethodPost, "/contents", in, &out); err != nil {
		return models.Content{}, err
	}
	if err := CheckSaved("create content", out, 0); err != nil {
		return models.Content{}, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateContent(ctx context.Context, id int64, in models.ContentInput) (models.Content, error) {
	var out models.Content
	if err := c.do(ctx, "update content", http.MethodPut, contentPath(id), in, &out); err != nil {
		return models.Content{}, err
	}
	if err := CheckSaved("update content", out, id); err != nil {
		return models.Content{}, err
	}
	return out, nil
}

func (c *HTTPClient) DeleteContent(ctx context.Context, id int64) error {
	return c.do(ctx, "delete content", http.MethodDelete, contentPath(id), nil, nil)
}
