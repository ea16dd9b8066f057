package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/testutil/fakeapi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*HTTPClient, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	c, err := NewHTTPClient(ts.URL + "/api/")
	require.NoError(t, err)
	return c, fake
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://host/api", "http://"} {
		_, err := NewHTTPClient(raw)
		assert.Error(t, err, "url=%q", raw)
	}
}

func TestLogin_SuccessAndFallbackMessage(t *testing.T) {
	c, fake := newTestClient(t)
	fake.AddUser("alice", "pw", models.RoleUser)
	ctx := context.Background()

	resp, err := c.Login(ctx, models.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "USER", resp.Role)
	assert.NotEmpty(t, resp.Token)

	_, err = c.Login(ctx, models.Credentials{Username: "alice", Password: "wrong"})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, MsgInvalidCredentials, ae.Error())
}

func TestRegister_DuplicateUsesFallback(t *testing.T) {
	c, fake := newTestClient(t)
	fake.AddUser("bob", "pw", models.RoleUser)

	_, err := c.Register(context.Background(), models.Credentials{Username: "bob", Password: "x"})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, MsgRegisterFailed, ae.Message)
}

func TestRegisterAdmin_ServerMessageWins(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.RegisterAdmin(context.Background(), models.RegisterInput{
		Credentials: models.Credentials{Username: "root", Password: "pw"},
		AdminSecret: "nope",
	})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid admin secret", ae.Message)

	resp, err := c.RegisterAdmin(context.Background(), models.RegisterInput{
		Credentials: models.Credentials{Username: "root", Password: "pw"},
		AdminSecret: fakeapi.DefaultAdminSecret,
	})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", resp.Role)
}

func TestRegisterAdmin_EmptyFailureUsesFallback(t *testing.T) {
	c, fake := newTestClient(t)
	fake.FailNext(fakeapi.OpRegisterAdmin, http.StatusBadRequest, "")

	_, err := c.RegisterAdmin(context.Background(), models.RegisterInput{
		Credentials: models.Credentials{Username: "root", Password: "pw"},
		AdminSecret: fakeapi.DefaultAdminSecret,
	})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, MsgAdminRegisterFailed, ae.Message)
}

func TestAuth_TransportFailureIsNotAuthError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c, err := NewHTTPClient(ts.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), models.Credentials{Username: "a", Password: "b"})
	var ae *AuthError
	assert.False(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestContentCRUD_RoundTrip(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	c.SetToken(fake.IssueToken("alice", models.RoleUser))

	created, err := c.CreateContent(ctx, models.ContentInput{Title: "T", Desc: "D"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.Author)
	assert.Equal(t, models.StatusDraft, created.Status)

	got, err := c.GetContent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := c.UpdateContent(ctx, created.ID, models.ContentInput{Title: "T2", Desc: "D2", Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	require.NotNil(t, updated.DateUpdated)

	mine, err := c.ListMyContents(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, c.DeleteContent(ctx, created.ID))

	all, err := c.ListContents(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRequestHeaders(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	_, err := c.ListContents(ctx)
	require.NoError(t, err)
	h := fake.LastHeaders()
	assert.Empty(t, h.Get("Authorization"))
	assert.Equal(t, "application/json", h.Get("Accept"))
	_, err = uuid.Parse(h.Get("X-Request-ID"))
	assert.NoError(t, err)

	c.SetToken("tok")
	_, _ = c.ListContents(ctx)
	assert.Equal(t, "Bearer tok", fake.LastHeaders().Get("Authorization"))

	c.SetToken("")
	_, _ = c.ListContents(ctx)
	assert.Empty(t, fake.LastHeaders().Get("Authorization"))
}

func TestNetworkError_StatusAndMessage(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	_, err := c.ListMyContents(ctx)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusUnauthorized, ne.Status)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)

	fake.FailNext(fakeapi.OpList, http.StatusServiceUnavailable, "maintenance")
	_, err = c.ListContents(ctx)
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "maintenance", ne.Message)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "list contents")

	_, err = c.GetContent(ctx, 999)
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusNotFound, ne.Status)
}

func TestNoRetries(t *testing.T) {
	c, fake := newTestClient(t)
	fake.FailNext(fakeapi.OpList, http.StatusInternalServerError, "")

	_, err := c.ListContents(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, fake.Calls(fakeapi.OpList))
}

func TestBodyLimitAndBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[" + strings.Repeat(" ", 16) + "{"))
	}))
	defer ts.Close()

	c, err := NewHTTPClient(ts.URL)
	require.NoError(t, err)

	_, err = c.ListContents(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusOK, ne.Status)
	assert.Error(t, ne.Err)
}

func TestWithTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	c, err := NewHTTPClient(ts.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ListContents(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestContextCancel(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListContents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSave_ResponseWithoutItemIsAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			_, _ = w.Write([]byte(`{"id": 99, "title": "t"}`))
		}
	}))
	defer ts.Close()

	c, err := NewHTTPClient(ts.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.CreateContent(ctx, models.ContentInput{Title: "t", Desc: "d"})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.ErrorIs(t, err, ErrIncompleteResponse)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "create content: incomplete response", err.Error())

	_, err = c.UpdateContent(ctx, 5, models.ContentInput{Title: "t", Desc: "d"})
	assert.ErrorIs(t, err, ErrIncompleteResponse)
}

func TestCheckSaved(t *testing.T) {
	assert.NoError(t, CheckSaved("op", models.Content{ID: 3}, 0))
	assert.NoError(t, CheckSaved("op", models.Content{ID: 3}, 3))
	assert.ErrorIs(t, CheckSaved("op", models.Content{}, 0), ErrIncompleteResponse)
	assert.ErrorIs(t, CheckSaved("op", models.Content{ID: 4}, 3), ErrIncompleteResponse)
}
