package client

import (
	"context"

	"github.com/dmitrijs2005/contentdesk/internal/client/models"
)

// AuthAPI is the remote authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error)
	Register(ctx context.Context, creds models.Credentials) (models.AuthResponse, error)
	RegisterAdmin(ctx context.Context, in models.RegisterInput) (models.AuthResponse, error)

	// SetToken installs the bearer credential used by subsequent calls.
	// An empty token removes it.
	SetToken(token string)
}

// ContentAPI is the remote content CRUD surface.
type ContentAPI interface {
	ListContents(ctx context.Context) ([]models.Content, error)
	ListMyContents(ctx context.Context) ([]models.Content, error)
	GetContent(ctx context.Context, id int64) (models.Content, error)
	CreateContent(ctx context.Context, in models.ContentInput) (models.Content, error)
	UpdateContent(ctx context.Context, id int64, in models.ContentInput) (models.Content, error)
	DeleteContent(ctx context.Context, id int64) error
}

type Client interface {
	AuthAPI
	ContentAPI
}
