package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/client"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/notify"
	"github.com/dmitrijs2005/contentdesk/internal/client/services"
	"github.com/dmitrijs2005/contentdesk/internal/logging"
)

// AuthService is the part of services.SessionStore the shell uses.
type AuthService interface {
	services.SessionReader
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
	Register(ctx context.Context, in models.RegisterInput, asAdmin bool) (models.Session, error)
	Logout(ctx context.Context) error
}

var _ AuthService = (*services.SessionStore)(nil)

// App is the interactive shell. It owns one content manager per list view
// and a current route.
type App struct {
	auth     AuthService
	all      *services.ContentManager
	mine     *services.ContentManager
	guard    *access.Guard
	notifier notify.Notifier
	render   *Renderer
	log      logging.Logger
	in       io.Reader
	reader   *bufio.Reader
	out      io.Writer

	view         access.Route
	lastUsername string
}

type AppOption func(*appOptions)

type appOptions struct {
	in       io.Reader
	out      io.Writer
	notifier notify.Notifier
	log      logging.Logger
	managers []services.ManagerOption
}

func WithInput(r io.Reader) AppOption { return func(o *appOptions) { o.in = r } }

func WithOutput(w io.Writer) AppOption { return func(o *appOptions) { o.out = w } }

// WithAppNotifier replaces the console notifier.
func WithAppNotifier(n notify.Notifier) AppOption {
	return func(o *appOptions) { o.notifier = n }
}

func WithAppLogger(l logging.Logger) AppOption { return func(o *appOptions) { o.log = l } }

// WithManagerOptions passes extra options to both content managers.
func WithManagerOptions(opts ...services.ManagerOption) AppOption {
	return func(o *appOptions) { o.managers = append(o.managers, opts...) }
}

func NewApp(auth AuthService, api client.ContentAPI, opts ...AppOption) *App {
	o := appOptions{in: os.Stdin, out: os.Stdout, log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notify.NewConsole(o.out, o.log)
	}

	mopts := append([]services.ManagerOption{
		services.WithNotifier(o.notifier),
		services.WithLogger(o.log),
	}, o.managers...)

	return &App{
		auth:     auth,
		all:      services.NewContentManager(api, auth, services.ScopeAll, mopts...),
		mine:     services.NewContentManager(api, auth, services.ScopePersonal, mopts...),
		guard:    access.NewGuard(o.notifier),
		notifier: o.notifier,
		render:   NewRenderer(),
		log:      o.log,
		in:       o.in,
		reader:   bufio.NewReader(o.in),
		out:      o.out,
		view:     access.MustRoute("home"),
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// getStatus renders "user@ROLE view" for the prompt.
func (a *App) getStatus() string {
	s := a.auth.Current()
	who := "anonymous"
	if s.IsAuthenticated() {
		who = s.Username + "@" + s.Role.String()
	}
	return who + " " + a.view.Name
}

// current is the manager backing the current view.
func (a *App) current() *services.ContentManager {
	if a.view.Path == access.PathMyContent {
		return a.mine
	}
	return a.all
}

// Run shows the home view and starts the shell. It returns when the user
// exits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.println("Welcome to contentdesk (type 'help' for commands)")
	_ = a.Navigate(ctx, access.PathHome)
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}
