package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/client"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/notify"
	"github.com/dmitrijs2005/contentdesk/internal/logging"
)

// User-facing messages.
const (
	MsgCreated        = "Content created successfully"
	MsgUpdated        = "Content updated"
	MsgDeleted        = "Content deleted"
	MsgCreateFailed   = "Failed to create content"
	MsgUpdateFailed   = "Failed to update content"
	MsgDeleteFailed   = "Failed to delete content"
	MsgFetchFailed    = "Error fetching contents"
	MsgLoadItemFailed = "Failed to load content"
	MsgEditForbidden  = "You can only edit your own content"
	MsgDelForbidden   = "You are not allowed to delete this content"
	MsgCreateNeedAuth = "You must be logged in to create content"
)

var (
	// ErrValidation blocks a submit with a blank title or description.
	ErrValidation = errors.New("title and description are required")
	// ErrForbidden is a client-side refusal by the authorization predicate.
	ErrForbidden = errors.New("action not permitted")
	// ErrNoForm is returned by Submit when no create or edit form is open.
	ErrNoForm = errors.New("no create or edit form is open")
)

// Scope selects which items a manager lists.
type Scope int

const (
	// ScopeAll lists every visible item.
	ScopeAll Scope = iota
	// ScopePersonal lists the session user's items when authenticated and
	// falls back to ScopeAll for anonymous visitors.
	ScopePersonal
)

func (s Scope) String() string {
	if s == ScopePersonal {
		return "personal"
	}
	return "all"
}

type DialogMode string

const (
	ModeCreate DialogMode = "create"
	ModeEdit   DialogMode = "edit"
	ModeView   DialogMode = "view"
)

// Dialog is the detail/form state. In ModeCreate Selected has no ID.
type Dialog struct {
	Open     bool
	Mode     DialogMode
	Selected *models.Content
}

// Item is a listed content item together with what the session may do with it.
type Item struct {
	models.Content
	Actions access.Actions
}

type ManagerOption func(*ContentManager)

// WithRefetchOnFailure controls whether a failed mutation triggers a
// re-fetch of the current scope. Default true.
func WithRefetchOnFailure(on bool) ManagerOption {
	return func(m *ContentManager) { m.refetchOnFailure = on }
}

func WithNotifier(n notify.Notifier) ManagerOption {
	return func(m *ContentManager) { m.notifier = n }
}

func WithLogger(l logging.Logger) ManagerOption {
	return func(m *ContentManager) { m.log = l }
}

// ContentManager owns the content list and dialog state of one view. It
// reads identity from a SessionReader and talks to the content API. The
// mutex guards local state only and is never held across a network call, so
// overlapping operations interleave and the last response wins.
type ContentManager struct {
	api              client.ContentAPI
	session          SessionReader
	scope            Scope
	notifier         notify.Notifier
	log              logging.Logger
	refetchOnFailure bool

	mu         sync.Mutex
	items      []models.Content
	fetched    bool
	fetchedFor string
	lastErr    string
	dialog     Dialog
}

func NewContentManager(api client.ContentAPI, session SessionReader, scope Scope, opts ...ManagerOption) *ContentManager {
	m := &ContentManager{
		api:              api,
		session:          session,
		scope:            scope,
		notifier:         notify.Discard,
		log:              logging.Nop(),
		refetchOnFailure: true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Principal is the identity used for authorization decisions.
func (m *ContentManager) Principal() access.Principal {
	return access.PrincipalOf(m.session.Current())
}

// identity keys the fetched list: "" for anonymous, else the username.
func identity(s models.Session) string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.Username
}

// Load always fetches the scope from the server.
func (m *ContentManager) Load(ctx context.Context) error {
	return m.load(ctx, false)
}

// Refresh fetches only when nothing was fetched yet or the session identity
// changed since the last fetch.
func (m *ContentManager) Refresh(ctx context.Context) error {
	id := identity(m.session.Current())
	m.mu.Lock()
	stale := !m.fetched || m.fetchedFor != id
	m.mu.Unlock()
	if !stale {
		return nil
	}
	return m.load(ctx, false)
}

func (m *ContentManager) load(ctx context.Context, keepErr bool) error {
	sess := m.session.Current()
	personal := m.scope == ScopePersonal && sess.IsAuthenticated()

	m.mu.Lock()
	if !keepErr {
		m.lastErr = ""
	}
	m.mu.Unlock()

	var (
		items []models.Content
		err   error
	)
	if personal {
		items, err = m.api.ListMyContents(ctx)
	} else {
		items, err = m.api.ListContents(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = MsgFetchFailed
		m.log.Warn(ctx, "fetch contents failed", "scope", m.scope.String(), "error", err)
		return fmt.Errorf("%s: %w", MsgFetchFailed, err)
	}
	if items == nil {
		items = []models.Content{}
	}
	m.items = items
	m.fetched = true
	m.fetchedFor = identity(sess)
	return nil
}

// Error returns the last recorded failure message, or "".
func (m *ContentManager) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Items returns the list in server order with each item's permitted actions.
func (m *ContentManager) Items() []Item {
	p := m.Principal()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	for i, c := range m.items {
		out[i] = Item{Content: c, Actions: access.Permissions(p, c)}
	}
	return out
}

// Find looks an item up in the local list.
func (m *ContentManager) Find(id int64) (models.Content, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.ID == id {
			return c, true
		}
	}
	return models.Content{}, false
}

// Fetch returns an item from the local list, or from the server when it is
// not listed.
func (m *ContentManager) Fetch(ctx context.Context, id int64) (models.Content, error) {
	if c, ok := m.Find(id); ok {
		return c, nil
	}
	c, err := m.api.GetContent(ctx, id)
	if err != nil {
		m.notifier.Notify(ctx, notify.Error, MsgLoadItemFailed)
		return models.Content{}, fmt.Errorf("%s: %w", MsgLoadItemFailed, err)
	}
	return c, nil
}

// Dialog returns a copy of the dialog state.
func (m *ContentManager) Dialog() Dialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dialog
	if d.Selected != nil {
		sel := *d.Selected
		d.Selected = &sel
	}
	return d
}

// DialogActions applies the same predicate as Items to the selected item.
// Nothing is permitted on an unsaved item or a closed dialog.
func (m *ContentManager) DialogActions() access.Actions {
	d := m.Dialog()
	if !d.Open || d.Selected == nil || d.Mode == ModeCreate {
		return access.Actions{}
	}
	return access.Permissions(m.Principal(), *d.Selected)
}

// CanSubmit reports whether in may be submitted from the open form.
func (m *ContentManager) CanSubmit(in models.ContentInput) bool {
	d := m.Dialog()
	if !d.Open || (d.Mode != ModeCreate && d.Mode != ModeEdit) {
		return false
	}
	return in.Complete()
}

func (m *ContentManager) setDialog(d Dialog) {
	m.mu.Lock()
	m.dialog = d
	m.mu.Unlock()
}

// OpenCreate opens an empty form seeded with status DRAFT.
func (m *ContentManager) OpenCreate(ctx context.Context) error {
	if !m.session.IsAuthenticated() {
		m.notifier.Notify(ctx, notify.Warning, MsgCreateNeedAuth)
		return ErrForbidden
	}
	m.setDialog(Dialog{Open: true, Mode: ModeCreate, Selected: &models.Content{Status: models.StatusDraft}})
	return nil
}

func (m *ContentManager) OpenView(item models.Content) {
	m.setDialog(Dialog{Open: true, Mode: ModeView, Selected: &item})
}

// OpenEdit opens the edit form for item if the session may edit it.
func (m *ContentManager) OpenEdit(ctx context.Context, item models.Content) error {
	if !access.CanEdit(m.Principal(), item) {
		m.notifier.Notify(ctx, notify.Warning, MsgEditForbidden)
		return ErrForbidden
	}
	m.setDialog(Dialog{Open: true, Mode: ModeEdit, Selected: &item})
	return nil
}

// BeginEdit switches the open view dialog to edit mode.
func (m *ContentManager) BeginEdit(ctx context.Context) error {
	d := m.Dialog()
	if !d.Open || d.Mode != ModeView || d.Selected == nil {
		return ErrNoForm
	}
	return m.OpenEdit(ctx, *d.Selected)
}

// Close resets the dialog and discards unsaved input.
func (m *ContentManager) Close() {
	m.setDialog(Dialog{})
}

// Submit saves the open form. A create closes the dialog; an edit returns
// it to view mode showing the saved item. On failure the list is unchanged
// and the dialog stays open.
func (m *ContentManager) Submit(ctx context.Context, in models.ContentInput) (models.Content, error) {
	d := m.Dialog()
	if !d.Open || (d.Mode != ModeCreate && d.Mode != ModeEdit) {
		return models.Content{}, ErrNoForm
	}
	if !in.Complete() {
		return models.Content{}, ErrValidation
	}

	if d.Mode == ModeCreate {
		return m.create(ctx, in)
	}
	return m.update(ctx, *d.Selected, in)
}

func (m *ContentManager) create(ctx context.Context, in models.ContentInput) (models.Content, error) {
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	created, err := m.api.CreateContent(ctx, in)
	if err == nil {
		err = client.CheckSaved("create content", created, 0)
	}
	if err != nil {
		return models.Content{}, m.failed(ctx, MsgCreateFailed, err)
	}

	m.mu.Lock()
	m.items = append([]models.Content{created}, m.items...)
	m.dialog = Dialog{}
	m.mu.Unlock()

	m.notifier.Notify(ctx, notify.Success, MsgCreated)
	m.log.Info(ctx, "content created", "id", created.ID)
	return created, nil
}

func (m *ContentManager) update(ctx context.Context, sel models.Content, in models.ContentInput) (models.Content, error) {
	if !access.CanEdit(m.Principal(), sel) {
		m.notifier.Notify(ctx, notify.Warning, MsgEditForbidden)
		return models.Content{}, ErrForbidden
	}
	updated, err := m.api.UpdateContent(ctx, sel.ID, in)
	if err == nil {
		err = client.CheckSaved("update content", updated, sel.ID)
	}
	if err != nil {
		return models.Content{}, m.failed(ctx, MsgUpdateFailed, err)
	}

	m.mu.Lock()
	for i := range m.items {
		if m.items[i].ID == updated.ID {
			m.items[i] = updated
			break
		}
	}
	if m.dialog.Open && m.dialog.Selected != nil && m.dialog.Selected.ID == sel.ID {
		saved := updated
		m.dialog = Dialog{Open: true, Mode: ModeView, Selected: &saved}
	}
	m.mu.Unlock()

	m.notifier.Notify(ctx, notify.Success, MsgUpdated)
	m.log.Info(ctx, "content updated", "id", updated.ID)
	return updated, nil
}

// Delete removes an item. Listed items the session may not delete are
// refused without a network call.
func (m *ContentManager) Delete(ctx context.Context, id int64) error {
	if item, ok := m.Find(id); ok && !access.CanDelete(m.Principal(), item) {
		m.notifier.Notify(ctx, notify.Warning, MsgDelForbidden)
		return ErrForbidden
	}

	if err := m.api.DeleteContent(ctx, id); err != nil {
		return m.failed(ctx, MsgDeleteFailed, err)
	}

	m.mu.Lock()
	kept := m.items[:0:0]
	for _, c := range m.items {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	m.items = kept
	if m.dialog.Selected != nil && m.dialog.Selected.ID == id {
		m.dialog = Dialog{}
	}
	m.mu.Unlock()

	m.notifier.Notify(ctx, notify.Success, MsgDeleted)
	m.log.Info(ctx, "content deleted", "id", id)
	return nil
}

// failed records and announces a mutation failure and, when enabled,
// re-fetches the scope so the list reflects the server.
func (m *ContentManager) failed(ctx context.Context, msg string, err error) error {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()

	m.notifier.Notify(ctx, notify.Error, msg)
	m.log.Warn(ctx, "content mutation failed", "message", msg, "error", err)

	if m.refetchOnFailure {
		if rerr := m.load(ctx, true); rerr != nil {
			m.log.Warn(ctx, "refetch after failure failed", "error", rerr)
			m.mu.Lock()
			m.lastErr = msg
			m.mu.Unlock()
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
