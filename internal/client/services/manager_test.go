package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/client"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/notify"
	"github.com/dmitrijs2005/contentdesk/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signIn installs a token for username on the client and returns the
// matching session reader.
func signIn(e *env, username string, role models.Role) *staticSession {
	tok := e.fake.IssueToken(username, role)
	e.api.SetToken(tok)
	return &staticSession{s: models.Session{Username: username, Role: role, Token: tok}}
}

func seedSample(e *env) []models.Content {
	return e.fake.Seed(
		models.Content{Title: "A1", Desc: "d", Author: "alice"},
		models.Content{Title: "B1", Desc: "d", Author: "bob"},
		models.Content{Title: "A2", Desc: "d", Author: "alice", Status: models.StatusPublished},
	)
}

func ids(items []Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func newManager(e *env, sess SessionReader, scope Scope, rec *notify.Recorder) *ContentManager {
	return NewContentManager(e.api, sess, scope, WithNotifier(rec))
}

func TestLoad_AllScopeKeepsServerOrder(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	m := newManager(e, &staticSession{}, ScopeAll, &notify.Recorder{})

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, []int64{seeded[0].ID, seeded[1].ID, seeded[2].ID}, ids(m.Items()))
	assert.Empty(t, m.Error())
}

func TestLoad_PersonalScope(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopePersonal, &notify.Recorder{})

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, []int64{seeded[0].ID, seeded[2].ID}, ids(m.Items()))
	assert.Equal(t, 1, e.fake.Calls(fakeapi.OpListMy))
	assert.Zero(t, e.fake.Calls(fakeapi.OpList))
}

func TestLoad_PersonalScopeAnonymousFallsBackToAll(t *testing.T) {
	e := newEnv(t)
	seedSample(e)
	m := newManager(e, &staticSession{}, ScopePersonal, &notify.Recorder{})

	require.NoError(t, m.Load(context.Background()))
	assert.Len(t, m.Items(), 3)
	assert.Zero(t, e.fake.Calls(fakeapi.OpListMy))
}

func TestLoad_FailureKeepsPreviousItems(t *testing.T) {
	e := newEnv(t)
	seedSample(e)
	m := newManager(e, &staticSession{}, ScopeAll, &notify.Recorder{})
	ctx := context.Background()

	require.NoError(t, m.Load(ctx))
	e.fake.FailNext(fakeapi.OpList, http.StatusInternalServerError, "")

	err := m.Load(ctx)
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, MsgFetchFailed, m.Error())
	assert.Len(t, m.Items(), 3)

	require.NoError(t, m.Load(ctx))
	assert.Empty(t, m.Error())
}

func TestRefresh_OnlyWhenIdentityChanges(t *testing.T) {
	e := newEnv(t)
	seedSample(e)
	sess := &staticSession{}
	m := newManager(e, sess, ScopePersonal, &notify.Recorder{})
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx))
	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, 1, e.fake.Calls(fakeapi.OpList))

	sess.s = signIn(e, "alice", models.RoleUser).s
	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, 1, e.fake.Calls(fakeapi.OpListMy))
	assert.Len(t, m.Items(), 2)

	sess.s = signIn(e, "bob", models.RoleUser).s
	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, 2, e.fake.Calls(fakeapi.OpListMy))
	assert.Len(t, m.Items(), 1)
}

func TestItems_ActionsFollowPredicate(t *testing.T) {
	e := newEnv(t)
	seedSample(e)
	ctx := context.Background()

	cases := []struct {
		name string
		sess *staticSession
		want map[string]access.Actions
	}{
		{"anonymous", &staticSession{}, map[string]access.Actions{
			"A1": {View: true}, "B1": {View: true}, "A2": {View: true},
		}},
		{"owner", signIn(e, "alice", models.RoleUser), map[string]access.Actions{
			"A1": {View: true, Edit: true, Delete: true},
			"B1": {View: true},
			"A2": {View: true, Edit: true, Delete: true},
		}},
		{"admin", signIn(e, "root", models.RoleAdmin), map[string]access.Actions{
			"A1": {View: true, Delete: true},
			"B1": {View: true, Delete: true},
			"A2": {View: true, Delete: true},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newManager(e, tc.sess, ScopeAll, &notify.Recorder{})
			require.NoError(t, m.Load(ctx))
			for _, it := range m.Items() {
				assert.Equal(t, tc.want[it.Title], it.Actions, it.Title)

				m.OpenView(it.Content)
				assert.Equal(t, it.Actions, m.DialogActions(), it.Title)
			}
		})
	}
}

func TestCreate_PrependsAndCloses(t *testing.T) {
	e := newEnv(t)
	seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.OpenCreate(ctx))
	d := m.Dialog()
	require.True(t, d.Open)
	assert.Equal(t, ModeCreate, d.Mode)
	assert.Equal(t, models.StatusDraft, d.Selected.Status)
	assert.Equal(t, access.Actions{}, m.DialogActions())

	created, err := m.Submit(ctx, models.ContentInput{Title: "New", Desc: "Body"})
	require.NoError(t, err)

	items := m.Items()
	require.Len(t, items, 4)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, "alice", items[0].Author)
	assert.Equal(t, models.StatusDraft, items[0].Status)
	assert.False(t, m.Dialog().Open)

	last, _ := rec.Last()
	assert.Equal(t, notify.Entry{Severity: notify.Success, Message: MsgCreated}, last)
}

func TestCreate_AnonymousRefused(t *testing.T) {
	e := newEnv(t)
	rec := &notify.Recorder{}
	m := newManager(e, &staticSession{}, ScopeAll, rec)

	require.ErrorIs(t, m.OpenCreate(context.Background()), ErrForbidden)
	assert.False(t, m.Dialog().Open)
	last, _ := rec.Last()
	assert.Equal(t, MsgCreateNeedAuth, last.Message)
}

func TestSubmit_ValidationBlocksNetwork(t *testing.T) {
	e := newEnv(t)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()

	require.NoError(t, m.OpenCreate(ctx))
	for _, in := range []models.ContentInput{
		{Title: "", Desc: "d"},
		{Title: "t", Desc: "   "},
	} {
		assert.False(t, m.CanSubmit(in))
		_, err := m.Submit(ctx, in)
		require.ErrorIs(t, err, ErrValidation)
	}
	assert.True(t, m.CanSubmit(models.ContentInput{Title: "t", Desc: "d"}))
	assert.Zero(t, e.fake.Calls(fakeapi.OpCreate))
	assert.Empty(t, rec.Entries())
	assert.True(t, m.Dialog().Open)
}

func TestSubmit_WithoutFormFails(t *testing.T) {
	e := newEnv(t)
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, &notify.Recorder{})

	_, err := m.Submit(context.Background(), models.ContentInput{Title: "t", Desc: "d"})
	require.ErrorIs(t, err, ErrNoForm)

	m.OpenView(models.Content{ID: 1, Author: "alice"})
	_, err = m.Submit(context.Background(), models.ContentInput{Title: "t", Desc: "d"})
	require.ErrorIs(t, err, ErrNoForm)
	assert.False(t, m.CanSubmit(models.ContentInput{Title: "t", Desc: "d"}))
}

func TestUpdate_ReplacesInPlaceAndReturnsToView(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	target := seeded[2]
	m.OpenView(target)
	require.NoError(t, m.BeginEdit(ctx))
	assert.Equal(t, ModeEdit, m.Dialog().Mode)

	in := target.Input()
	in.Title = "A2 edited"
	in.Status = models.StatusArchived
	saved, err := m.Submit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "A2 edited", saved.Title)

	items := m.Items()
	assert.Equal(t, []int64{seeded[0].ID, seeded[1].ID, seeded[2].ID}, ids(items))
	assert.Equal(t, "A2 edited", items[2].Title)
	assert.Equal(t, models.StatusArchived, items[2].Status)

	d := m.Dialog()
	require.True(t, d.Open)
	assert.Equal(t, ModeView, d.Mode)
	assert.Equal(t, saved, *d.Selected)

	last, _ := rec.Last()
	assert.Equal(t, MsgUpdated, last.Message)
}

func TestEdit_ForbiddenForNonOwnerAndAdmin(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	ctx := context.Background()

	for _, sess := range []*staticSession{
		signIn(e, "bob", models.RoleUser),
		signIn(e, "root", models.RoleAdmin),
		{},
	} {
		rec := &notify.Recorder{}
		m := newManager(e, sess, ScopeAll, rec)

		require.ErrorIs(t, m.OpenEdit(ctx, seeded[0]), ErrForbidden)
		assert.False(t, m.Dialog().Open)

		m.OpenView(seeded[0])
		require.ErrorIs(t, m.BeginEdit(ctx), ErrForbidden)
		assert.Equal(t, ModeView, m.Dialog().Mode)

		last, _ := rec.Last()
		assert.Equal(t, notify.Entry{Severity: notify.Warning, Message: MsgEditForbidden}, last)
	}
	assert.Zero(t, e.fake.Calls(fakeapi.OpUpdate))
}

func TestUpdate_FailureKeepsDialogAndRefetches(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.OpenEdit(ctx, seeded[0]))
	e.fake.FailNext(fakeapi.OpUpdate, http.StatusInternalServerError, "boom")

	_, err := m.Submit(ctx, models.ContentInput{Title: "changed", Desc: "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), MsgUpdateFailed)

	assert.Equal(t, "A1", m.Items()[0].Title)
	d := m.Dialog()
	assert.True(t, d.Open)
	assert.Equal(t, ModeEdit, d.Mode)
	assert.Equal(t, MsgUpdateFailed, m.Error())
	assert.Equal(t, 2, e.fake.Calls(fakeapi.OpList))

	last, _ := rec.Last()
	assert.Equal(t, notify.Entry{Severity: notify.Error, Message: MsgUpdateFailed}, last)
}

func TestCreate_FailureWithoutRefetch(t *testing.T) {
	e := newEnv(t)
	seedSample(e)
	m := NewContentManager(e.api, signIn(e, "alice", models.RoleUser), ScopeAll,
		WithNotifier(&notify.Recorder{}), WithRefetchOnFailure(false))
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.OpenCreate(ctx))
	e.fake.FailNext(fakeapi.OpCreate, http.StatusBadRequest, "nope")
	_, err := m.Submit(ctx, models.ContentInput{Title: "t", Desc: "d"})
	require.Error(t, err)

	assert.Len(t, m.Items(), 3)
	assert.True(t, m.Dialog().Open)
	assert.Equal(t, 1, e.fake.Calls(fakeapi.OpList))
}

// hollowAPI answers saves with 2xx replies that lack the saved item.
type hollowAPI struct {
	client.ContentAPI
}

func (hollowAPI) CreateContent(context.Context, models.ContentInput) (models.Content, error) {
	return models.Content{}, nil
}

func (hollowAPI) UpdateContent(_ context.Context, id int64, in models.ContentInput) (models.Content, error) {
	return models.Content{ID: id + 100, Title: in.Title, Desc: in.Desc}, nil
}

func TestCreate_ReplyWithoutIDLeavesListUnchanged(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := NewContentManager(hollowAPI{e.api}, signIn(e, "alice", models.RoleUser), ScopeAll, WithNotifier(rec))
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.OpenCreate(ctx))
	_, err := m.Submit(ctx, models.ContentInput{Title: "a", Desc: "b"})
	require.ErrorIs(t, err, client.ErrIncompleteResponse)

	assert.Equal(t, []int64{seeded[0].ID, seeded[1].ID, seeded[2].ID}, ids(m.Items()))
	assert.True(t, m.Dialog().Open)
	assert.Equal(t, ModeCreate, m.Dialog().Mode)
	last, _ := rec.Last()
	assert.Equal(t, notify.Entry{Severity: notify.Error, Message: MsgCreateFailed}, last)
}

func TestUpdate_ReplyForOtherIDLeavesListUnchanged(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := NewContentManager(hollowAPI{e.api}, signIn(e, "alice", models.RoleUser), ScopeAll, WithNotifier(rec))
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	item, ok := m.Find(seeded[0].ID)
	require.True(t, ok)
	require.NoError(t, m.OpenEdit(ctx, item))
	_, err := m.Submit(ctx, models.ContentInput{Title: "changed", Desc: "d"})
	require.ErrorIs(t, err, client.ErrIncompleteResponse)

	assert.Equal(t, []int64{seeded[0].ID, seeded[1].ID, seeded[2].ID}, ids(m.Items()))
	assert.Equal(t, "A1", m.Items()[0].Title)
	assert.Equal(t, ModeEdit, m.Dialog().Mode)
	last, _ := rec.Last()
	assert.Equal(t, MsgUpdateFailed, last.Message)
}

func TestUpdate_RefetchShowsServerTruth(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, &notify.Recorder{})
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.OpenEdit(ctx, seeded[0]))
	e.fake.RemoveContent(seeded[0].ID)

	_, err := m.Submit(ctx, models.ContentInput{Title: "t", Desc: "d"})
	var ne *client.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusNotFound, ne.Status)

	_, ok := m.Find(seeded[0].ID)
	assert.False(t, ok)
}

func TestDelete_OwnerRemovesAndClosesDialog(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	m.OpenView(seeded[0])
	require.NoError(t, m.Delete(ctx, seeded[0].ID))

	assert.Equal(t, []int64{seeded[1].ID, seeded[2].ID}, ids(m.Items()))
	assert.False(t, m.Dialog().Open)
	last, _ := rec.Last()
	assert.Equal(t, MsgDeleted, last.Message)
}

func TestDelete_KeepsUnrelatedDialog(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, &notify.Recorder{})
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	m.OpenView(seeded[1])
	require.NoError(t, m.Delete(ctx, seeded[0].ID))
	assert.True(t, m.Dialog().Open)
	assert.Equal(t, seeded[1].ID, m.Dialog().Selected.ID)
}

func TestDelete_AdminMayDeleteAnyone(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	m := newManager(e, signIn(e, "root", models.RoleAdmin), ScopeAll, &notify.Recorder{})
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.Delete(ctx, seeded[1].ID))
	assert.Len(t, e.fake.Contents(), 2)
}

func TestDelete_NonOwnerRefusedLocally(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "bob", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.ErrorIs(t, m.Delete(ctx, seeded[0].ID), ErrForbidden)
	assert.Zero(t, e.fake.Calls(fakeapi.OpDelete))
	assert.Len(t, m.Items(), 3)
	last, _ := rec.Last()
	assert.Equal(t, MsgDelForbidden, last.Message)
}

func TestDelete_FailureLeavesListAndNotifies(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, signIn(e, "alice", models.RoleUser), ScopeAll, rec)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	m.OpenView(seeded[0])
	e.fake.FailNext(fakeapi.OpDelete, http.StatusInternalServerError, "")

	require.Error(t, m.Delete(ctx, seeded[0].ID))
	assert.Len(t, m.Items(), 3)
	assert.True(t, m.Dialog().Open)
	assert.Equal(t, MsgDeleteFailed, m.Error())
	last, _ := rec.Last()
	assert.Equal(t, notify.Entry{Severity: notify.Error, Message: MsgDeleteFailed}, last)
}

func TestFetch_LocalThenRemote(t *testing.T) {
	e := newEnv(t)
	seeded := seedSample(e)
	rec := &notify.Recorder{}
	m := newManager(e, &staticSession{}, ScopeAll, rec)
	ctx := context.Background()

	got, err := m.Fetch(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "B1", got.Title)
	assert.Equal(t, 1, e.fake.Calls(fakeapi.OpGet))

	require.NoError(t, m.Load(ctx))
	_, err = m.Fetch(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.fake.Calls(fakeapi.OpGet))

	_, err = m.Fetch(ctx, 999)
	require.Error(t, err)
	last, _ := rec.Last()
	assert.Equal(t, MsgLoadItemFailed, last.Message)
}

func TestDialog_ReturnsCopy(t *testing.T) {
	e := newEnv(t)
	m := newManager(e, &staticSession{}, ScopeAll, &notify.Recorder{})

	m.OpenView(models.Content{ID: 1, Title: "orig"})
	d := m.Dialog()
	d.Selected.Title = "mutated"
	assert.Equal(t, "orig", m.Dialog().Selected.Title)

	m.Close()
	assert.Equal(t, Dialog{}, m.Dialog())
}

func TestPrincipalAndScopeNames(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, models.RolePublic, newManager(e, &staticSession{}, ScopeAll, &notify.Recorder{}).Principal().Role)
	assert.Equal(t, access.Principal{Username: "root", Role: models.RoleAdmin},
		newManager(e, signIn(e, "root", models.RoleAdmin), ScopeAll, &notify.Recorder{}).Principal())
	assert.Equal(t, "personal", ScopePersonal.String())
	assert.Equal(t, "all", ScopeAll.String())
}
