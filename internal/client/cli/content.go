package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/notify"
	"github.com/dmitrijs2005/contentdesk/internal/client/services"
)

// Navigate switches to the view at path. Protected views go through the
// guard; a denied navigation lands on the redirect target instead.
func (a *App) Navigate(ctx context.Context, path string) error {
	route := access.Resolve(path)
	v := a.guard.Check(ctx, a.auth.Current(), route)
	if !v.Allowed() {
		a.log.Info(ctx, "navigation denied", "path", route.Path, "decision", v.Decision.String())
		route = access.Resolve(v.RedirectTo)
	}
	a.view = route
	return a.show(ctx)
}

func (a *App) show(ctx context.Context) error {
	switch a.view.Path {
	case access.PathHome, access.PathMyContent, access.PathAdmin:
		return a.List(ctx)
	case access.PathLogin:
		return a.Login(ctx)
	case access.PathRegister:
		return a.Register(ctx, false)
	case access.PathAccessDenied:
		a.println("Access denied. Type 'home' to go back.")
	default:
		a.println("Page not found. Type 'home' to go back.")
	}
	return nil
}

func (a *App) heading() string {
	switch a.view.Path {
	case access.PathMyContent:
		return "My content"
	case access.PathAdmin:
		return "Admin panel: all content"
	default:
		return "All content"
	}
}

// List prints the current view's items, fetching them if the identity
// changed since the last fetch.
func (a *App) List(ctx context.Context) error {
	m := a.current()
	if err := m.Refresh(ctx); err != nil {
		a.println(m.Error())
		return err
	}
	a.render.List(a.out, a.heading(), m.Items())
	return nil
}

// Reload always re-fetches the current view.
func (a *App) Reload(ctx context.Context) error {
	m := a.current()
	if err := m.Load(ctx); err != nil {
		a.println(m.Error())
		return err
	}
	a.render.List(a.out, a.heading(), m.Items())
	return nil
}

// View opens the detail dialog for an item.
func (a *App) View(ctx context.Context, id int64) error {
	m := a.current()
	item, err := m.Fetch(ctx, id)
	if err != nil {
		return err
	}
	m.OpenView(item)
	return a.dialogLoop(ctx, m)
}

// New opens an empty create form.
func (a *App) New(ctx context.Context) error {
	m := a.current()
	if err := m.OpenCreate(ctx); err != nil {
		return err
	}
	return a.dialogLoop(ctx, m)
}

// Edit opens the edit form for an item the session owns.
func (a *App) Edit(ctx context.Context, id int64) error {
	m := a.current()
	item, err := m.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := m.OpenEdit(ctx, item); err != nil {
		return err
	}
	return a.dialogLoop(ctx, m)
}

// Delete asks for confirmation and removes an item.
func (a *App) Delete(ctx context.Context, id int64) error {
	m := a.current()
	item, err := m.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDelete(m.Principal(), item) {
		a.notifier.Notify(ctx, notify.Warning, services.MsgDelForbidden)
		return services.ErrForbidden
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %q?", a.render.Text(item.Title)), false, a.out)
	if err != nil || !ok {
		return err
	}
	return m.Delete(ctx, id)
}

func viewPrompt(acts access.Actions) string {
	opts := make([]string, 0, 3)
	if acts.Edit {
		opts = append(opts, "(e)dit")
	}
	if acts.Delete {
		opts = append(opts, "(d)elete")
	}
	opts = append(opts, "(c)lose")
	return strings.Join(opts, ", ")
}

// dialogLoop drives the manager's dialog until it closes. Input errors
// (EOF) close the dialog and are returned.
func (a *App) dialogLoop(ctx context.Context, m *services.ContentManager) error {
	var draft *models.ContentInput

	for {
		if err := ctx.Err(); err != nil {
			m.Close()
			return err
		}
		d := m.Dialog()
		if !d.Open || d.Selected == nil {
			return nil
		}

		switch d.Mode {
		case services.ModeView:
			draft = nil
			a.println()
			a.render.Item(a.out, *d.Selected)

			acts := m.DialogActions()
			choice, err := getSimpleText(a.reader, viewPrompt(acts), a.out)
			if err != nil {
				m.Close()
				return err
			}
			switch strings.ToLower(choice) {
			case "e", "edit":
				if !acts.Edit {
					a.println("Edit is not available for this item.")
					continue
				}
				_ = m.BeginEdit(ctx)
			case "d", "delete":
				if !acts.Delete {
					a.println("Delete is not available for this item.")
					continue
				}
				ok, err := Confirm(a.reader, fmt.Sprintf("Delete %q?", a.render.Text(d.Selected.Title)), false, a.out)
				if err != nil {
					m.Close()
					return err
				}
				if ok {
					_ = m.Delete(ctx, d.Selected.ID)
				}
			case "", "c", "close", "q":
				m.Close()
			default:
				a.println("Unknown choice:", choice)
			}

		case services.ModeCreate, services.ModeEdit:
			base := d.Selected.Input()
			if draft != nil {
				base = *draft
			}
			in, err := a.fillForm(d.Mode, base)
			if err != nil {
				m.Close()
				return err
			}
			draft = &in

			if !m.CanSubmit(in) {
				a.println("Title and description are required.")
				retry, err := Confirm(a.reader, "Try again?", true, a.out)
				if err != nil || !retry {
					m.Close()
					return err
				}
				continue
			}
			save, err := Confirm(a.reader, "Save?", true, a.out)
			if err != nil {
				m.Close()
				return err
			}
			if !save {
				m.Close()
				continue
			}
			if _, err := m.Submit(ctx, in); err != nil {
				if errors.Is(err, services.ErrValidation) {
					a.println("Title and description are required.")
				}
				a.log.Debug(ctx, "submit failed", "error", err)
				retry, cerr := Confirm(a.reader, "Try again?", true, a.out)
				if cerr != nil || !retry {
					m.Close()
					return cerr
				}
			}

		default:
			m.Close()
		}
	}
}

// fillForm asks for every editable field, offering the current value as
// the default.
func (a *App) fillForm(mode services.DialogMode, cur models.ContentInput) (models.ContentInput, error) {
	if mode == services.ModeCreate {
		a.println("New content")
	} else {
		a.println("Edit content (press Enter to keep a value)")
	}

	title, err := GetTextWithDefault(a.reader, "Title", cur.Title, a.out)
	if err != nil {
		return cur, err
	}
	desc, err := GetTextWithDefault(a.reader, "Description", cur.Desc, a.out)
	if err != nil {
		return cur, err
	}

	status := cur.Status
	if status == "" {
		status = models.StatusDraft
	}
	for {
		raw, err := GetTextWithDefault(a.reader, "Status (DRAFT, PUBLISHED, ARCHIVED)", string(status), a.out)
		if err != nil {
			return cur, err
		}
		if s, ok := models.ParseStatus(raw); ok {
			status = s
			break
		}
		a.println("Unknown status:", raw)
	}

	return models.ContentInput{Title: title, Desc: desc, Status: status}, nil
}
