// Package cli provides the contentdesk terminal client.
//
// NewRootCmd builds the cobra command tree. The root command loads
// configuration, opens the local state database, restores the saved
// session and starts an interactive shell (App.Run). One-shot subcommands
// (login, register, logout, whoami, list, version) reuse the same wiring.
//
// The shell is a small REPL over the services package:
//   - navigation between views (home, my, admin) goes through access.Guard;
//   - list/view/new/edit/delete drive a services.ContentManager, whose
//     dialog state is rendered as a prompt loop;
//   - login/register/logout replace the session held by services.SessionStore.
//
// Item text is stripped of markup before printing and dates are shown as
// relative times. See runREPL for the command set.
package cli
