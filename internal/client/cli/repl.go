package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Navigate(ctx context.Context, path string) error
	List(ctx context.Context) error
	Reload(ctx context.Context) error
	View(ctx context.Context, id int64) error
	New(ctx context.Context) error
	Edit(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Login(ctx context.Context) error
	Register(ctx context.Context, asAdmin bool) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: home, go <path>, (ls) list, reload, view <id>, login, register [--admin], whoami, exit"
	helpLoggedIn  = "Available commands: home, my, admin, go <path>, (ls) list, reload, view <id>, new, edit <id>, delete <id>, whoami, logout, exit"
)

// runREPL starts a simple read-eval-print loop for the contentdesk shell.
//
// It reads a line from r, parses the first token as the command, and
// dispatches to methods on a. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Errors returned by command handlers are not fatal; handlers report them
// to the user themselves. The prompt and the loop's own messages go to w.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	say := func(args ...any) { fmt.Fprintln(w, args...) }

	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "cd %s> \n", statusFn())

		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				say(helpLoggedIn)
			} else {
				say(helpAnonymous)
			}

		case "home":
			_ = a.Navigate(ctx, access.PathHome)

		case "my":
			_ = a.Navigate(ctx, access.PathMyContent)

		case "admin":
			_ = a.Navigate(ctx, access.PathAdmin)

		case "go":
			if len(args) != 1 {
				say("Usage: go <path>")
				continue
			}
			_ = a.Navigate(ctx, args[0])

		case "l", "ls", "list":
			_ = a.List(ctx)

		case "reload":
			_ = a.Reload(ctx)

		case "view", "edit", "delete":
			id, ok := parseID(args)
			if !ok {
				fmt.Fprintf(w, "Usage: %s <id>\n", cmd)
				continue
			}
			switch cmd {
			case "view":
				_ = a.View(ctx, id)
			case "edit":
				_ = a.Edit(ctx, id)
			default:
				_ = a.Delete(ctx, id)
			}

		case "new":
			_ = a.New(ctx)

		case "login":
			_ = a.Login(ctx)

		case "register":
			asAdmin := len(args) == 1 && args[0] == "--admin"
			if len(args) > 0 && !asAdmin {
				say("Usage: register [--admin]")
				continue
			}
			_ = a.Register(ctx, asAdmin)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "exit", "quit":
			say("Bye!")
			return

		default:
			say("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
