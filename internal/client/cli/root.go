package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/config"
	"github.com/dmitrijs2005/contentdesk/internal/client/notify"
	"github.com/spf13/cobra"
)

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	v := b.Version
	if v == "" {
		v = "dev"
	}
	s := "contentdesk " + v
	if b.Commit != "" {
		s += " (" + b.Commit + ")"
	}
	if b.Date != "" {
		s += " built " + b.Date
	}
	return s
}

// withRuntime builds a runtime from the command's flags, runs fn and
// closes the runtime.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, cmd.Flags(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

// newApp builds the shell over rt with the command's streams.
func newApp(cmd *cobra.Command, rt *runtime) *App {
	return NewApp(rt.sessions, rt.api,
		WithInput(cmd.InOrStdin()),
		WithOutput(cmd.OutOrStdout()),
		WithAppLogger(rt.log),
	)
}

// NewRootCmd returns the contentdesk command tree. Without a subcommand
// the interactive shell starts.
func NewRootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "contentdesk",
		Short:         "Terminal client for the content portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return newApp(cmd, rt).Run(ctx)
			})
		},
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoAmICmd(),
		newListCmd(),
		newVersionCmd(info),
	)
	return root
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return newApp(cmd, rt).Login(ctx)
			})
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var asAdmin bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return newApp(cmd, rt).Register(ctx, asAdmin)
			})
		},
	}
	cmd.Flags().BoolVar(&asAdmin, "admin", false, "register an administrator (asks for the admin secret)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return newApp(cmd, rt).Logout(ctx)
			})
		},
	}
}

func newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return newApp(cmd, rt).WhoAmI(ctx)
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var mine bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List content",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				app := NewApp(rt.sessions, rt.api,
					WithInput(cmd.InOrStdin()),
					WithOutput(cmd.OutOrStdout()),
					WithAppLogger(rt.log),
					WithAppNotifier(notify.NewConsole(cmd.ErrOrStderr(), rt.log)),
				)
				path := access.PathHome
				if mine {
					path = access.PathMyContent
				}
				return app.Navigate(ctx, path)
			})
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only content you authored")
	return cmd
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout(), info)
		},
	}
}

func printVersion(w io.Writer, info BuildInfo) error {
	_, err := fmt.Fprintln(w, info.String())
	return err
}
