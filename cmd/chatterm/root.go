package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/chatterm/internal/app"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/matheus3301/chatterm/internal/shell"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	session string
	backend string
	home    string
}

func (f *globalFlags) params() app.Params {
	return app.Params{Base: f.home, Session: f.session, Backend: f.backend}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "chatterm",
		Short: "Terminal chat client for Telegram and WhatsApp.",
		Long: `chatterm lists your conversations, shows recent history and sends text
messages from the terminal.

  chatterm                        open the interactive menu
  chatterm --backend whatsapp     use WhatsApp instead of Telegram
  chatterm --session work         use a separate login and cache
  chatterm chats --json           print the conversation list
  chatterm sessions list          list sessions and whether they are in use`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), cmd, flags.params())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&flags.session, "session", "", "session name (overrides config default)")
	f.StringVar(&flags.backend, "backend", "", "backend: telegram or whatsapp (overrides config)")
	f.StringVar(&flags.home, "home", "", "state directory (default ~/.chatterm)")
	_ = f.MarkHidden("home")

	root.AddCommand(newChatsCmd(flags), newSessionsCmd(flags))
	return root
}

func runShell(ctx context.Context, cmd *cobra.Command, p app.Params) error {
	err := app.Run(ctx, p, func(ctx context.Context, env app.Env) error {
		return shell.New(env.Messenger, env.Console, env.Logger).Run(ctx)
	})
	if err != nil && !errors.Is(err, console.ErrInterrupted) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Goodbye!")
	return nil
}
