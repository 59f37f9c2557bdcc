package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/matheus3301/chatterm/internal/app"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/shell"
	"github.com/spf13/cobra"
)

type chatEntry struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	ID       int64  `json:"id"`
	Sendable bool   `json:"sendable"`
}

func newChatsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Print the conversation list and exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var catalog chat.Catalog
			err := app.Run(cmd.Context(), flags.params(), func(ctx context.Context, env app.Env) error {
				c, err := shell.LoadCatalog(ctx, env.Messenger, env.Logger)
				catalog = c
				return err
			})
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), catalog, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

func writeCatalog(w io.Writer, catalog chat.Catalog, asJSON bool) error {
	entries := make([]chatEntry, 0, len(catalog))
	for _, c := range catalog {
		entries = append(entries, chatEntry{Kind: c.Kind.String(), Title: c.Title, ID: c.ID, Sendable: c.Sendable()})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No dialogs found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Kind, e.Title, e.ID)
	}
	return tw.Flush()
}
