package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/matheus3301/chatterm/internal/lock"
	"github.com/matheus3301/chatterm/internal/session"
	"github.com/spf13/cobra"
)

type sessionEntry struct {
	Name    string `json:"name"`
	InUse   bool   `json:"in_use"`
	PID     int    `json:"pid,omitempty"`
	Backend string `json:"backend,omitempty"`
}

func newSessionsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect local sessions.",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions and whether a process holds them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base := flags.home
			if base == "" {
				var err error
				if base, err = session.BaseDir(); err != nil {
					return err
				}
			}
			return listSessions(cmd.OutOrStdout(), base, asJSON)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")

	cmd.AddCommand(list)
	return cmd
}

func listSessions(w io.Writer, base string, asJSON bool) error {
	names, err := session.List(base)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	entries := make([]sessionEntry, 0, len(names))
	for _, name := range names {
		h, held, err := lock.Probe(session.Paths{Base: base, Name: name}.Dir())
		if err != nil {
			return fmt.Errorf("probe session %q: %w", name, err)
		}
		e := sessionEntry{Name: name, InUse: held}
		if held {
			e.PID, e.Backend = h.PID, h.Backend
		}
		entries = append(entries, e)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS")
	for _, e := range entries {
		status := "idle"
		if e.InUse {
			status = fmt.Sprintf("in use (pid %d, %s)", e.PID, e.Backend)
		}
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, status)
	}
	return tw.Flush()
}
