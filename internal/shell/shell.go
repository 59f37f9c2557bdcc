// Package shell implements the interactive flow: the main menu, the
// conversation picker and the per-conversation session loop.
package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
	"go.uber.org/zap"
)

const (
	menuOpenChats = iota
	menuShowTable
	menuExit
)

var menuLabels = []string{
	menuOpenChats: "Open Chats (Interactive)",
	menuShowTable: "Show All Chats (Table View)",
	menuExit:      "Exit",
}

const backToMenu = "← Back to Main Menu"

// Shell is the top-level menu loop.
type Shell struct {
	messenger chat.Messenger
	console   console.Console
	logger    *zap.Logger
}

// New creates a shell over a connected messenger.
func New(m chat.Messenger, c console.Console, logger *zap.Logger) *Shell {
	return &Shell{messenger: m, console: c, logger: logger}
}

// Run shows the main menu until the user exits. It returns
// console.ErrInterrupted when a prompt was aborted.
func (sh *Shell) Run(ctx context.Context) error {
	for {
		idx, err := sh.console.Select(ctx, console.Screen{
			Banner: "Main Menu",
			Crumbs: []string{"Main Menu"},
		}, "What would you like to do?", menuLabels)
		if err != nil {
			return err
		}

		switch idx {
		case menuOpenChats:
			err = sh.openChats(ctx)
		case menuShowTable:
			err = sh.showTable(ctx)
		case menuExit:
			sh.logger.Info("exit requested")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// openChats builds the catalog once and lets the user pick
// conversations until they go back.
func (sh *Shell) openChats(ctx context.Context) error {
	page, ok, err := sh.loadDialogs(ctx)
	if err != nil || !ok {
		return err
	}
	catalog := resolveCatalog(page, sh.logger)
	sh.console.Flash(console.LevelInfo, fmt.Sprintf("Loaded %d chats!", len(catalog)))

	for {
		if len(catalog) == 0 {
			sh.console.Flash(console.LevelWarn, "No chats available.")
			return nil
		}

		choices := append(catalog.Labels(), backToMenu)
		idx, err := sh.console.Select(ctx, console.Screen{
			Banner: "Select Chat",
			Crumbs: []string{"Main Menu", "Chats"},
		}, "Choose a chat:", choices)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(catalog) {
			return nil
		}

		if err := NewSession(catalog[idx], sh.messenger, sh.console, sh.logger).Run(ctx); err != nil {
			return err
		}
	}
}

// showTable renders every dialog as a static table. Peers that cannot be
// resolved are listed as unknown rather than dropped.
func (sh *Shell) showTable(ctx context.Context) error {
	page, ok, err := sh.loadDialogs(ctx)
	if err != nil || !ok {
		return err
	}
	listing := chat.BuildListing(page)
	sh.console.Flash(console.LevelInfo, fmt.Sprintf("Loaded %d chats!", len(listing)))

	return sh.console.ShowTable(ctx, console.Screen{
		Banner: "All Chats",
		Crumbs: []string{"Main Menu", "All Chats"},
		Table:  listingTable(listing),
		Empty:  "No dialogs found.",
	})
}

// loadDialogs fetches the conversation listing under a spinner. ok is
// false when the fetch failed and the failure was already reported.
func (sh *Shell) loadDialogs(ctx context.Context) (*chat.DialogsPage, bool, error) {
	var page *chat.DialogsPage
	err := sh.console.Status(ctx, "Loading your chats...", func(ctx context.Context) error {
		p, err := LoadDialogs(ctx, sh.messenger)
		page = p
		return err
	})
	var fetchErr *chat.FetchError
	if errors.As(err, &fetchErr) {
		sh.logger.Error("failed to load chats", zap.Error(err))
		return nil, false, sh.console.Pause(ctx, console.LevelError, "Error loading chats: "+fetchErr.Err.Error())
	}
	if err != nil {
		return nil, false, err
	}
	return page, true, nil
}

// LoadDialogs lists conversations. Listing failures are returned as
// *chat.FetchError.
func LoadDialogs(ctx context.Context, m chat.Messenger) (*chat.DialogsPage, error) {
	page, err := m.ListConversations(ctx)
	if err != nil {
		return nil, &chat.FetchError{Op: "list conversations", Err: err}
	}
	return page, nil
}

// LoadCatalog lists conversations and resolves them. Listing failures are
// returned as *chat.FetchError.
func LoadCatalog(ctx context.Context, m chat.Messenger, logger *zap.Logger) (chat.Catalog, error) {
	page, err := LoadDialogs(ctx, m)
	if err != nil {
		return nil, err
	}
	return resolveCatalog(page, logger), nil
}

func resolveCatalog(page *chat.DialogsPage, logger *zap.Logger) chat.Catalog {
	if page == nil {
		return nil
	}
	catalog := chat.BuildCatalog(page)
	if skipped := len(page.Dialogs) - len(catalog); skipped > 0 {
		logger.Debug("dialogs skipped", zap.Int("skipped", skipped), zap.Int("total", len(page.Dialogs)))
	}
	return catalog
}
