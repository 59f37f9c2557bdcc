package shell

import (
	"context"
	"errors"
	"testing"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func twoChats() *chat.DialogsPage {
	return &chat.DialogsPage{
		Dialogs: []chat.Dialog{
			{Peer: chat.PeerRef{Type: chat.PeerUser, ID: 1}},
			{Folder: true},
			{Peer: chat.PeerRef{Type: chat.PeerChat, ID: 2}},
		},
		Users: map[int64]chat.UserRecord{1: {ID: 1, FirstName: "Alice", AccessHash: 11, HasAccessHash: true}},
		Chats: map[int64]chat.ChatRecord{2: {Shape: chat.ShapeChat, ID: 2, Title: "Team"}},
	}
}

func TestShellExit(t *testing.T) {
	m := &fakeMessenger{}
	c := &scriptedConsole{choices: []int{menuExit}}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Zero(t, m.listCalls)
	require.Equal(t, []string{"What would you like to do?"}, c.titles)
}

func TestShellOpenChatsEndToEnd(t *testing.T) {
	m := &fakeMessenger{
		dialogs: twoChats(),
		pages: map[int]*chat.MessagesPage{
			0:  newestFirst(1, 2, 3, 4, 5),
			20: newestFirst(6, 7, 8),
		},
	}
	c := &scriptedConsole{
		choices: []int{
			menuOpenChats,
			1, // Team
			int(ActionLoadMore),
			int(ActionSend),
			int(ActionBack),
			2, // back to main menu
			menuExit,
		},
		answers: []string{"hi"},
	}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Equal(t, 1, m.listCalls)
	require.Equal(t, []notice{{console.LevelInfo, "Loaded 2 chats!"}}, c.flashes)

	picker := c.screens[1]
	require.Equal(t, "Select Chat", picker.Banner)
	require.Equal(t, "Choose a chat:", c.titles[1])

	// Initial load, the older page, then the reload after the send.
	require.Equal(t, []int{0, 20, 0}, m.offsets)
	require.Len(t, m.sent, 1)
	require.Equal(t, chat.Target{Type: chat.PeerChat, ID: 2}, m.sent[0].Target)

	afterLoadMore := c.screens[3]
	require.Len(t, afterLoadMore.Table.Rows, 8)
	require.Equal(t, "m6", afterLoadMore.Table.Rows[0][2])
	require.Equal(t, "m5", afterLoadMore.Table.Rows[7][2])
	require.Equal(t, []string{"Main Menu", "Chats", "Team"}, afterLoadMore.Crumbs)
}

func TestShellBackReturnsToPicker(t *testing.T) {
	m := &fakeMessenger{
		dialogs: twoChats(),
		pages:   map[int]*chat.MessagesPage{0: newestFirst(1)},
	}
	c := &scriptedConsole{choices: []int{
		menuOpenChats,
		0, int(ActionBack),
		1, int(ActionBack),
		2,
		menuExit,
	}}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Equal(t, 1, m.listCalls, "catalog is built once per visit")
	require.Equal(t, []int{0, 0}, m.offsets)
}

func TestShellEmptyCatalog(t *testing.T) {
	m := &fakeMessenger{dialogs: &chat.DialogsPage{}}
	c := &scriptedConsole{choices: []int{menuOpenChats, menuExit}}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Empty(t, m.offsets)
	require.Equal(t, []notice{
		{console.LevelInfo, "Loaded 0 chats!"},
		{console.LevelWarn, "No chats available."},
	}, c.flashes)
}

func TestShellListFailure(t *testing.T) {
	m := &fakeMessenger{listErr: errors.New("network down")}
	c := &scriptedConsole{choices: []int{menuOpenChats, menuShowTable, menuExit}}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Equal(t, 2, m.listCalls)
	require.Empty(t, c.tables)
	require.Equal(t, []notice{
		{console.LevelError, "Error loading chats: network down"},
		{console.LevelError, "Error loading chats: network down"},
	}, c.pauses)
}

func TestShellShowTable(t *testing.T) {
	m := &fakeMessenger{dialogs: twoChats()}
	c := &scriptedConsole{choices: []int{menuShowTable, menuExit}}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Len(t, c.tables, 1)
	tbl := c.tables[0]
	require.Equal(t, "All Chats", tbl.Banner)
	require.Equal(t, [][]string{
		{"Private", "Alice", "1"},
		{"Group", "Team", "2"},
	}, tbl.Table.Rows)
}

func TestShellShowTableListsUnknownPeers(t *testing.T) {
	page := twoChats()
	page.Dialogs = append(page.Dialogs, chat.Dialog{Peer: chat.PeerRef{Type: chat.PeerUnknown, ID: 99}})
	m := &fakeMessenger{dialogs: page}
	c := &scriptedConsole{choices: []int{menuShowTable, menuExit}}

	require.NoError(t, New(m, c, zap.NewNop()).Run(context.Background()))
	require.Len(t, c.tables, 1)
	require.Equal(t, [][]string{
		{"Private", "Alice", "1"},
		{"Group", "Team", "2"},
		{"Unknown", "Unknown Peer", "Unknown"},
	}, c.tables[0].Table.Rows)
	require.Equal(t, []notice{{console.LevelInfo, "Loaded 3 chats!"}}, c.flashes)
}

func TestShellInterruptPropagates(t *testing.T) {
	m := &fakeMessenger{dialogs: twoChats(), pages: map[int]*chat.MessagesPage{0: newestFirst(1)}}
	c := &scriptedConsole{choices: []int{menuOpenChats, 0}}

	err := New(m, c, zap.NewNop()).Run(context.Background())
	require.ErrorIs(t, err, console.ErrInterrupted)
}

func TestLoadCatalogWrapsListErrors(t *testing.T) {
	m := &fakeMessenger{listErr: errors.New("boom")}
	_, err := LoadCatalog(context.Background(), m, zap.NewNop())

	var fetchErr *chat.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.EqualError(t, fetchErr.Err, "boom")
}

func TestLoadCatalogNilPage(t *testing.T) {
	catalog, err := LoadCatalog(context.Background(), &fakeMessenger{}, zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, catalog)
}
