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

var team = chat.Conversation{
	Kind:   chat.KindGroup,
	Title:  "Team",
	ID:     2,
	Target: &chat.Target{Type: chat.PeerChat, ID: 2},
}

func newTestSession(m chat.Messenger, c console.Console, conv chat.Conversation) *Session {
	s := NewSession(conv, m, c, zap.NewNop())
	next := int64(1000)
	s.newMsgID = func() int64 {
		next++
		return next
	}
	return s
}

func TestSessionInitialLoad(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(1, 2, 3, 4, 5)}}
	c := &scriptedConsole{choices: []int{int(ActionBack)}}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []int{0}, m.offsets)
	require.Equal(t, []int{PageSize}, m.limits)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, transcriptIDs(&s.transcript))

	require.Len(t, c.screens, 1)
	scr := c.screens[0]
	require.Equal(t, "Team", scr.Panel.Title)
	require.Equal(t, "Group Chat", scr.Panel.Header)
	require.Len(t, scr.Table.Rows, 5)
	require.Equal(t, "m5", scr.Table.Rows[4][2])
}

func TestSessionLoadMorePrepends(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{
		0:  newestFirst(1, 2, 3),
		20: newestFirst(4, 5, 6),
	}}
	c := &scriptedConsole{choices: []int{int(ActionLoadMore), int(ActionBack)}}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []int{0, 20}, m.offsets)
	require.Equal(t, 20, s.offset)
	require.Equal(t, []int64{4, 5, 6, 1, 2, 3}, transcriptIDs(&s.transcript))
}

func TestSessionLoadMoreRepeatedAnchorDuplicates(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{
		0:  newestFirst(1, 2),
		20: newestFirst(1, 2),
		40: newestFirst(1, 2),
	}}
	c := &scriptedConsole{choices: []int{int(ActionLoadMore), int(ActionLoadMore), int(ActionBack)}}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []int{0, 20, 40}, m.offsets)
	require.Equal(t, 6, s.transcript.Len())
}

func TestSessionRefreshRebuildsFromFirstPage(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{
		0:  newestFirst(1, 2, 3),
		20: newestFirst(4, 5),
	}}
	c := &scriptedConsole{choices: []int{
		int(ActionLoadMore),
		int(ActionRefresh),
		int(ActionLoadMore),
		int(ActionRefresh),
		int(ActionBack),
	}}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []int{0, 20, 0, 20, 0}, m.offsets)
	require.Equal(t, 0, s.offset)
	require.Equal(t, []int64{1, 2, 3}, transcriptIDs(&s.transcript))
}

func TestSessionSendClearsAndReloads(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(1, 2)}}
	c := &scriptedConsole{
		choices: []int{int(ActionSend), int(ActionBack)},
		answers: []string{"hi"},
	}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Len(t, m.sent, 1)
	require.Equal(t, "hi", m.sent[0].Text)
	require.Equal(t, *team.Target, m.sent[0].Target)
	require.Equal(t, int64(1001), m.sent[0].ClientMsgID)
	// The cleared transcript forces a fresh first-page load.
	require.Equal(t, []int{0, 0}, m.offsets)
	require.Equal(t, []notice{{console.LevelInfo, "Message sent successfully!"}}, c.pauses)
}

func TestSessionSendUsesFreshClientIDs(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(1)}}
	c := &scriptedConsole{
		choices: []int{int(ActionSend), int(ActionSend), int(ActionBack)},
		answers: []string{"one", "two"},
	}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Len(t, m.sent, 2)
	require.NotEqual(t, m.sent[0].ClientMsgID, m.sent[1].ClientMsgID)
}

func TestSessionRejectsBlankMessage(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(1, 2)}}
		c := &scriptedConsole{
			choices: []int{int(ActionSend), int(ActionBack)},
			answers: []string{input},
		}
		s := newTestSession(m, c, team)

		require.NoError(t, s.Run(context.Background()))
		require.Empty(t, m.sent, "input %q must not be dispatched", input)
		require.Equal(t, []int{0}, m.offsets, "store must not be cleared")
		require.Equal(t, []int64{1, 2}, transcriptIDs(&s.transcript))
		require.Equal(t, []notice{{console.LevelWarn, "Message cannot be empty."}}, c.pauses)
	}
}

func TestSessionSendFailureKeepsTranscript(t *testing.T) {
	m := &fakeMessenger{
		pages:   map[int]*chat.MessagesPage{0: newestFirst(1, 2)},
		sendErr: errors.New("flood wait"),
	}
	c := &scriptedConsole{
		choices: []int{int(ActionSend), int(ActionBack)},
		answers: []string{"hello"},
	}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []int64{1, 2}, transcriptIDs(&s.transcript))
	require.Equal(t, []int{0}, m.offsets)
	require.Equal(t, []notice{{console.LevelError, "Error sending message: flood wait"}}, c.pauses)
}

func TestSessionSendWithoutTarget(t *testing.T) {
	conv := chat.Conversation{Kind: chat.KindChannel, Title: "Banned", ID: 9}
	m := &fakeMessenger{}
	c := &scriptedConsole{choices: []int{int(ActionSend), int(ActionBack)}}
	s := newTestSession(m, c, conv)

	require.NoError(t, s.Run(context.Background()))
	require.Empty(t, c.asked, "no prompt for unaddressable conversations")
	require.Empty(t, m.sent)
	require.Empty(t, m.offsets)
	require.Contains(t, c.pauses, notice{console.LevelError, "Cannot send message to this chat."})
	require.Contains(t, c.pauses, notice{console.LevelError, "Invalid chat peer."})
}

func TestSessionFetchFailureKeepsTranscript(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(1, 2)}}
	c := &scriptedConsole{choices: []int{int(ActionLoadMore), int(ActionBack)}}
	s := newTestSession(m, c, team)

	ctx := context.Background()
	loaded, err := s.loadPage(ctx, 0)
	require.NoError(t, err)
	require.True(t, loaded)
	m.historyErr = errors.New("timeout")

	require.NoError(t, s.Run(ctx))
	require.Equal(t, []int64{1, 2}, transcriptIDs(&s.transcript))
	require.Equal(t, 0, s.offset)
	require.Equal(t, []notice{{console.LevelError, "Error loading messages: timeout"}}, c.pauses)
}

func TestSessionLoadMoreRetriesSamePageAfterFailure(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{
		0:  newestFirst(1, 2),
		20: newestFirst(5, 6),
		40: newestFirst(9),
	}}
	c := &scriptedConsole{choices: []int{int(ActionLoadMore), int(ActionLoadMore), int(ActionBack)}}
	s := newTestSession(m, c, team)

	ctx := context.Background()
	_, err := s.loadPage(ctx, 0)
	require.NoError(t, err)
	m.failNext, m.failErr = 1, errors.New("timeout")

	require.NoError(t, s.Run(ctx))
	require.Equal(t, []int{0, 20, 20}, m.offsets)
	require.Equal(t, 20, s.offset)
	require.Equal(t, []int64{5, 6, 1, 2}, transcriptIDs(&s.transcript))
}

func TestSessionInterruptEndsLoop(t *testing.T) {
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(1)}}
	c := &scriptedConsole{}
	s := newTestSession(m, c, team)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, console.ErrInterrupted)
}

func TestSessionRendersLastTenMessages(t *testing.T) {
	ids := make([]int64, 15)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	m := &fakeMessenger{pages: map[int]*chat.MessagesPage{0: newestFirst(ids...)}}
	c := &scriptedConsole{choices: []int{int(ActionBack)}}
	s := newTestSession(m, c, team)

	require.NoError(t, s.Run(context.Background()))
	rows := c.screens[0].Table.Rows
	require.Len(t, rows, VisibleMessages)
	require.Equal(t, "m6", rows[0][2])
	require.Equal(t, "m15", rows[9][2])
}
