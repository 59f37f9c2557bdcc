package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ids(msgs []Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func msgs(idList ...int64) []Message {
	out := make([]Message, len(idList))
	for i, id := range idList {
		out[i] = Message{ID: id}
	}
	return out
}

func TestPrependAllKeepsPageOrder(t *testing.T) {
	var tr Transcript
	tr.PrependAll(msgs(1, 2, 3))
	tr.PrependAll(msgs(4, 5, 6))
	require.Equal(t, []int64{4, 5, 6, 1, 2, 3}, ids(tr.Messages()))
}

func TestPrependAllNeverSortsByDate(t *testing.T) {
	now := time.Now()
	var tr Transcript
	tr.PrependAll([]Message{{ID: 1, Date: now.Add(-time.Hour)}})
	// A page that is newer than the stored one still goes in front.
	tr.PrependAll([]Message{{ID: 2, Date: now}})
	require.Equal(t, []int64{2, 1}, ids(tr.Messages()))
}

func TestPrependAllKeepsDuplicates(t *testing.T) {
	var tr Transcript
	tr.PrependAll(msgs(1, 2))
	tr.PrependAll(msgs(1, 2))
	require.Equal(t, 4, tr.Len())
}

func TestTail(t *testing.T) {
	var tr Transcript
	tr.PrependAll(msgs(1, 2, 3, 4, 5))
	require.Equal(t, []int64{4, 5}, ids(tr.Tail(2)))
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids(tr.Tail(10)))
	require.Empty(t, tr.Tail(0))
}

func TestClear(t *testing.T) {
	var tr Transcript
	tr.PrependAll(msgs(1, 2))
	require.False(t, tr.Empty())
	tr.Clear()
	require.True(t, tr.Empty())
	require.Equal(t, 0, tr.Len())
}

func TestMessagesReturnsCopy(t *testing.T) {
	var tr Transcript
	tr.PrependAll(msgs(1))
	out := tr.Messages()
	out[0].ID = 99
	require.Equal(t, int64(1), tr.Messages()[0].ID)
}

func TestSenderNameFallbacks(t *testing.T) {
	users := map[int64]UserRecord{
		1: {ID: 1, FirstName: "Alice", LastName: "Smith"},
		2: {ID: 2, Username: "bob"},
		3: {ID: 3},
	}
	require.Equal(t, "Alice Smith", SenderName(MessageRecord{FromID: 1, HasFrom: true}, users))
	require.Equal(t, "bob", SenderName(MessageRecord{FromID: 2, HasFrom: true}, users))
	require.Equal(t, "User 3", SenderName(MessageRecord{FromID: 3, HasFrom: true}, users))
	require.Equal(t, "Unknown", SenderName(MessageRecord{FromID: 4, HasFrom: true}, users))
	require.Equal(t, "Unknown", SenderName(MessageRecord{}, users))
}

func TestPageMessagesReversesAndDropsServiceRecords(t *testing.T) {
	page := &MessagesPage{
		Messages: []MessageRecord{
			{ID: 30, Text: "newest", FromID: 1, HasFrom: true},
			{ID: 29, Service: true},
			{ID: 28, Empty: true},
			{ID: 27, Text: "oldest"},
		},
		Users: map[int64]UserRecord{1: {ID: 1, FirstName: "Alice"}},
	}
	got := PageMessages(page)
	require.Equal(t, []int64{27, 30}, ids(got))
	require.Equal(t, "Unknown", got[0].SenderName)
	require.Equal(t, "Alice", got[1].SenderName)
	require.Equal(t, int64(1), got[1].SenderID)
}

func TestNewClientMsgIDIsNotReused(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := NewClientMsgID()
		require.False(t, seen[id], "duplicate client message id %d", id)
		seen[id] = true
	}
}
