package chat

import "time"

// Message is one entry of a transcript.
type Message struct {
	ID         int64
	Text       string
	Date       time.Time
	SenderID   int64
	SenderName string
}

// MessageRecord is a raw history record. Service and Empty records are
// not messages and never reach a transcript.
type MessageRecord struct {
	Service bool
	Empty   bool
	ID      int64
	Text    string
	Date    time.Time
	FromID  int64
	HasFrom bool
}

// MessagesPage is one history response, newest record first.
type MessagesPage struct {
	Messages []MessageRecord
	Users    map[int64]UserRecord
}

// SenderName resolves the display name of a record's sender. Records
// without a sender, or whose sender is missing from users, yield "Unknown".
func SenderName(rec MessageRecord, users map[int64]UserRecord) string {
	if !rec.HasFrom {
		return unknownTitle
	}
	u, ok := users[rec.FromID]
	if !ok {
		return unknownTitle
	}
	return DisplayName(u)
}

// PageMessages converts a history page into transcript messages, oldest
// first.
func PageMessages(page *MessagesPage) []Message {
	if page == nil {
		return nil
	}
	out := make([]Message, 0, len(page.Messages))
	for i := len(page.Messages) - 1; i >= 0; i-- {
		rec := page.Messages[i]
		if rec.Service || rec.Empty {
			continue
		}
		out = append(out, Message{
			ID:         rec.ID,
			Text:       rec.Text,
			Date:       rec.Date,
			SenderID:   rec.FromID,
			SenderName: SenderName(rec, page.Users),
		})
	}
	return out
}
