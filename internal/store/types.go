package store

// Message types stored in messages.message_type. System rows are
// protocol traffic (revokes, reactions, edits) kept for completeness but
// never shown as conversation messages.
const (
	TypeText    = "text"
	TypeMedia   = "media"
	TypeSystem  = "system"
	TypeUnknown = "unknown"
)

// Outbox statuses.
const (
	OutboxQueued  = "queued"
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Chat represents a cached conversation.
type Chat struct {
	JID                string
	Name               string
	LastMessageAt      int64
	LastMessagePreview string
}

// Contact represents a cached address book entry.
type Contact struct {
	JID      string
	FullName string
	PushName string
}

// Message represents a cached message. ID is the cache row id.
type Message struct {
	ID          int64
	ChatJID     string
	MsgID       string
	SenderJID   string
	SenderName  string
	Body        string
	MessageType string
	FromMe      bool
	Status      string
	Timestamp   int64
}

// OutboxEntry represents an outgoing message and its delivery state.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	ChatJID      string
	Body         string
	Status       string
	ErrorMessage string
	ServerMsgID  string
}
