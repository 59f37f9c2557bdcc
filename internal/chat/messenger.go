package chat

import (
	"context"
	"encoding/binary"

	"github.com/google/uuid"
)

// Messenger is the remote messaging service as seen by the session logic.
type Messenger interface {
	// ListConversations returns one listing page with its lookup tables.
	ListConversations(ctx context.Context) (*DialogsPage, error)
	// FetchHistory returns up to limit records older than the offset
	// anchor, newest first.
	FetchHistory(ctx context.Context, target Target, offset, limit int) (*MessagesPage, error)
	// SendMessage dispatches text. clientMsgID lets the provider drop
	// duplicate deliveries.
	SendMessage(ctx context.Context, target Target, text string, clientMsgID int64) error
}

// Backend owns the connection to a messaging service. Run connects,
// authenticates, calls fn with a ready Messenger and releases the
// connection on every return path.
type Backend interface {
	Name() string
	Run(ctx context.Context, fn func(ctx context.Context, m Messenger) error) error
}

// NewClientMsgID returns a random 64-bit id for a single send.
func NewClientMsgID() int64 {
	id := uuid.New()
	return int64(binary.BigEndian.Uint64(id[:8]))
}
