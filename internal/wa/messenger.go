package wa

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/outbox"
	"github.com/matheus3301/chatterm/internal/store"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
)

const (
	listLimit = 100
	selfName  = "You"
)

// registry maps the numeric ids handed to the session layer back to JIDs.
type registry struct {
	mu   sync.RWMutex
	jids map[int64]string
}

func newRegistry() *registry {
	return &registry{jids: make(map[int64]string)}
}

// id returns the FNV-1a hash of jid and remembers the mapping.
func (r *registry) id(jid string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(jid))
	id := int64(h.Sum64())
	r.mu.Lock()
	r.jids[id] = jid
	r.mu.Unlock()
	return id
}

func (r *registry) jid(id int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jid, ok := r.jids[id]
	return jid, ok
}

// peerType classifies a JID by its server.
func peerType(jid types.JID) chat.PeerType {
	switch jid.Server {
	case types.DefaultUserServer, types.HiddenUserServer:
		return chat.PeerUser
	case types.GroupServer:
		return chat.PeerChat
	case types.NewsletterServer:
		return chat.PeerChannel
	default:
		return chat.PeerUnknown
	}
}

// Messenger serves conversations and history from the local cache and
// sends through the outbox.
type Messenger struct {
	db         *store.DB
	dispatcher *outbox.Dispatcher
	self       string
	ids        *registry
	logger     *zap.Logger
}

var _ chat.Messenger = (*Messenger)(nil)

// NewMessenger creates a cache-backed messenger. self is the account's
// own JID.
func NewMessenger(db *store.DB, dispatcher *outbox.Dispatcher, self string, logger *zap.Logger) *Messenger {
	return &Messenger{
		db:         db,
		dispatcher: dispatcher,
		self:       self,
		ids:        newRegistry(),
		logger:     logger,
	}
}

// ListConversations returns the most recently active cached chats.
func (m *Messenger) ListConversations(_ context.Context) (*chat.DialogsPage, error) {
	chats, err := m.db.ListChats(listLimit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	page := &chat.DialogsPage{
		Users: make(map[int64]chat.UserRecord),
		Chats: make(map[int64]chat.ChatRecord),
	}
	for _, c := range chats {
		jid, err := types.ParseJID(c.JID)
		if err != nil {
			m.logger.Debug("skipping unparseable chat", zap.String("jid", c.JID), zap.Error(err))
			continue
		}
		id := m.ids.id(c.JID)
		kind := peerType(jid)
		page.Dialogs = append(page.Dialogs, chat.Dialog{Peer: chat.PeerRef{Type: kind, ID: id}})

		switch kind {
		case chat.PeerUser:
			page.Users[id] = userRecord(id, jid, c.Name, "")
		case chat.PeerChat:
			page.Chats[id] = chat.ChatRecord{Shape: chat.ShapeChat, ID: id, Title: orJIDUser(c.Name, jid)}
		case chat.PeerChannel:
			page.Chats[id] = chat.ChatRecord{
				Shape:         chat.ShapeChannel,
				ID:            id,
				Title:         orJIDUser(c.Name, jid),
				HasAccessHash: true,
			}
		}
	}
	return page, nil
}

// FetchHistory returns cached messages older than the offset anchor,
// newest first. offset is compared against cache row ids.
func (m *Messenger) FetchHistory(_ context.Context, target chat.Target, offset, limit int) (*chat.MessagesPage, error) {
	jid, ok := m.ids.jid(target.ID)
	if !ok {
		return nil, fmt.Errorf("unknown conversation %d", target.ID)
	}

	rows, err := m.db.ListMessagesBefore(jid, int64(offset), limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	senders := make([]string, 0, len(rows))
	for _, r := range rows {
		if !r.FromMe && r.SenderJID != "" {
			senders = append(senders, r.SenderJID)
		}
	}
	contacts, err := m.db.ContactsByJID(senders)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	page := &chat.MessagesPage{Users: make(map[int64]chat.UserRecord)}
	for _, r := range rows {
		rec := chat.MessageRecord{
			Service: r.MessageType == store.TypeSystem,
			ID:      r.ID,
			Text:    r.Body,
			Date:    time.UnixMilli(r.Timestamp),
		}
		switch {
		case r.FromMe:
			rec.FromID, rec.HasFrom = m.ids.id(m.self), true
			page.Users[rec.FromID] = chat.UserRecord{ID: rec.FromID, FirstName: selfName, HasAccessHash: true}
		case r.SenderJID != "":
			rec.FromID, rec.HasFrom = m.ids.id(r.SenderJID), true
			if _, seen := page.Users[rec.FromID]; !seen {
				page.Users[rec.FromID] = senderRecord(rec.FromID, r, contacts[r.SenderJID])
			}
		}
		page.Messages = append(page.Messages, rec)
	}
	return page, nil
}

// SendMessage delivers text through the outbox.
func (m *Messenger) SendMessage(ctx context.Context, target chat.Target, text string, clientMsgID int64) error {
	jid, ok := m.ids.jid(target.ID)
	if !ok {
		return fmt.Errorf("unknown conversation %d", target.ID)
	}
	_, err := m.dispatcher.Send(ctx, strconv.FormatInt(clientMsgID, 10), jid, text)
	return err
}

func senderRecord(id int64, row store.Message, c store.Contact) chat.UserRecord {
	jid, _ := types.ParseJID(row.SenderJID)
	push := c.PushName
	if push == "" {
		push = row.SenderName
	}
	return userRecord(id, jid, c.FullName, push)
}

// userRecord builds a user entry: the full name becomes the first name,
// the push name or phone number the username.
func userRecord(id int64, jid types.JID, fullName, pushName string) chat.UserRecord {
	u := chat.UserRecord{ID: id, FirstName: fullName, HasAccessHash: true}
	switch {
	case pushName != "":
		u.Username = pushName
	case jid.Server == types.DefaultUserServer:
		u.Username = "+" + jid.User
	default:
		u.Username = jid.User
	}
	return u
}

func orJIDUser(name string, jid types.JID) string {
	if name != "" {
		return name
	}
	return jid.User
}
