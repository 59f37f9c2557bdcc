package tele

import (
	"context"

	"github.com/gotd/td/tg"
	"github.com/matheus3301/chatterm/internal/chat"
)

const dialogsLimit = 100

// Messenger talks to the Telegram API over a connected client.
type Messenger struct {
	api *tg.Client
}

var _ chat.Messenger = (*Messenger)(nil)

// NewMessenger wraps a raw API client.
func NewMessenger(api *tg.Client) *Messenger {
	return &Messenger{api: api}
}

// ListConversations fetches the first page of dialogs.
func (m *Messenger) ListConversations(ctx context.Context) (*chat.DialogsPage, error) {
	res, err := m.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogsLimit,
	})
	if err != nil {
		return nil, err
	}
	return dialogsPage(res)
}

// FetchHistory fetches limit messages older than the message id offset.
func (m *Messenger) FetchHistory(ctx context.Context, target chat.Target, offset, limit int) (*chat.MessagesPage, error) {
	peer, err := inputPeer(target)
	if err != nil {
		return nil, err
	}
	res, err := m.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     peer,
		OffsetID: offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	return messagesPage(res)
}

// SendMessage sends text; clientMsgID is the request's random id.
func (m *Messenger) SendMessage(ctx context.Context, target chat.Target, text string, clientMsgID int64) error {
	peer, err := inputPeer(target)
	if err != nil {
		return err
	}
	_, err = m.api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: clientMsgID,
	})
	return err
}
