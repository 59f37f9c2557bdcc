package tele

import (
	"fmt"
	"time"

	"github.com/gotd/td/tg"
	"github.com/matheus3301/chatterm/internal/chat"
)

// dialogsPage converts a messages.getDialogs result.
func dialogsPage(res tg.MessagesDialogsClass) (*chat.DialogsPage, error) {
	var (
		dialogs []tg.DialogClass
		users   []tg.UserClass
		chats   []tg.ChatClass
	)
	switch d := res.(type) {
	case *tg.MessagesDialogs:
		dialogs, users, chats = d.Dialogs, d.Users, d.Chats
	case *tg.MessagesDialogsSlice:
		dialogs, users, chats = d.Dialogs, d.Users, d.Chats
	case *tg.MessagesDialogsNotModified:
		return &chat.DialogsPage{}, nil
	default:
		return nil, fmt.Errorf("unexpected dialogs result %T", res)
	}

	page := &chat.DialogsPage{
		Users: userTable(users),
		Chats: chatTable(chats),
	}
	for _, d := range dialogs {
		switch d := d.(type) {
		case *tg.Dialog:
			page.Dialogs = append(page.Dialogs, chat.Dialog{Peer: peerRef(d.Peer)})
		case *tg.DialogFolder:
			page.Dialogs = append(page.Dialogs, chat.Dialog{Folder: true})
		}
	}
	return page, nil
}

// messagesPage converts a messages.getHistory result.
func messagesPage(res tg.MessagesMessagesClass) (*chat.MessagesPage, error) {
	var (
		msgs  []tg.MessageClass
		users []tg.UserClass
	)
	switch m := res.(type) {
	case *tg.MessagesMessages:
		msgs, users = m.Messages, m.Users
	case *tg.MessagesMessagesSlice:
		msgs, users = m.Messages, m.Users
	case *tg.MessagesChannelMessages:
		msgs, users = m.Messages, m.Users
	case *tg.MessagesMessagesNotModified:
		return &chat.MessagesPage{}, nil
	default:
		return nil, fmt.Errorf("unexpected history result %T", res)
	}

	page := &chat.MessagesPage{Users: userTable(users)}
	for _, m := range msgs {
		page.Messages = append(page.Messages, messageRecord(m))
	}
	return page, nil
}

func messageRecord(m tg.MessageClass) chat.MessageRecord {
	switch m := m.(type) {
	case *tg.Message:
		rec := chat.MessageRecord{
			ID:   int64(m.ID),
			Text: m.Message,
			Date: time.Unix(int64(m.Date), 0),
		}
		if from, ok := m.GetFromID(); ok {
			rec.FromID, rec.HasFrom = peerRef(from).ID, true
		}
		return rec
	case *tg.MessageService:
		return chat.MessageRecord{Service: true, ID: int64(m.ID), Date: time.Unix(int64(m.Date), 0)}
	default:
		return chat.MessageRecord{Empty: true, ID: int64(m.GetID())}
	}
}

func peerRef(p tg.PeerClass) chat.PeerRef {
	switch p := p.(type) {
	case *tg.PeerUser:
		return chat.PeerRef{Type: chat.PeerUser, ID: p.UserID}
	case *tg.PeerChat:
		return chat.PeerRef{Type: chat.PeerChat, ID: p.ChatID}
	case *tg.PeerChannel:
		return chat.PeerRef{Type: chat.PeerChannel, ID: p.ChannelID}
	default:
		return chat.PeerRef{Type: chat.PeerUnknown}
	}
}

func userTable(users []tg.UserClass) map[int64]chat.UserRecord {
	out := make(map[int64]chat.UserRecord, len(users))
	for _, u := range users {
		user, ok := u.(*tg.User)
		if !ok {
			continue
		}
		rec := chat.UserRecord{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Username:  user.Username,
		}
		rec.AccessHash, rec.HasAccessHash = user.GetAccessHash()
		out[user.ID] = rec
	}
	return out
}

func chatTable(chats []tg.ChatClass) map[int64]chat.ChatRecord {
	out := make(map[int64]chat.ChatRecord, len(chats))
	for _, c := range chats {
		var rec chat.ChatRecord
		switch c := c.(type) {
		case *tg.Chat:
			rec = chat.ChatRecord{Shape: chat.ShapeChat, ID: c.ID, Title: c.Title}
		case *tg.ChatForbidden:
			rec = chat.ChatRecord{Shape: chat.ShapeChatForbidden, ID: c.ID, Title: c.Title}
		case *tg.Channel:
			rec = chat.ChatRecord{Shape: chat.ShapeChannel, ID: c.ID, Title: c.Title, Megagroup: c.Megagroup}
			rec.AccessHash, rec.HasAccessHash = c.GetAccessHash()
		case *tg.ChannelForbidden:
			rec = chat.ChatRecord{
				Shape:         chat.ShapeChannelForbidden,
				ID:            c.ID,
				Title:         c.Title,
				AccessHash:    c.AccessHash,
				HasAccessHash: true,
			}
		default:
			rec = chat.ChatRecord{Shape: chat.ShapeUnknown, ID: c.GetID()}
		}
		out[rec.ID] = rec
	}
	return out
}

// inputPeer builds the request peer for target.
func inputPeer(target chat.Target) (tg.InputPeerClass, error) {
	switch target.Type {
	case chat.PeerUser:
		return &tg.InputPeerUser{UserID: target.ID, AccessHash: target.AccessHash}, nil
	case chat.PeerChat:
		return &tg.InputPeerChat{ChatID: target.ID}, nil
	case chat.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: target.ID, AccessHash: target.AccessHash}, nil
	default:
		return nil, fmt.Errorf("%w: type %d", chat.ErrNoTarget, target.Type)
	}
}
