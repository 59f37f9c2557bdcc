package chat

import (
	"fmt"
	"strings"
)

// PeerType tags the variant held by a PeerRef.
type PeerType int

const (
	PeerUnknown PeerType = iota
	PeerUser
	PeerChat
	PeerChannel
)

// PeerRef is a raw conversation peer as delivered by a Messenger.
type PeerRef struct {
	Type PeerType
	ID   int64
}

// UserRecord is a user entry from the lookup table shipped with a page.
type UserRecord struct {
	ID            int64
	FirstName     string
	LastName      string
	Username      string
	AccessHash    int64
	HasAccessHash bool
}

// ChatShape enumerates the chat-like record variants.
type ChatShape int

const (
	ShapeUnknown ChatShape = iota
	ShapeChat
	ShapeChatForbidden
	ShapeChannel
	ShapeChannelForbidden
)

// ChatRecord is a group or channel entry from the lookup table shipped with a page.
type ChatRecord struct {
	Shape         ChatShape
	ID            int64
	Title         string
	Megagroup     bool
	AccessHash    int64
	HasAccessHash bool
}

// Kind is the displayable conversation type.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrivate
	KindGroup
	KindSupergroup
	KindChannel
)

func (k Kind) String() string {
	switch k {
	case KindPrivate:
		return "Private"
	case KindGroup:
		return "Group"
	case KindSupergroup:
		return "Supergroup"
	case KindChannel:
		return "Channel"
	default:
		return "Unknown"
	}
}

// Target addresses a conversation for history and send calls.
// Only the Messenger that produced the peer interprets it.
type Target struct {
	Type       PeerType
	ID         int64
	AccessHash int64
}

// Conversation is a resolved, displayable conversation.
type Conversation struct {
	Kind   Kind
	Title  string
	ID     int64
	Target *Target
}

// Sendable reports whether messages can be addressed to the conversation.
func (c Conversation) Sendable() bool {
	return c.Target != nil
}

// Label is the menu text for the conversation.
func (c Conversation) Label() string {
	return fmt.Sprintf("[%s] %s", c.Kind, c.Title)
}

const (
	unknownTitle     = "Unknown"
	unknownChatTitle = "Unknown Chat"
)

// Resolve classifies a peer into a Conversation using the user and chat
// tables delivered with the same page. It returns ErrUnsupportedPeer for
// peers it cannot classify.
func Resolve(peer PeerRef, users map[int64]UserRecord, chats map[int64]ChatRecord) (Conversation, error) {
	conv := Conversation{Kind: KindUnknown, Title: unknownTitle, ID: peer.ID}

	switch peer.Type {
	case PeerUser:
		conv.Kind = KindPrivate
		u, ok := users[peer.ID]
		if !ok {
			return conv, nil
		}
		conv.Title = DisplayName(u)
		if u.HasAccessHash {
			conv.Target = &Target{Type: PeerUser, ID: peer.ID, AccessHash: u.AccessHash}
		}
		return conv, nil

	case PeerChat:
		conv.Kind = KindGroup
		conv.Target = &Target{Type: PeerChat, ID: peer.ID}
		if c, ok := chats[peer.ID]; ok {
			conv.Title = Title(c)
		}
		return conv, nil

	case PeerChannel:
		conv.Kind = KindChannel
		c, ok := chats[peer.ID]
		if !ok {
			return conv, nil
		}
		conv.Title = Title(c)
		if c.Shape == ShapeChannel && c.Megagroup {
			conv.Kind = KindSupergroup
		}
		if c.Shape == ShapeChannel && c.HasAccessHash {
			conv.Target = &Target{Type: PeerChannel, ID: peer.ID, AccessHash: c.AccessHash}
		}
		return conv, nil

	default:
		return Conversation{}, fmt.Errorf("%w: type %d id %d", ErrUnsupportedPeer, peer.Type, peer.ID)
	}
}

// Title extracts the title of a chat-like record. Forbidden chats keep
// their title; unrecognized shapes yield "Unknown Chat".
func Title(c ChatRecord) string {
	switch c.Shape {
	case ShapeChat, ShapeChatForbidden, ShapeChannel, ShapeChannelForbidden:
		return c.Title
	default:
		return unknownChatTitle
	}
}

// DisplayName returns "first last" trimmed, falling back to the username
// and then to "User <id>".
func DisplayName(u UserRecord) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("User %d", u.ID)
}
