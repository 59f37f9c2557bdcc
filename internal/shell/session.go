package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
	"go.uber.org/zap"
)

const (
	// PageSize is the number of history records requested per page.
	PageSize = 20
	// VisibleMessages is the number of transcript entries rendered.
	VisibleMessages = 10
)

// Action is one of the choices offered inside a conversation.
type Action int

const (
	ActionSend Action = iota
	ActionLoadMore
	ActionRefresh
	ActionBack
)

var actionLabels = []string{
	ActionSend:     "Send Message",
	ActionLoadMore: "Load More Messages",
	ActionRefresh:  "Refresh Messages",
	ActionBack:     "Back to Chat List",
}

// Session drives the interaction with one conversation. It owns the
// transcript and the pagination cursor; both are discarded when Run
// returns.
type Session struct {
	conv       chat.Conversation
	messenger  chat.Messenger
	console    console.Console
	logger     *zap.Logger
	crumbs     []string
	transcript chat.Transcript
	offset     int
	newMsgID   func() int64
}

// NewSession creates a session for conv.
func NewSession(conv chat.Conversation, m chat.Messenger, c console.Console, logger *zap.Logger) *Session {
	return &Session{
		conv:      conv,
		messenger: m,
		console:   c,
		logger:    logger.With(zap.String("conversation", conv.Title), zap.Int64("conversation_id", conv.ID)),
		crumbs:    []string{"Main Menu", "Chats", conv.Title},
		newMsgID:  chat.NewClientMsgID,
	}
}

// Run loops until the user goes back. Collaborator failures are reported
// and never end the loop; only console errors are returned.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session opened", zap.Stringer("kind", s.conv.Kind), zap.Bool("sendable", s.conv.Sendable()))
	defer s.logger.Info("session closed")

	for {
		if s.transcript.Empty() {
			if _, err := s.loadPage(ctx, 0); err != nil {
				return err
			}
		}

		idx, err := s.console.Select(ctx, s.screen(), "What would you like to do?", actionLabels)
		if err != nil {
			return err
		}

		switch Action(idx) {
		case ActionSend:
			err = s.send(ctx)
		case ActionLoadMore:
			err = s.loadMore(ctx)
		case ActionRefresh:
			s.transcript.Clear()
			s.offset = 0
			_, err = s.loadPage(ctx, s.offset)
		case ActionBack:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) screen() console.Screen {
	return console.Screen{
		Crumbs: s.crumbs,
		Panel: &console.Panel{
			Title:  s.conv.Title,
			Header: fmt.Sprintf("%s Chat", s.conv.Kind),
		},
		Table: transcriptTable(s.transcript.Tail(VisibleMessages)),
		Empty: "No messages to display.",
	}
}

// loadMore fetches the next older page. The cursor only advances when
// the page was loaded.
func (s *Session) loadMore(ctx context.Context) error {
	next := s.offset + PageSize
	loaded, err := s.loadPage(ctx, next)
	if loaded {
		s.offset = next
	}
	return err
}

// loadPage fetches one page at offset and prepends it. loaded is false
// when nothing was fetched; the transcript is then untouched.
func (s *Session) loadPage(ctx context.Context, offset int) (loaded bool, err error) {
	if !s.conv.Sendable() {
		s.logger.Warn("history requested for unaddressable conversation")
		return false, s.console.Pause(ctx, console.LevelError, "Invalid chat peer.")
	}

	var page *chat.MessagesPage
	err = s.console.Status(ctx, "Loading messages...", func(ctx context.Context) error {
		p, err := s.messenger.FetchHistory(ctx, *s.conv.Target, offset, PageSize)
		if err != nil {
			return &chat.FetchError{Op: "fetch history", Err: err}
		}
		page = p
		return nil
	})
	var fetchErr *chat.FetchError
	if errors.As(err, &fetchErr) {
		s.logger.Error("failed to load messages", zap.Error(err), zap.Int("offset", offset))
		return false, s.console.Pause(ctx, console.LevelError, "Error loading messages: "+fetchErr.Err.Error())
	}
	if err != nil {
		return false, err
	}

	msgs := chat.PageMessages(page)
	s.transcript.PrependAll(msgs)
	s.logger.Debug("page loaded", zap.Int("offset", offset), zap.Int("messages", len(msgs)), zap.Int("total", s.transcript.Len()))
	return true, nil
}

// send prompts for text and dispatches it. A successful send clears the
// transcript so the next iteration reloads from the newest page.
func (s *Session) send(ctx context.Context) error {
	if !s.conv.Sendable() {
		return s.console.Pause(ctx, console.LevelError, "Cannot send message to this chat.")
	}

	text, err := s.console.Ask(ctx, "Enter your message:", false)
	if err != nil {
		return err
	}
	if err := chat.CheckText(text); errors.Is(err, chat.ErrEmptyInput) {
		s.logger.Debug("blank message rejected")
		return s.console.Pause(ctx, console.LevelWarn, "Message cannot be empty.")
	}

	clientMsgID := s.newMsgID()
	err = s.console.Status(ctx, "Sending message...", func(ctx context.Context) error {
		if err := s.messenger.SendMessage(ctx, *s.conv.Target, text, clientMsgID); err != nil {
			return &chat.SendError{ClientMsgID: clientMsgID, Err: err}
		}
		return nil
	})
	var sendErr *chat.SendError
	if errors.As(err, &sendErr) {
		s.logger.Error("failed to send message", zap.Error(err))
		return s.console.Pause(ctx, console.LevelError, "Error sending message: "+sendErr.Err.Error())
	}
	if err != nil {
		return err
	}

	s.logger.Info("message sent", zap.Int64("client_msg_id", clientMsgID))
	s.transcript.Clear()
	return s.console.Pause(ctx, console.LevelInfo, "Message sent successfully!")
}
