// Package outbox records every outgoing WhatsApp message in the cache
// outbox and walks it through queued, sending and sent or failed.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/store"
	"go.uber.org/zap"
)

// TextSender is the interface for sending text messages via WhatsApp.
type TextSender interface {
	SendText(ctx context.Context, jid string, text string) (serverMsgID string, err error)
}

// Dispatcher sends one message at a time and keeps the outbox and the
// message cache in step with the result.
type Dispatcher struct {
	db     *store.DB
	sender TextSender
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewDispatcher creates an outbox dispatcher.
func NewDispatcher(db *store.DB, sender TextSender, b *bus.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		db:     db,
		sender: sender,
		bus:    b,
		logger: logger,
		now:    time.Now,
	}
}

// Recover fails entries an earlier run left queued or sending. They are
// never retried: the user saw the send fail or never saw it finish.
func (d *Dispatcher) Recover() error {
	n, err := d.db.FailStaleOutbox("interrupted before delivery")
	if err != nil {
		return fmt.Errorf("recover outbox: %w", err)
	}
	if n > 0 {
		d.logger.Warn("stale outbox entries failed", zap.Int64("count", n))
	}
	return nil
}

// Send queues text for chatJID, delivers it and returns the server id.
// On success the sent message is stored in the cache so the next history
// read shows it.
func (d *Dispatcher) Send(ctx context.Context, clientMsgID, chatJID, text string) (string, error) {
	log := d.logger.With(zap.String("client_msg_id", clientMsgID), zap.String("chat_jid", chatJID))

	if err := d.db.QueueOutbox(clientMsgID, chatJID, text); err != nil {
		return "", fmt.Errorf("queue outbox: %w", err)
	}
	if err := d.db.MarkOutboxSending(clientMsgID); err != nil {
		log.Error("failed to mark sending", zap.Error(err))
	}

	serverMsgID, err := d.sender.SendText(ctx, chatJID, text)
	if err != nil {
		log.Error("failed to send message", zap.Error(err))
		if markErr := d.db.MarkOutboxFailed(clientMsgID, err.Error()); markErr != nil {
			log.Error("failed to mark failed", zap.Error(markErr))
		}
		d.bus.Emit(bus.KindMessageSendFail, map[string]string{
			"client_msg_id": clientMsgID,
			"error":         err.Error(),
		})
		return "", err
	}

	if err := d.db.MarkOutboxSent(clientMsgID, serverMsgID); err != nil {
		log.Error("failed to mark sent", zap.Error(err))
	}
	if err := d.db.UpsertMessage(&store.Message{
		ChatJID:     chatJID,
		MsgID:       serverMsgID,
		Body:        text,
		MessageType: store.TypeText,
		FromMe:      true,
		Status:      store.OutboxSent,
		Timestamp:   d.now().UnixMilli(),
	}); err != nil {
		log.Error("failed to cache sent message", zap.Error(err))
	}

	log.Info("message sent", zap.String("server_msg_id", serverMsgID))
	d.bus.Emit(bus.KindMessageSendAck, map[string]string{
		"client_msg_id": clientMsgID,
		"server_msg_id": serverMsgID,
	})
	return serverMsgID, nil
}
