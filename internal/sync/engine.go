// Package sync ingests inbound WhatsApp events from the bus into the
// message cache.
package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/store"
	"go.uber.org/zap"
)

// CheckpointHistory records the time of the last ingested history batch.
const CheckpointHistory = "history.last_batch_at"

// HistoryBatch is the payload of sync.history_batch events.
type HistoryBatch struct {
	Messages int
	Chats    int
}

// Engine handles idempotent ingestion of messages into the store.
// It subscribes to "wa." events on the bus and processes them in order.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to inbound WhatsApp events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe("wa.", 256)

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event loop to exit.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindWAMessage:
		msg, ok := evt.Payload.(*store.Message)
		if !ok {
			return
		}
		if err := e.IngestMessage(msg); err != nil {
			e.logger.Error("failed to ingest message", zap.Error(err), zap.String("msg_id", msg.MsgID))
		}
	case bus.KindWAHistoryBatch:
		msgs, ok := evt.Payload.([]*store.Message)
		if !ok {
			return
		}
		if err := e.IngestHistoryBatch(msgs); err != nil {
			e.logger.Error("failed to ingest history batch", zap.Error(err), zap.Int("count", len(msgs)))
		}
	case bus.KindWAContacts:
		contacts, ok := evt.Payload.([]store.Contact)
		if !ok {
			return
		}
		if err := e.db.BulkUpsertContacts(contacts); err != nil {
			e.logger.Error("failed to store contacts", zap.Error(err), zap.Int("count", len(contacts)))
			return
		}
		e.logger.Debug("contacts stored", zap.Int("count", len(contacts)))
	}
}

// IngestMessage processes a single message into the store (idempotent).
// An echo of a message this device sent keeps the delivery status the
// outbox recorded.
func (e *Engine) IngestMessage(msg *store.Message) error {
	if msg.FromMe {
		prev, err := e.db.GetMessage(msg.ChatJID, msg.MsgID)
		if err != nil {
			return fmt.Errorf("ingest message: %w", err)
		}
		if prev != nil && prev.Status != msg.Status {
			echo := *msg
			echo.Status = prev.Status
			msg = &echo
		}
	}
	if err := e.db.UpsertMessage(msg); err != nil {
		return fmt.Errorf("ingest message: %w", err)
	}
	if msg.SenderName != "" && msg.SenderJID != "" && !msg.FromMe {
		if err := e.db.UpsertContact(&store.Contact{JID: msg.SenderJID, PushName: msg.SenderName}); err != nil {
			e.logger.Warn("failed to record push name", zap.Error(err), zap.String("jid", msg.SenderJID))
		}
	}

	e.bus.Emit(bus.KindMessageUpserted, map[string]string{
		"chat_jid": msg.ChatJID,
		"msg_id":   msg.MsgID,
	})
	return nil
}

// IngestHistoryBatch processes a batch of history messages in a
// transaction and records the history checkpoint.
func (e *Engine) IngestHistoryBatch(msgs []*store.Message) error {
	chats, err := e.db.IngestBatch(msgs)
	if err != nil {
		return fmt.Errorf("ingest history batch: %w", err)
	}
	if err := e.db.SetCheckpoint(CheckpointHistory, strconv.FormatInt(time.Now().UnixMilli(), 10)); err != nil {
		e.logger.Warn("failed to record history checkpoint", zap.Error(err))
	}

	e.logger.Info("history batch ingested", zap.Int("messages", len(msgs)), zap.Int("chats", chats))
	e.bus.Emit(bus.KindSyncHistoryBatch, HistoryBatch{Messages: len(msgs), Chats: chats})
	return nil
}

// HistorySynced reports whether any history batch was ever ingested.
func (e *Engine) HistorySynced() (bool, error) {
	_, ok, err := e.db.Checkpoint(CheckpointHistory)
	return ok, err
}
