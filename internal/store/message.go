package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	previewLen = 100

	upsertMessageSQL = `
		INSERT INTO messages (chat_jid, msg_id, sender_jid, sender_name, body, message_type, from_me, status, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_jid, msg_id) DO UPDATE SET
			sender_name = CASE WHEN excluded.sender_name != '' THEN excluded.sender_name ELSE messages.sender_name END,
			body = excluded.body,
			status = excluded.status`

	touchChatSQL = `
		INSERT INTO chats (jid, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			last_message_preview = CASE WHEN excluded.last_message_at >= chats.last_message_at THEN excluded.last_message_preview ELSE chats.last_message_preview END,
			last_message_at = MAX(chats.last_message_at, excluded.last_message_at),
			updated_at = excluded.updated_at`

	messageColumns = `id, chat_jid, msg_id, sender_jid, sender_name, body, message_type, from_me, status, timestamp`
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// UpsertMessage stores a message (idempotent on chat_jid + msg_id) and
// advances its chat's last-message fields.
func (db *DB) UpsertMessage(m *Message) error {
	return upsertMessage(db, m, time.Now().UnixMilli())
}

// IngestBatch stores many messages in one transaction. It returns the
// number of distinct chats touched.
func (db *DB) IngestBatch(msgs []*Message) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	chats := make(map[string]struct{})
	for _, m := range msgs {
		if err := upsertMessage(tx, m, now); err != nil {
			return 0, err
		}
		chats[m.ChatJID] = struct{}{}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(chats), nil
}

func upsertMessage(ex execer, m *Message, now int64) error {
	preview := m.Body
	if m.MessageType == TypeSystem {
		preview = ""
	}
	if _, err := ex.Exec(touchChatSQL, m.ChatJID, m.Timestamp, truncate(preview, previewLen), now); err != nil {
		return fmt.Errorf("upsert chat %q: %w", m.ChatJID, err)
	}
	status := m.Status
	if status == "" {
		status = "received"
	}
	msgType := m.MessageType
	if msgType == "" {
		msgType = TypeUnknown
	}
	if _, err := ex.Exec(upsertMessageSQL,
		m.ChatJID, m.MsgID, m.SenderJID, m.SenderName, m.Body, msgType, m.FromMe, status, m.Timestamp, now); err != nil {
		return fmt.Errorf("upsert message %q: %w", m.MsgID, err)
	}
	return nil
}

// ListMessagesBefore returns up to limit messages of a chat, newest
// first. A positive beforeID restricts the page to rows with a smaller
// cache id.
func (db *DB) ListMessagesBefore(chatJID string, beforeID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_jid = ?`
	args := []any{chatJID}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatJID, &m.MsgID, &m.SenderJID, &m.SenderName, &m.Body, &m.MessageType, &m.FromMe, &m.Status, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessage returns one message by chat and provider id, or nil.
func (db *DB) GetMessage(chatJID, msgID string) (*Message, error) {
	var m Message
	err := db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE chat_jid = ? AND msg_id = ?`, chatJID, msgID).
		Scan(&m.ID, &m.ChatJID, &m.MsgID, &m.SenderJID, &m.SenderName, &m.Body, &m.MessageType, &m.FromMe, &m.Status, &m.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
