package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const upsertContactSQL = `
	INSERT INTO contacts (jid, full_name, push_name, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(jid) DO UPDATE SET
		full_name = CASE WHEN excluded.full_name != '' THEN excluded.full_name ELSE contacts.full_name END,
		push_name = CASE WHEN excluded.push_name != '' THEN excluded.push_name ELSE contacts.push_name END,
		updated_at = excluded.updated_at`

// UpsertContact inserts or updates a contact. Empty names keep the
// stored value.
func (db *DB) UpsertContact(c *Contact) error {
	_, err := db.Exec(upsertContactSQL, c.JID, c.FullName, c.PushName, time.Now().UnixMilli())
	return err
}

// BulkUpsertContacts inserts or updates multiple contacts in a single transaction.
func (db *DB) BulkUpsertContacts(contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		if _, err := tx.Exec(upsertContactSQL, c.JID, c.FullName, c.PushName, now); err != nil {
			return fmt.Errorf("upsert contact %q: %w", c.JID, err)
		}
	}
	return tx.Commit()
}

// GetContact returns a contact by JID, or nil when unknown.
func (db *DB) GetContact(jid string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`SELECT jid, full_name, push_name FROM contacts WHERE jid = ?`, jid).
		Scan(&c.JID, &c.FullName, &c.PushName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ContactsByJID returns the known contacts among jids, keyed by JID.
func (db *DB) ContactsByJID(jids []string) (map[string]Contact, error) {
	out := make(map[string]Contact, len(jids))
	if len(jids) == 0 {
		return out, nil
	}
	args := make([]any, len(jids))
	for i, j := range jids {
		args[i] = j
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(jids)), ",")
	rows, err := db.Query(`SELECT jid, full_name, push_name FROM contacts WHERE jid IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.JID, &c.FullName, &c.PushName); err != nil {
			return nil, err
		}
		out[c.JID] = c
	}
	return out, rows.Err()
}
