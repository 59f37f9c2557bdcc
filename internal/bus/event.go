package bus

import "time"

// Event kinds. Subscribers filter by prefix, so "wa." matches every
// inbound WhatsApp event.
const (
	KindWAMessage      = "wa.message"
	KindWAHistoryBatch = "wa.history_batch"
	KindWAContacts     = "wa.contacts"

	KindSyncConnected    = "sync.connected"
	KindSyncDisconnected = "sync.disconnected"
	KindSyncHistoryBatch = "sync.history_batch"

	KindSessionStatus       = "session.status_changed"
	KindSessionLoggedOut    = "session.logged_out"
	KindSessionQR           = "session.qr_generated"
	KindSessionAuthenticate = "session.authenticated"
	KindSessionAuthFailed   = "session.auth_failed"

	KindMessageUpserted = "message.upserted"
	KindMessageSendAck  = "message.send_ack"
	KindMessageSendFail = "message.send_failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
