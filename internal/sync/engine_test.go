package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/store"
	"go.uber.org/zap"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEngineIngestMessage(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	msg := &store.Message{
		ChatJID: "chat@s.whatsapp.net", MsgID: "m1", Body: "hello",
		SenderJID: "alice@s.whatsapp.net", SenderName: "Alice",
		MessageType: store.TypeText, Timestamp: 1000,
	}
	if err := e.IngestMessage(msg); err != nil {
		t.Fatal(err)
	}

	chat, err := db.GetChat("chat@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if chat == nil {
		t.Fatal("chat not created")
	}

	msgs, err := db.ListMessagesBefore("chat@s.whatsapp.net", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Body != "hello" {
		t.Errorf("got %d messages, want 1 with body=hello", len(msgs))
	}

	contact, err := db.GetContact("alice@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if contact == nil || contact.PushName != "Alice" {
		t.Errorf("push name not recorded: %+v", contact)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindMessageUpserted {
			t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindMessageUpserted)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message.upserted")
	}
}

func TestEngineIngestHistoryBatch(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, zap.NewNop())

	synced, err := e.HistorySynced()
	if err != nil || synced {
		t.Fatalf("HistorySynced() before batch = %v, %v", synced, err)
	}

	ch, unsub := b.Subscribe("sync.", 10)
	defer unsub()

	batch := []*store.Message{
		{ChatJID: "a@g.us", MsgID: "1", Body: "one", MessageType: store.TypeText, Timestamp: 1000},
		{ChatJID: "a@g.us", MsgID: "2", Body: "two", MessageType: store.TypeText, Timestamp: 2000},
		{ChatJID: "b@s.whatsapp.net", MsgID: "3", Body: "three", MessageType: store.TypeText, Timestamp: 3000},
	}
	if err := e.IngestHistoryBatch(batch); err != nil {
		t.Fatal(err)
	}

	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("message count = %d, want 3", count)
	}

	select {
	case evt := <-ch:
		hb, ok := evt.Payload.(HistoryBatch)
		if !ok {
			t.Fatalf("payload = %T, want HistoryBatch", evt.Payload)
		}
		if hb.Messages != 3 || hb.Chats != 2 {
			t.Errorf("batch = %+v, want 3 messages in 2 chats", hb)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for sync.history_batch")
	}

	synced, err = e.HistorySynced()
	if err != nil || !synced {
		t.Errorf("HistorySynced() after batch = %v, %v", synced, err)
	}
}

func TestEngineConsumesBus(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, zap.NewNop())

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	e.Start(context.Background())
	defer e.Stop()

	b.Emit(bus.KindWAContacts, []store.Contact{{JID: "c@s.whatsapp.net", FullName: "Carol"}})
	b.Emit(bus.KindWAMessage, &store.Message{ChatJID: "c@s.whatsapp.net", MsgID: "x", Body: "hi", Timestamp: 5})

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not ingest the bus message")
	}

	contact, err := db.GetContact("c@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if contact == nil || contact.FullName != "Carol" {
		t.Errorf("contacts event not ingested: %+v", contact)
	}
}

func TestEngineIgnoresMalformedPayload(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), zap.NewNop())

	e.handleEvent(bus.Event{Kind: bus.KindWAMessage, Payload: "not a message"})
	e.handleEvent(bus.Event{Kind: bus.KindWAHistoryBatch, Payload: 42})

	count, _ := db.MessageCount()
	if count != 0 {
		t.Errorf("message count = %d, want 0", count)
	}
}

func TestEngineStopWithoutStart(t *testing.T) {
	e := NewEngine(testDB(t), bus.New(), nil)
	e.Stop()
}

func TestEngineOwnEchoKeepsSentStatus(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), zap.NewNop())

	sent := &store.Message{
		ChatJID: "chat@s.whatsapp.net", MsgID: "srv-1", Body: "hi", FromMe: true,
		MessageType: store.TypeText, Status: store.OutboxSent, Timestamp: 1000,
	}
	if err := db.UpsertMessage(sent); err != nil {
		t.Fatal(err)
	}

	echo := &store.Message{
		ChatJID: "chat@s.whatsapp.net", MsgID: "srv-1", Body: "hi", FromMe: true,
		MessageType: store.TypeText, Status: "received", Timestamp: 1000,
	}
	if err := e.IngestMessage(echo); err != nil {
		t.Fatal(err)
	}

	m, err := db.GetMessage("chat@s.whatsapp.net", "srv-1")
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Status != store.OutboxSent {
		t.Errorf("status after echo = %+v, want %q", m, store.OutboxSent)
	}

	// Messages from others are stored as given.
	other := &store.Message{ChatJID: "chat@s.whatsapp.net", MsgID: "in-1", Body: "yo", MessageType: store.TypeText, Timestamp: 2000}
	if err := e.IngestMessage(other); err != nil {
		t.Fatal(err)
	}
	if count, _ := db.MessageCount(); count != 2 {
		t.Errorf("message count = %d, want 2", count)
	}
}
