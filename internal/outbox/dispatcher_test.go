package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/store"
	"go.uber.org/zap"
)

// mockSender records calls and returns configurable results.
type mockSender struct {
	calls []sendCall
	err   error
}

type sendCall struct {
	JID  string
	Text string
}

func (m *mockSender) SendText(_ context.Context, jid string, text string) (string, error) {
	m.calls = append(m.calls, sendCall{JID: jid, Text: text})
	if m.err != nil {
		return "", m.err
	}
	return "server-1", nil
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSendSuccess(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	ms := &mockSender{}
	d := NewDispatcher(db, ms, b, zap.NewNop())
	d.now = func() time.Time { return time.UnixMilli(42000) }

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	id, err := d.Send(context.Background(), "c1", "chat@g.us", "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != "server-1" {
		t.Errorf("server id = %q, want server-1", id)
	}
	if len(ms.calls) != 1 || ms.calls[0] != (sendCall{"chat@g.us", "hello"}) {
		t.Errorf("calls = %+v", ms.calls)
	}

	e, err := db.GetOutbox("c1")
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != store.OutboxSent || e.ServerMsgID != "server-1" {
		t.Errorf("outbox = %+v, want sent", e)
	}

	m, err := db.GetMessage("chat@g.us", "server-1")
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || !m.FromMe || m.Body != "hello" || m.Timestamp != 42000 {
		t.Errorf("cached message = %+v", m)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindMessageSendAck {
			t.Errorf("event = %q, want %s", evt.Kind, bus.KindMessageSendAck)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send ack")
	}
}

func TestSendFailure(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	d := NewDispatcher(db, &mockSender{err: errors.New("not connected")}, b, zap.NewNop())

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	_, err := d.Send(context.Background(), "c2", "chat@g.us", "hello")
	if err == nil || err.Error() != "not connected" {
		t.Fatalf("Send() error = %v, want not connected", err)
	}

	e, _ := db.GetOutbox("c2")
	if e.Status != store.OutboxFailed || e.ErrorMessage != "not connected" {
		t.Errorf("outbox = %+v, want failed", e)
	}
	if count, _ := db.MessageCount(); count != 0 {
		t.Errorf("failed send cached %d messages", count)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindMessageSendFail {
			t.Errorf("event = %q, want %s", evt.Kind, bus.KindMessageSendFail)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send failure")
	}
}

func TestSendDuplicateClientID(t *testing.T) {
	db := testDB(t)
	ms := &mockSender{}
	d := NewDispatcher(db, ms, bus.New(), zap.NewNop())

	if _, err := d.Send(context.Background(), "same", "chat@g.us", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Send(context.Background(), "same", "chat@g.us", "two"); err == nil {
		t.Error("second Send() with the same client id should fail")
	}
	if len(ms.calls) != 1 {
		t.Errorf("sender called %d times, want 1", len(ms.calls))
	}
}

func TestRecover(t *testing.T) {
	db := testDB(t)
	if err := db.QueueOutbox("stale", "chat@g.us", "x"); err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(db, &mockSender{}, bus.New(), zap.NewNop())
	if err := d.Recover(); err != nil {
		t.Fatal(err)
	}
	e, _ := db.GetOutbox("stale")
	if e.Status != store.OutboxFailed {
		t.Errorf("status = %q, want failed", e.Status)
	}
}
