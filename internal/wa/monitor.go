package wa

import (
	"context"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/matheus3301/chatterm/internal/status"
	"github.com/matheus3301/chatterm/internal/sync"
	"go.uber.org/zap"
)

// Monitor reports link and delivery events from the bus. Connection
// problems become console flashes; everything else is logged.
type Monitor struct {
	bus     *bus.Bus
	console console.Console
	logger  *zap.Logger
	cancel  context.CancelFunc
	done    chan struct{}

	disconnected bool
	received     int
}

// NewMonitor creates a monitor. Start must be called to consume events.
func NewMonitor(b *bus.Bus, c console.Console, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{bus: b, console: c, logger: logger}
}

// Start subscribes to session, sync and message events.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	var (
		chans  []<-chan bus.Event
		unsubs []func()
	)
	for _, prefix := range []string{"session.", "sync.", "message."} {
		ch, unsub := m.bus.Subscribe(prefix, 64)
		chans = append(chans, ch)
		unsubs = append(unsubs, unsub)
	}

	go func() {
		defer close(m.done)
		defer func() {
			for _, unsub := range unsubs {
				unsub()
			}
		}()
		for {
			select {
			case evt := <-chans[0]:
				m.handle(evt)
			case evt := <-chans[1]:
				m.handle(evt)
			case evt := <-chans[2]:
				m.handle(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the monitor and waits for its loop to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.logger.Info("monitor stopped", zap.Int("messages_received", m.received))
}

func (m *Monitor) handle(evt bus.Event) {
	switch evt.Kind {
	case bus.KindSessionStatus:
		if c, ok := evt.Payload.(status.StatusChange); ok {
			m.logger.Debug("link state changed", zap.String("from", string(c.From)), zap.String("to", string(c.To)))
		}
	case bus.KindSessionQR:
		m.logger.Debug("pairing code refreshed")
	case bus.KindSessionAuthenticate:
		m.logger.Info("device paired")
	case bus.KindSessionAuthFailed:
		reason, _ := evt.Payload.(string)
		m.logger.Warn("pairing failed", zap.String("reason", reason))
	case bus.KindSessionLoggedOut:
		reason, _ := evt.Payload.(string)
		m.console.Flash(console.LevelError, "WhatsApp session logged out: "+reason)
	case bus.KindSyncDisconnected:
		m.disconnected = true
		m.console.Flash(console.LevelWarn, "WhatsApp disconnected, reconnecting...")
	case bus.KindSyncConnected:
		if m.disconnected {
			m.disconnected = false
			m.console.Flash(console.LevelInfo, "WhatsApp reconnected.")
		}
	case bus.KindSyncHistoryBatch:
		if b, ok := evt.Payload.(sync.HistoryBatch); ok {
			m.logger.Info("history synced", zap.Int("messages", b.Messages), zap.Int("chats", b.Chats))
		}
	case bus.KindMessageUpserted:
		m.received++
	case bus.KindMessageSendAck:
		p, _ := evt.Payload.(map[string]string)
		m.logger.Info("send acknowledged", zap.String("client_msg_id", p["client_msg_id"]), zap.String("server_msg_id", p["server_msg_id"]))
	case bus.KindMessageSendFail:
		p, _ := evt.Payload.(map[string]string)
		m.logger.Warn("send failed", zap.String("client_msg_id", p["client_msg_id"]), zap.String("error", p["error"]))
	}
}
