package wa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/matheus3301/chatterm/internal/outbox"
	"github.com/matheus3301/chatterm/internal/status"
	"github.com/matheus3301/chatterm/internal/store"
	"github.com/matheus3301/chatterm/internal/sync"
	"go.uber.org/zap"
)

// Name is the backend name used in config and flags.
const Name = "whatsapp"

// ErrLoggedOut is returned when the phone unlinked this device.
var ErrLoggedOut = errors.New("whatsapp session logged out")

// Options configures the WhatsApp backend.
type Options struct {
	// DevicePath is the whatsmeow device store database.
	DevicePath string
	// CachePath is the local message cache database.
	CachePath string
	Console   console.Console
	Logger    *zap.Logger
	// RenderQR turns a pairing code into printable text.
	RenderQR func(code string) string
	// ConnectTimeout bounds the wait for a usable connection.
	ConnectTimeout time.Duration
	// HistoryTimeout bounds the wait for the first history sync on a
	// fresh cache.
	HistoryTimeout time.Duration
	// OnAccount receives the linked account's push name.
	OnAccount func(name string)
}

// Backend connects to WhatsApp and serves a cache-backed Messenger.
type Backend struct {
	opts   Options
	logger *zap.Logger
}

var _ chat.Backend = (*Backend)(nil)

// NewBackend creates a WhatsApp backend.
func NewBackend(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RenderQR == nil {
		opts.RenderQR = func(code string) string { return code }
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = time.Minute
	}
	if opts.HistoryTimeout == 0 {
		opts.HistoryTimeout = 30 * time.Second
	}
	return &Backend{opts: opts, logger: opts.Logger.Named("wa")}
}

// Name implements chat.Backend.
func (b *Backend) Name() string { return Name }

// Run opens the cache and device store, connects (pairing by QR code on
// first use) and calls fn. Everything is released when Run returns.
func (b *Backend) Run(ctx context.Context, fn func(ctx context.Context, m chat.Messenger) error) error {
	db, res, err := store.OpenMigrated(b.opts.CachePath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = db.Close() }()
	if res.Changed {
		b.logger.Info("cache migrated", zap.Uint("version", res.Version))
	}

	events := bus.New()
	machine := status.NewMachine(events)

	adapter, err := NewAdapter(ctx, b.opts.DevicePath, events, b.logger)
	if err != nil {
		return err
	}
	defer func() { _ = adapter.Close() }()

	adapter.RegisterEventHandler(NewEventHandler(events, machine, adapter, b.logger).Handle)

	monitor := NewMonitor(events, b.opts.Console, b.logger.Named("monitor"))
	monitor.Start(ctx)
	defer monitor.Stop()

	engine := sync.NewEngine(db, events, b.logger.Named("sync"))
	engine.Start(ctx)
	defer engine.Stop()

	dispatcher := outbox.NewDispatcher(db, adapter, events, b.logger.Named("outbox"))
	if err := dispatcher.Recover(); err != nil {
		return err
	}

	if err := b.connect(ctx, adapter, machine); err != nil {
		return err
	}
	defer adapter.Disconnect()

	if err := b.opts.Console.Status(ctx, "Connecting to WhatsApp...", func(ctx context.Context) error {
		return waitUsable(ctx, machine, b.opts.ConnectTimeout)
	}); err != nil {
		return err
	}

	if contacts := adapter.GetContacts(ctx); len(contacts) > 0 {
		events.Emit(bus.KindWAContacts, contacts)
	}
	if err := b.awaitHistory(ctx, db, engine, events); err != nil {
		return err
	}

	if name := adapter.PushName(); name != "" {
		b.opts.Console.Flash(console.LevelInfo, fmt.Sprintf("Welcome, %s!", name))
		if b.opts.OnAccount != nil {
			b.opts.OnAccount(name)
		}
	}
	b.logger.Info("whatsapp ready", zap.String("jid", adapter.OwnJID().String()))

	return fn(ctx, NewMessenger(db, dispatcher, adapter.OwnJID().String(), b.logger.Named("messenger")))
}

// connect starts the connection, pairing first when the device has no
// credentials.
func (b *Backend) connect(ctx context.Context, adapter *Adapter, machine *status.Machine) error {
	if adapter.IsLoggedIn() {
		_ = machine.Transition(status.Connecting)
		if err := adapter.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return nil
	}

	_ = machine.Transition(status.AuthRequired)
	return b.pair(ctx, adapter)
}

// pair shows QR codes until the phone links this device.
func (b *Backend) pair(ctx context.Context, adapter *Adapter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	authEvents, err := adapter.StartQRAuth(ctx)
	if err != nil {
		return err
	}

	frames := make(chan string)
	var authErr error
	go func() {
		defer close(frames)
		for evt := range authEvents {
			switch evt.Type {
			case AuthEventQRCode:
				frame := "Scan this QR code with WhatsApp (Linked devices):\n\n" + b.opts.RenderQR(evt.QRCode)
				select {
				case frames <- frame:
				case <-ctx.Done():
					return
				}
			case AuthEventAuthenticated:
				return
			default:
				authErr = fmt.Errorf("pairing failed: %s", evt.Message)
				return
			}
		}
	}()

	if err := b.opts.Console.Live(ctx, "Link WhatsApp", frames); err != nil {
		adapter.Disconnect()
		return err
	}
	if authErr != nil {
		adapter.Disconnect()
		return authErr
	}
	return nil
}

// awaitHistory waits for the first history batch when the cache has
// never been synced and is empty.
func (b *Backend) awaitHistory(ctx context.Context, db *store.DB, engine *sync.Engine, events *bus.Bus) error {
	synced, err := engine.HistorySynced()
	if err != nil {
		return fmt.Errorf("read history checkpoint: %w", err)
	}
	empty, err := cacheEmpty(db)
	if err != nil {
		return err
	}
	if synced || !empty {
		return nil
	}

	batches, unsub := events.Subscribe(bus.KindSyncHistoryBatch, 1)
	defer unsub()

	err = b.opts.Console.Status(ctx, "Waiting for chat history from your phone...", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, b.opts.HistoryTimeout)
		defer cancel()
		select {
		case <-batches:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if errors.Is(err, context.DeadlineExceeded) {
		b.logger.Warn("no history received", zap.Duration("timeout", b.opts.HistoryTimeout))
		b.opts.Console.Flash(console.LevelWarn, "History is still syncing; chats will appear as they arrive.")
		return nil
	}
	return err
}

// cacheEmpty reports whether the cache holds neither chats nor messages.
func cacheEmpty(db *store.DB) (bool, error) {
	chats, err := db.ChatCount()
	if err != nil {
		return false, fmt.Errorf("count chats: %w", err)
	}
	msgs, err := db.MessageCount()
	if err != nil {
		return false, fmt.Errorf("count messages: %w", err)
	}
	return chats == 0 && msgs == 0, nil
}

// waitUsable blocks until the link can serve requests.
func waitUsable(ctx context.Context, machine *status.Machine, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	st, err := machine.WaitFor(ctx, status.Syncing, status.Ready, status.LoggedOut)
	if err != nil {
		return fmt.Errorf("waiting for connection (state %s): %w", st, err)
	}
	if st == status.LoggedOut {
		return ErrLoggedOut
	}
	return nil
}
