// Package tele is the Telegram backend built on gotd.
package tele

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
	"go.uber.org/zap"
)

// Name is the backend name used in config and flags.
const Name = "telegram"

// Options configures the Telegram backend. Missing credentials are asked
// for on the console before connecting.
type Options struct {
	APIID       int
	APIHash     string
	Phone       string
	SessionPath string
	Console     console.Console
	Logger      *zap.Logger
	// OnAccount receives the signed-in user's display name.
	OnAccount func(name string)
	// OnCredentials receives the credentials after any were entered on
	// the console, so they can be remembered.
	OnCredentials func(apiID int, apiHash, phone string)
}

// Backend connects to Telegram with a persistent session file.
type Backend struct {
	opts   Options
	logger *zap.Logger
}

var _ chat.Backend = (*Backend)(nil)

// NewBackend creates a Telegram backend.
func NewBackend(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Backend{opts: opts, logger: opts.Logger.Named("tg")}
}

// Name implements chat.Backend.
func (b *Backend) Name() string { return Name }

// Run connects, logs in if the session is not authorized and calls fn.
// The connection is closed when Run returns.
func (b *Backend) Run(ctx context.Context, fn func(ctx context.Context, m chat.Messenger) error) error {
	creds, err := b.credentials(ctx)
	if err != nil {
		return err
	}

	client := telegram.NewClient(creds.APIID, creds.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: b.opts.SessionPath},
		Logger:         b.logger.Named("client"),
	})

	return client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(consoleAuth{console: b.opts.Console, phone: creds.Phone}, auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authorize: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("get self: %w", err)
		}
		b.logger.Info("authorized", zap.Int64("user_id", self.ID))
		b.opts.Console.Flash(console.LevelInfo, fmt.Sprintf("Welcome, %s!", self.FirstName))
		if b.opts.OnAccount != nil {
			b.opts.OnAccount(strings.TrimSpace(self.FirstName + " " + self.LastName))
		}

		return fn(ctx, NewMessenger(client.API()))
	})
}

type credentials struct {
	APIID   int
	APIHash string
	Phone   string
}

// credentials fills in missing values from the console.
func (b *Backend) credentials(ctx context.Context) (credentials, error) {
	c := credentials{APIID: b.opts.APIID, APIHash: b.opts.APIHash, Phone: b.opts.Phone}
	ask := b.opts.Console.Ask
	prompted := false

	if c.APIID == 0 {
		raw, err := ask(ctx, "Enter your Telegram API ID:", false)
		if err != nil {
			return c, err
		}
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || id <= 0 {
			return c, fmt.Errorf("invalid API ID %q", raw)
		}
		c.APIID = id
		prompted = true
	}
	if c.APIHash == "" {
		raw, err := ask(ctx, "Enter your Telegram API Hash:", false)
		if err != nil {
			return c, err
		}
		c.APIHash = strings.TrimSpace(raw)
		prompted = true
	}
	if c.Phone == "" {
		raw, err := ask(ctx, "Enter your phone number (with country code, e.g., +1234567890):", false)
		if err != nil {
			return c, err
		}
		c.Phone = strings.TrimSpace(raw)
		prompted = true
	}
	if prompted && b.opts.OnCredentials != nil {
		b.opts.OnCredentials(c.APIID, c.APIHash, c.Phone)
	}
	return c, nil
}
