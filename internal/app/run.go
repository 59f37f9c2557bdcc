package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/matheus3301/chatterm/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const lifecycleTimeout = 15 * time.Second

// Env is what a job gets once the backend is connected.
type Env struct {
	Messenger chat.Messenger
	Console   console.Console
	Logger    *zap.Logger
}

// Job is the work done over one connection.
type Job func(ctx context.Context, env Env) error

// Run builds the process, connects the backend and runs job. The fx app
// is stopped on every return path, which releases the session lock and
// flushes the log.
func Run(ctx context.Context, p Params, job Job, opts ...fx.Option) (err error) {
	if p.Getenv == nil {
		p.Getenv = os.Getenv
	}

	var (
		backend chat.Backend
		con     *tui.Console
		logger  *zap.Logger
	)
	options := append([]fx.Option{
		Module(p),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Populate(&backend, &con, &logger),
	}, opts...)

	app := fx.New(options...)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("stop: %w", stopErr)
		}
	}()

	logger.Info("starting", zap.String("backend", backend.Name()))
	err = backend.Run(ctx, func(ctx context.Context, m chat.Messenger) error {
		return job(ctx, Env{Messenger: m, Console: con, Logger: logger})
	})
	switch {
	case err == nil:
		logger.Info("finished")
	case errors.Is(err, console.ErrInterrupted):
		logger.Info("interrupted")
	default:
		logger.Error("run failed", zap.Error(err))
	}
	return err
}
