// Package app composes the process: config, session paths, logger,
// session lock, console and the selected backend.
package app

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/config"
	"github.com/matheus3301/chatterm/internal/lock"
	"github.com/matheus3301/chatterm/internal/logging"
	"github.com/matheus3301/chatterm/internal/session"
	"github.com/matheus3301/chatterm/internal/tele"
	"github.com/matheus3301/chatterm/internal/tui"
	"github.com/matheus3301/chatterm/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the command line overrides passed to the fx module.
type Params struct {
	// Base is the state directory; empty means ~/.chatterm.
	Base string
	// Session and Backend are the --session and --backend flags.
	Session string
	Backend string
	// Getenv reads environment overrides. Defaults to os.Getenv.
	Getenv func(string) string
	// NewScreen overrides the terminal screen, for tests.
	NewScreen func() (tcell.Screen, error)
}

// Resolved is the session selected from flags and config.
type Resolved struct {
	Config *config.Config
	// ConfigPath is where Config was loaded from.
	ConfigPath string
	Paths      session.Paths
	Backend    string
}

// Module returns the fx module wiring every process-wide component.
func Module(p Params) fx.Option {
	return fx.Module("chatterm",
		fx.Supply(p),
		fx.Provide(
			provideResolved,
			provideLogger,
			provideLock,
			provideConsole,
			provideBackend,
		),
		fx.Invoke(func(*lock.Lock) {}),
	)
}

func provideResolved(p Params) (Resolved, error) {
	base := p.Base
	if base == "" {
		var err error
		if base, err = session.BaseDir(); err != nil {
			return Resolved{}, err
		}
	}

	configPath := session.ConfigPath(base)
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return Resolved{}, err
	}
	if err := cfg.ApplyEnv(p.Getenv); err != nil {
		return Resolved{}, err
	}

	name, err := session.Resolve(p.Session, cfg)
	if err != nil {
		return Resolved{}, err
	}
	backend, err := cfg.BackendName(p.Backend)
	if err != nil {
		return Resolved{}, err
	}

	paths := session.Paths{Base: base, Name: name}
	if err := paths.Ensure(); err != nil {
		return Resolved{}, err
	}
	return Resolved{Config: cfg, ConfigPath: configPath, Paths: paths, Backend: backend}, nil
}

func provideLogger(lc fx.Lifecycle, r Resolved) (*zap.Logger, error) {
	logger, err := logging.New(logging.Options{
		Path:     r.Paths.LogPath(),
		Level:    r.Config.Log.Level,
		Disabled: r.Config.Log.Disabled,
		Session:  r.Paths.Name,
		Backend:  r.Backend,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

func provideLock(lc fx.Lifecycle, r Resolved, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring session lock", zap.String("session", r.Paths.Name))
	l, err := lock.Acquire(r.Paths.Dir(), r.Backend)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := l.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			return nil
		},
	})
	return l, nil
}

func provideConsole(p Params, r Resolved, logger *zap.Logger) *tui.Console {
	return tui.New(tui.Options{
		Logger:    logger,
		NewScreen: p.NewScreen,
		Session:   r.Paths.Name,
		Backend:   r.Backend,
	})
}

func provideBackend(r Resolved, con *tui.Console, logger *zap.Logger) chat.Backend {
	if r.Backend == config.BackendWhatsApp {
		return wa.NewBackend(wa.Options{
			DevicePath: r.Paths.WhatsAppDB(),
			CachePath:  r.Paths.CacheDB(),
			Console:    con,
			Logger:     logger,
			RenderQR:   tui.RenderQR,
			OnAccount:  con.SetAccount,
		})
	}
	tgCfg := r.Config.Telegram
	return tele.NewBackend(tele.Options{
		APIID:       tgCfg.APIID,
		APIHash:     tgCfg.APIHash,
		Phone:       tgCfg.Phone,
		SessionPath: r.Paths.TelegramSession(),
		Console:     con,
		Logger:      logger,
		OnAccount:   con.SetAccount,
		OnCredentials: func(apiID int, apiHash, phone string) {
			rememberTelegram(r, apiID, apiHash, phone, logger)
		},
	})
}

// rememberTelegram stores credentials entered at the prompt in the config
// file. Values from the environment are left out.
func rememberTelegram(r Resolved, apiID int, apiHash, phone string, logger *zap.Logger) {
	cfg, err := config.LoadOrDefault(r.ConfigPath)
	if err != nil {
		logger.Warn("cannot reload config", zap.Error(err))
		return
	}
	if cfg.Telegram.APIID == 0 && r.Config.Telegram.APIID == 0 {
		cfg.Telegram.APIID = apiID
	}
	if cfg.Telegram.APIHash == "" && r.Config.Telegram.APIHash == "" {
		cfg.Telegram.APIHash = apiHash
	}
	if cfg.Telegram.Phone == "" && r.Config.Telegram.Phone == "" {
		cfg.Telegram.Phone = phone
	}
	if err := config.Save(r.ConfigPath, cfg); err != nil {
		logger.Warn("cannot save telegram credentials", zap.Error(err))
		return
	}
	logger.Info("telegram credentials saved", zap.String("path", r.ConfigPath))
}
