package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// BaseDir returns ~/.chatterm.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chatterm"), nil
}

// ConfigPath returns the global config file path under base.
func ConfigPath(base string) string {
	return filepath.Join(base, "config.toml")
}

// Paths locates the files of one named session.
type Paths struct {
	Base string
	Name string
}

// Dir returns the session-specific directory.
func (p Paths) Dir() string {
	return filepath.Join(p.Base, "sessions", p.Name)
}

// TelegramSession returns the gotd session state file.
func (p Paths) TelegramSession() string {
	return filepath.Join(p.Dir(), "telegram.session")
}

// WhatsAppDB returns the whatsmeow device store.
func (p Paths) WhatsAppDB() string {
	return filepath.Join(p.Dir(), "whatsapp.db")
}

// CacheDB returns the app-owned WhatsApp message cache.
func (p Paths) CacheDB() string {
	return filepath.Join(p.Dir(), "cache.db")
}

// LogDir returns the log directory for a session.
func (p Paths) LogDir() string {
	return filepath.Join(p.Dir(), "logs")
}

// LogPath returns the client log file.
func (p Paths) LogPath() string {
	return filepath.Join(p.LogDir(), "chatterm.log")
}

// Ensure creates the session directory tree with proper permissions.
func (p Paths) Ensure() error {
	for _, d := range []string{p.Dir(), p.LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// List returns the names of the session directories under base, sorted.
// A missing sessions directory yields an empty list.
func List(base string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(base, "sessions"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
