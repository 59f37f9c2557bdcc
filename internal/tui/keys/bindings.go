package keys

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// Action represents a keybinding action. An action without a Handler is
// only a hint and lets the key through to the focused widget.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings organized by scope, in registration order.
type Registry struct {
	Global []*Action
	Views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		Views: make(map[string][]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(action *Action) {
	r.Global = append(r.Global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view string, action *Action) {
	r.Views[view] = append(r.Views[view], action)
}

// Hints returns visible keybindings for a given view, view bindings first.
// A view binding hides a global one on the same key.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	seen := make(map[string]bool)
	add := func(actions []*Action) {
		for _, a := range actions {
			if seen[a.Label] {
				continue
			}
			seen[a.Label] = true
			if a.Visible {
				hints = append(hints, ui.MenuHint{Key: a.Label, Description: a.Description})
			}
		}
	}
	add(r.Views[view])
	add(r.Global)
	return hints
}

// HandleEvent dispatches a key event to the first matching action in the
// given view, then to the global bindings. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	if a := match(r.Views[view], ev); a != nil {
		return run(a)
	}
	if a := match(r.Global, ev); a != nil {
		return run(a)
	}
	return false
}

func match(actions []*Action, ev *tcell.EventKey) *Action {
	for _, a := range actions {
		if a.Matches(ev) {
			return a
		}
	}
	return nil
}

func run(a *Action) bool {
	if a.Handler == nil {
		return false
	}
	a.Handler()
	return true
}
