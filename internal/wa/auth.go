package wa

import (
	"context"

	"github.com/matheus3301/chatterm/internal/bus"
)

// AuthEventType enumerates auth event types.
type AuthEventType string

const (
	AuthEventQRCode        AuthEventType = "qr_code"
	AuthEventAuthenticated AuthEventType = "authenticated"
	AuthEventAuthFailed    AuthEventType = "auth_failed"
	AuthEventTimeout       AuthEventType = "timeout"
)

// AuthEvent represents an auth lifecycle event.
type AuthEvent struct {
	Type    AuthEventType
	QRCode  string
	Message string
}

// Terminal reports whether no further events follow e.
func (e AuthEvent) Terminal() bool {
	return e.Type != AuthEventQRCode
}

// StartQRAuth connects and streams the QR pairing flow. The channel is
// closed after a terminal event or when ctx ends.
func (a *Adapter) StartQRAuth(ctx context.Context) (<-chan AuthEvent, error) {
	qrChan, err := a.GetQRChannel(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan AuthEvent, 1)
	emit := func(evt AuthEvent) bool {
		select {
		case out <- evt:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)

		// Connect must be called after GetQRChannel.
		if err := a.Connect(); err != nil {
			a.bus.Emit(bus.KindSessionAuthFailed, err.Error())
			emit(AuthEvent{Type: AuthEventAuthFailed, Message: err.Error()})
			return
		}

		for item := range qrChan {
			evt, ok := qrEvent(item.Event, item.Code, item.Error)
			if !ok {
				continue
			}
			switch evt.Type {
			case AuthEventQRCode:
				a.bus.Emit(bus.KindSessionQR, evt.QRCode)
			case AuthEventAuthenticated:
				a.bus.Emit(bus.KindSessionAuthenticate, nil)
			default:
				a.bus.Emit(bus.KindSessionAuthFailed, evt.Message)
			}
			if !emit(evt) || evt.Terminal() {
				return
			}
		}
	}()

	return out, nil
}

// qrEvent maps a whatsmeow QR channel item. ok is false for items that
// carry nothing to report.
func qrEvent(event, code string, err error) (AuthEvent, bool) {
	switch event {
	case "code":
		return AuthEvent{Type: AuthEventQRCode, QRCode: code}, true
	case "success":
		return AuthEvent{Type: AuthEventAuthenticated, Message: "authenticated"}, true
	case "timeout":
		return AuthEvent{Type: AuthEventTimeout, Message: "QR code timeout"}, true
	}
	if err != nil {
		return AuthEvent{Type: AuthEventAuthFailed, Message: err.Error()}, true
	}
	if event != "" {
		return AuthEvent{Type: AuthEventAuthFailed, Message: event}, true
	}
	return AuthEvent{}, false
}
