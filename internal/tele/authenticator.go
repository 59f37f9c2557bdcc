package tele

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/matheus3301/chatterm/internal/console"
)

// errTermsDeclined is returned when the user refuses the terms of service.
var errTermsDeclined = errors.New("terms of service declined")

// consoleAuth answers the login flow from the console.
type consoleAuth struct {
	console console.Console
	phone   string
}

var _ auth.UserAuthenticator = consoleAuth{}

func (a consoleAuth) Phone(context.Context) (string, error) {
	return a.phone, nil
}

func (a consoleAuth) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	code, err := a.console.Ask(ctx, "Enter verification code sent to your Telegram:", false)
	return strings.TrimSpace(code), err
}

func (a consoleAuth) Password(ctx context.Context) (string, error) {
	return a.console.Ask(ctx, "Enter your 2FA password:", true)
}

func (a consoleAuth) SignUp(ctx context.Context) (auth.UserInfo, error) {
	first, err := a.console.Ask(ctx, "Enter your first name:", false)
	if err != nil {
		return auth.UserInfo{}, err
	}
	last, err := a.console.Ask(ctx, "Enter your last name (or press Enter to skip):", false)
	if err != nil {
		return auth.UserInfo{}, err
	}
	return auth.UserInfo{FirstName: strings.TrimSpace(first), LastName: strings.TrimSpace(last)}, nil
}

func (a consoleAuth) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	idx, err := a.console.Select(ctx, console.Screen{
		Banner: "Terms of Service",
		Panel:  &console.Panel{Title: "Telegram Terms of Service", Header: tos.Text},
	}, "Do you accept the terms of service?", []string{"Accept", "Decline"})
	if err != nil {
		return err
	}
	if idx != 0 {
		return errTermsDeclined
	}
	return nil
}
