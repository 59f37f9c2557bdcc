package chat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedPeer is returned by Resolve for peers it cannot classify.
	ErrUnsupportedPeer = errors.New("unsupported peer")
	// ErrEmptyInput rejects blank message text before any dispatch.
	ErrEmptyInput = errors.New("message cannot be empty")
	// ErrNoTarget is returned when a conversation has no addressable target.
	ErrNoTarget = errors.New("conversation is not addressable")
)

// CheckText returns ErrEmptyInput when text is blank or whitespace only.
func CheckText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// FetchError wraps a failed listing or history retrieval.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SendError wraps a failed message dispatch.
type SendError struct {
	ClientMsgID int64
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send message %d: %v", e.ClientMsgID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
