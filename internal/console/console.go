// Package console defines the blocking terminal primitives the chat
// shell is written against.
package console

import (
	"context"
	"errors"
)

// ErrInterrupted is returned when the user aborts a prompt (Ctrl-C).
var ErrInterrupted = errors.New("interrupted")

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Panel is a titled frame drawn above a screen's table.
type Panel struct {
	Title  string
	Header string
}

// Column describes one table column. Width 0 lets the column expand.
type Column struct {
	Title string
	Width int
}

// Table is a plain text table. Cells are not markup.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Screen is the static content shown around a prompt.
type Screen struct {
	Banner string
	Crumbs []string
	Panel  *Panel
	Table  *Table
	// Empty is shown in place of a table without rows.
	Empty string
}

// Console is a synchronous, line-oriented terminal. Every call blocks
// until the user answered or the work finished.
type Console interface {
	// Select shows screen and a list of choices, returning the chosen index.
	Select(ctx context.Context, screen Screen, title string, choices []string) (int, error)
	// Ask reads one line of text. secret masks the input.
	Ask(ctx context.Context, prompt string, secret bool) (string, error)
	// Pause shows a notice and waits for acknowledgment.
	Pause(ctx context.Context, level Level, text string) error
	// Flash queues a notice for the next screen without blocking. It may
	// be called from any goroutine.
	Flash(level Level, text string)
	// Status shows text while fn runs and returns fn's error.
	Status(ctx context.Context, text string, fn func(ctx context.Context) error) error
	// ShowTable shows screen until the user presses a key.
	ShowTable(ctx context.Context, screen Screen) error
	// Live shows frames as they arrive until the channel is closed.
	Live(ctx context.Context, title string, frames <-chan string) error
}
