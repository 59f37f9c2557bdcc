package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
)

type notice struct {
	Level console.Level
	Text  string
}

// scriptedConsole answers prompts from fixed scripts and records what was
// shown. An exhausted script aborts like Ctrl-C would.
type scriptedConsole struct {
	choices []int
	answers []string

	screens []console.Screen
	titles  []string
	asked   []string
	pauses  []notice
	flashes []notice
	tables  []console.Screen
}

func (c *scriptedConsole) Select(_ context.Context, screen console.Screen, title string, choices []string) (int, error) {
	c.screens = append(c.screens, screen)
	c.titles = append(c.titles, title)
	if len(c.choices) == 0 {
		return 0, console.ErrInterrupted
	}
	idx := c.choices[0]
	c.choices = c.choices[1:]
	if idx >= len(choices) {
		return 0, fmt.Errorf("scripted choice %d out of range (%d choices)", idx, len(choices))
	}
	return idx, nil
}

func (c *scriptedConsole) Ask(_ context.Context, prompt string, _ bool) (string, error) {
	c.asked = append(c.asked, prompt)
	if len(c.answers) == 0 {
		return "", console.ErrInterrupted
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

func (c *scriptedConsole) Pause(_ context.Context, level console.Level, text string) error {
	c.pauses = append(c.pauses, notice{level, text})
	return nil
}

func (c *scriptedConsole) Flash(level console.Level, text string) {
	c.flashes = append(c.flashes, notice{level, text})
}

func (c *scriptedConsole) Status(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (c *scriptedConsole) ShowTable(_ context.Context, screen console.Screen) error {
	c.tables = append(c.tables, screen)
	return nil
}

func (c *scriptedConsole) Live(_ context.Context, _ string, frames <-chan string) error {
	for range frames {
	}
	return nil
}

type sentMessage struct {
	Target      chat.Target
	Text        string
	ClientMsgID int64
}

// fakeMessenger serves history pages by offset and records every call.
type fakeMessenger struct {
	dialogs    *chat.DialogsPage
	listErr    error
	pages      map[int]*chat.MessagesPage
	historyErr error
	// failNext makes that many upcoming history fetches fail with failErr.
	failNext int
	failErr  error
	sendErr  error

	listCalls int
	offsets   []int
	limits    []int
	sent      []sentMessage
}

func (m *fakeMessenger) ListConversations(context.Context) (*chat.DialogsPage, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.dialogs, nil
}

func (m *fakeMessenger) FetchHistory(_ context.Context, _ chat.Target, offset, limit int) (*chat.MessagesPage, error) {
	m.offsets = append(m.offsets, offset)
	m.limits = append(m.limits, limit)
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	if m.failNext > 0 {
		m.failNext--
		return nil, m.failErr
	}
	if p, ok := m.pages[offset]; ok {
		return p, nil
	}
	return &chat.MessagesPage{}, nil
}

func (m *fakeMessenger) SendMessage(_ context.Context, target chat.Target, text string, clientMsgID int64) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{target, text, clientMsgID})
	return nil
}

// newestFirst builds a provider page from ids given oldest first.
func newestFirst(oldestFirst ...int64) *chat.MessagesPage {
	page := &chat.MessagesPage{Users: map[int64]chat.UserRecord{7: {ID: 7, FirstName: "Alice"}}}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	for i := len(oldestFirst) - 1; i >= 0; i-- {
		id := oldestFirst[i]
		page.Messages = append(page.Messages, chat.MessageRecord{
			ID:      id,
			Text:    fmt.Sprintf("m%d", id),
			Date:    base.Add(time.Duration(id) * time.Minute),
			FromID:  7,
			HasFrom: true,
		})
	}
	return page
}

func transcriptIDs(t *chat.Transcript) []int64 {
	var out []int64
	for _, m := range t.Messages() {
		out = append(out, m.ID)
	}
	return out
}
