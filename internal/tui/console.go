// Package tui renders the console primitives with tview. Every prompt
// runs its own short-lived application over a fresh screen so the caller
// keeps a plain sequential control flow.
package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/matheus3301/chatterm/internal/tui/keys"
	"github.com/matheus3301/chatterm/internal/tui/ui"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	viewSelect = "select"
	viewAsk    = "ask"
	viewPause  = "pause"
	viewStatus = "status"
	viewTable  = "table"
	viewLive   = "live"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Options configures a Console.
type Options struct {
	Logger *zap.Logger
	// NewScreen creates the screen for one prompt. Defaults to tcell.NewScreen.
	NewScreen func() (tcell.Screen, error)
	Session   string
	Backend   string
}

// Console implements console.Console. Only Flash is safe for concurrent use.
type Console struct {
	logger    *zap.Logger
	newScreen func() (tcell.Screen, error)
	theme     *ui.Theme
	flash     *ui.FlashModel

	mu      sync.Mutex
	info    ui.SessionData
	last    console.Screen
	spinInt time.Duration
}

var _ console.Console = (*Console)(nil)

// New creates a console.
func New(opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newScreen := opts.NewScreen
	if newScreen == nil {
		newScreen = tcell.NewScreen
	}
	return &Console{
		logger:    logger.Named("tui"),
		newScreen: newScreen,
		theme:     ui.DefaultTheme(),
		flash:     ui.NewFlashModel(),
		info:      ui.SessionData{Session: opts.Session, Backend: opts.Backend},
		spinInt:   100 * time.Millisecond,
	}
}

// SetAccount shows the signed-in account in the header.
func (c *Console) SetAccount(name string) {
	c.mu.Lock()
	c.info.Account = name
	c.mu.Unlock()
}

// Select shows screen with a list of choices.
func (c *Console) Select(ctx context.Context, screen console.Screen, title string, choices []string) (int, error) {
	c.remember(screen)
	f := c.newFrame(viewSelect)
	f.keys.AddView(viewSelect, &keys.Action{Key: tcell.KeyEnter, Label: "enter", Description: "Select", Visible: true})
	f.keys.AddView(viewSelect, &keys.Action{Key: tcell.KeyUp, Label: "↑↓", Description: "Move", Visible: true})

	choice := -1
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true).
		SetMainTextColor(c.theme.FgColor).
		SetSelectedTextColor(c.theme.TableCursorFg).
		SetSelectedBackgroundColor(c.theme.TableCursorBg)
	list.SetBorder(true).
		SetBorderColor(c.theme.BorderFocusColor).
		SetTitle(" " + tview.Escape(title) + " ").
		SetTitleColor(c.theme.TitleColor)
	list.SetBackgroundColor(c.theme.BgColor)
	for _, label := range choices {
		list.AddItem(tview.Escape(sanitizeForTerminal(label)), "", 0, nil)
	}
	list.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		choice = i
		f.finish(nil)
	})

	widgetHeight := len(choices) + 2
	if err := c.show(ctx, f, screen, list, widgetHeight); err != nil {
		return 0, err
	}
	c.logger.Debug("selected", zap.String("title", title), zap.Int("choice", choice))
	return choice, nil
}

// Ask reads a line of text. Escape returns an empty answer.
func (c *Console) Ask(ctx context.Context, prompt string, secret bool) (string, error) {
	f := c.newFrame(viewAsk)
	f.keys.AddView(viewAsk, &keys.Action{Key: tcell.KeyEnter, Label: "enter", Description: "Submit", Visible: true})
	f.keys.AddView(viewAsk, &keys.Action{Key: tcell.KeyEscape, Label: "esc", Description: "Cancel", Visible: true})

	var answer string
	p := ui.NewPrompt(c.theme, prompt, secret)
	p.SetOnSubmit(func(text string) {
		answer = text
		f.finish(nil)
	})
	p.SetOnCancel(func() { f.finish(nil) })

	if err := c.show(ctx, f, c.backdrop(), p, 3); err != nil {
		return "", err
	}
	return answer, nil
}

// Pause shows a notice until it is acknowledged.
func (c *Console) Pause(ctx context.Context, level console.Level, text string) error {
	f := c.newFrame(viewPause)
	f.keys.AddView(viewPause, &keys.Action{Key: tcell.KeyEnter, Label: "enter", Description: "Continue", Visible: true})

	modal := c.modal(level, text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) { f.finish(nil) })
	return c.showModal(ctx, f, modal)
}

// Flash queues a notice for the next screen.
func (c *Console) Flash(level console.Level, text string) {
	c.flash.Set(level, text)
}

// Status shows a spinner while fn runs. Ctrl-C is ignored; fn observes ctx.
func (c *Console) Status(ctx context.Context, text string, fn func(ctx context.Context) error) error {
	f := c.newFrame(viewStatus)
	f.keys.AddView(viewStatus, &keys.Action{Key: tcell.KeyCtrlC, Label: "ctrl-c", Handler: func() {}})

	modal := c.modal(console.LevelInfo, spinnerFrames[0]+" "+text)

	var fnErr error
	go func() {
		err := fn(ctx)
		f.post(func() {
			fnErr = err
			f.finish(nil)
		})
	}()
	go func() {
		t := time.NewTicker(c.spinInt)
		defer t.Stop()
		for i := 1; ; i++ {
			select {
			case <-f.ended:
				return
			case <-t.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				f.post(func() { modal.SetText(spinnerText(frame, text)) })
			}
		}
	}()

	// fn owns ctx, so cancellation surfaces through its error.
	f.ignoreCtx = true
	if err := c.showModal(ctx, f, modal); err != nil {
		return err
	}
	return fnErr
}

// ShowTable shows screen until any key is pressed.
func (c *Console) ShowTable(ctx context.Context, screen console.Screen) error {
	c.remember(screen)
	f := c.newFrame(viewTable)
	f.keys.AddView(viewTable, &keys.Action{Key: tcell.KeyEnter, Label: "any key", Description: "Back", Visible: true})
	f.anyKey = true

	return c.show(ctx, f, screen, nil, 0)
}

// Live shows each frame from frames until the channel is closed.
func (c *Console) Live(ctx context.Context, title string, frames <-chan string) error {
	f := c.newFrame(viewLive)

	tv := tview.NewTextView().
		SetDynamicColors(false).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true).
		SetBorderColor(c.theme.BorderColor).
		SetTitle(" " + tview.Escape(title) + " ").
		SetTitleColor(c.theme.TitleColor)
	tv.SetBackgroundColor(c.theme.BgColor)
	tv.SetTextColor(c.theme.FgColor)

	go func() {
		for {
			select {
			case <-f.ended:
				return
			case frame, ok := <-frames:
				if !ok {
					f.post(func() { f.finish(nil) })
					return
				}
				f.post(func() { tv.SetText(frame) })
			}
		}
	}()

	return c.show(ctx, f, console.Screen{Banner: title, Crumbs: c.backdrop().Crumbs}, tv, -1)
}

func (c *Console) remember(screen console.Screen) {
	c.mu.Lock()
	c.last = screen
	c.mu.Unlock()
}

// backdrop is the last screen shown, drawn behind prompts that have none.
func (c *Console) backdrop() console.Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// spinnerText is a spinner frame followed by text, escaped for a modal.
func spinnerText(frame, text string) string {
	return tview.Escape(frame + " " + text)
}

func (c *Console) modal(level console.Level, text string) *tview.Modal {
	return tview.NewModal().
		SetText(tview.Escape(text)).
		SetTextColor(c.theme.LevelColor(level)).
		SetBackgroundColor(c.theme.BgColor).
		SetButtonBackgroundColor(c.theme.TableCursorBg).
		SetButtonTextColor(c.theme.TableCursorFg)
}

func (c *Console) showModal(ctx context.Context, f *frame, modal *tview.Modal) error {
	pages := tview.NewPages().
		AddPage("backdrop", c.layout(f, c.backdrop(), nil, 0), true, true).
		AddPage("modal", modal, true, true)
	f.app.SetRoot(pages, true).SetFocus(modal)
	return c.run(ctx, f)
}

// show lays out screen with widget below it. widgetHeight 0 hides the
// widget and -1 lets it fill the body.
func (c *Console) show(ctx context.Context, f *frame, screen console.Screen, widget tview.Primitive, widgetHeight int) error {
	root := c.layout(f, screen, widget, widgetHeight)
	f.app.SetRoot(root, true)
	if widget != nil {
		f.app.SetFocus(widget)
	}
	return c.run(ctx, f)
}

func (c *Console) run(ctx context.Context, f *frame) error {
	scr, err := c.newScreen()
	if err != nil {
		close(f.ended)
		return fmt.Errorf("open screen: %w", err)
	}
	f.app.SetScreen(scr)

	f.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if f.keys.HandleEvent(f.view, ev) {
			return nil
		}
		if f.anyKey {
			f.finish(nil)
			return nil
		}
		return ev
	})

	if !f.ignoreCtx {
		go func() {
			select {
			case <-ctx.Done():
				f.post(func() { f.finish(ctx.Err()) })
			case <-f.ended:
			}
		}()
	}

	err = f.app.Run()
	close(f.ended)
	if err != nil {
		c.logger.Error("console loop failed", zap.String("view", f.view), zap.Error(err))
		return err
	}
	return f.result
}

func (c *Console) layout(f *frame, screen console.Screen, widget tview.Primitive, widgetHeight int) tview.Primitive {
	c.mu.Lock()
	info := c.info
	c.mu.Unlock()

	sessionInfo := ui.NewSessionInfo(c.theme)
	sessionInfo.Update(info, screen.Banner)
	menu := ui.NewMenu(c.theme)
	menu.Update(f.keys.Hints(f.view))
	header := tview.NewFlex().
		AddItem(sessionInfo, 40, 0, false).
		AddItem(menu, 0, 1, false).
		AddItem(ui.NewLogo(c.theme), 16, 0, false)

	crumbs := ui.NewCrumbs(c.theme)
	crumbs.Update(screen.Crumbs)

	flashBar := ui.NewFlashBar(c.theme)
	flashBar.Update(c.flash.Get())

	body := tview.NewFlex().SetDirection(tview.FlexRow)
	if content := c.content(screen); content != nil {
		body.AddItem(content, 0, 1, false)
	}
	switch {
	case widget == nil:
	case widgetHeight < 0 || body.GetItemCount() == 0:
		body.AddItem(widget, 0, 1, true)
	default:
		body.AddItem(widget, widgetHeight, 0, true)
	}

	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(crumbs, 1, 0, false).
		AddItem(body, 0, 1, widget != nil).
		AddItem(flashBar, 1, 0, false)
}

// content builds the panel and table area of screen, or nil when empty.
func (c *Console) content(screen console.Screen) tview.Primitive {
	var inner tview.Primitive
	switch {
	case screen.Table != nil && len(screen.Table.Rows) > 0:
		inner = c.table(screen.Table)
	case screen.Table != nil || screen.Panel != nil:
		empty := tview.NewTextView().
			SetText(screen.Empty).
			SetTextAlign(tview.AlignCenter).
			SetTextColor(c.theme.TimeColor)
		empty.SetBackgroundColor(c.theme.BgColor)
		inner = empty
	default:
		return nil
	}

	frame := tview.NewFlex().SetDirection(tview.FlexRow)
	frame.SetBorder(true).SetBorderColor(c.theme.BorderColor)
	frame.SetBackgroundColor(c.theme.BgColor)
	if p := screen.Panel; p != nil {
		frame.SetTitle(" " + tview.Escape(sanitizeForTerminal(p.Title)) + " ").
			SetTitleColor(c.theme.TitleColor)
		if p.Header != "" {
			header := tview.NewTextView().
				SetText(p.Header).
				SetTextColor(c.theme.CounterColor)
			header.SetBackgroundColor(c.theme.BgColor)
			frame.AddItem(header, 1, 0, false)
		}
	}
	frame.AddItem(inner, 0, 1, false)
	return frame
}

func (c *Console) table(t *console.Table) *tview.Table {
	table := tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(false, false)
	table.SetBackgroundColor(c.theme.BgColor)

	for col, column := range t.Columns {
		cell := tview.NewTableCell(tview.Escape(column.Title)).
			SetTextColor(c.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false)
		applyWidth(cell, column)
		table.SetCell(0, col, cell)
	}
	for row, values := range t.Rows {
		for col, value := range values {
			cell := tview.NewTableCell(tview.Escape(sanitizeForTerminal(value))).
				SetTextColor(cellColor(c.theme, col))
			if col < len(t.Columns) {
				applyWidth(cell, t.Columns[col])
			}
			table.SetCell(row+1, col, cell)
		}
	}
	return table
}

func applyWidth(cell *tview.TableCell, column console.Column) {
	if column.Width > 0 {
		cell.SetMaxWidth(column.Width)
		return
	}
	cell.SetExpansion(1)
}

func cellColor(theme *ui.Theme, col int) tcell.Color {
	switch col {
	case 0:
		return theme.TimeColor
	case 1:
		return theme.SenderColor
	default:
		return theme.FgColor
	}
}

// frame is one prompt's application and its outcome.
type frame struct {
	app       *tview.Application
	view      string
	keys      *keys.Registry
	anyKey    bool
	ignoreCtx bool

	once   sync.Once
	result error
	ended  chan struct{}
}

func (c *Console) newFrame(view string) *frame {
	f := &frame{
		app:   tview.NewApplication(),
		view:  view,
		keys:  keys.NewRegistry(),
		ended: make(chan struct{}),
	}
	f.keys.AddGlobal(&keys.Action{
		Key:         tcell.KeyCtrlC,
		Label:       "ctrl-c",
		Description: "Quit",
		Handler:     func() { f.finish(console.ErrInterrupted) },
		Visible:     true,
	})
	return f
}

// finish records the outcome and stops the application. It must run on
// the event loop; the first outcome wins.
func (f *frame) finish(err error) {
	f.once.Do(func() {
		f.result = err
		f.app.Stop()
	})
}

// post runs fn on the event loop and redraws. It gives up once the
// frame has ended.
func (f *frame) post(fn func()) {
	done := make(chan struct{})
	go func() {
		f.app.QueueUpdateDraw(fn)
		close(done)
	}()
	select {
	case <-done:
	case <-f.ended:
	}
}
