package ui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatterm/internal/console"
	"github.com/stretchr/testify/require"
)

func TestFlashModelExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	require.Nil(t, f.Get())

	f.Set(console.LevelInfo, "Loaded 3 chats!")
	msg := f.Get()
	require.NotNil(t, msg)
	require.Equal(t, "Loaded 3 chats!", msg.Text)

	now = now.Add(6 * time.Second)
	require.Nil(t, f.Get())

	f.Set(console.LevelError, "boom")
	now = now.Add(9 * time.Second)
	require.NotNil(t, f.Get(), "errors stay longer")
	now = now.Add(2 * time.Second)
	require.Nil(t, f.Get())
}

func TestLevelColor(t *testing.T) {
	th := DefaultTheme()
	require.Equal(t, th.FlashInfoColor, th.LevelColor(console.LevelInfo))
	require.Equal(t, th.FlashWarnColor, th.LevelColor(console.LevelWarn))
	require.Equal(t, th.FlashErrColor, th.LevelColor(console.LevelError))
}

func TestColorTag(t *testing.T) {
	require.Equal(t, "black", ColorTag(tcell.ColorBlack))
	require.Equal(t, "#123456", ColorTag(tcell.NewHexColor(0x123456)))
}

func TestCrumbsRenderMarksLast(t *testing.T) {
	c := NewCrumbs(DefaultTheme())
	out := c.Render([]string{"Main Menu", "Chats"})
	require.Contains(t, out, "[black:aqua:] Main Menu ")
	require.Contains(t, out, "[black:orange:b] Chats ")
	require.Empty(t, c.Render(nil))
}
