package shell

import (
	"strconv"

	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/console"
)

const (
	senderWidth = 13
	textWidth   = 80
	noText      = "<no text>"
	ellipsis    = "..."
	unknownPeer = "Unknown Peer"
)

// transcriptTable renders messages as Time / Sender / Message rows.
func transcriptTable(msgs []chat.Message) *console.Table {
	t := &console.Table{
		Columns: []console.Column{
			{Title: "Time", Width: 8},
			{Title: "Sender", Width: 15},
			{Title: "Message"},
		},
	}
	for _, m := range msgs {
		t.Rows = append(t.Rows, []string{
			m.Date.Local().Format("15:04"),
			clip(m.SenderName, senderWidth, senderWidth),
			messageText(m.Text),
		})
	}
	return t
}

// listingTable renders the dialog listing as Type / Title / ID rows.
func listingTable(listing []chat.ListingEntry) *console.Table {
	t := &console.Table{
		Columns: []console.Column{
			{Title: "Type", Width: 12},
			{Title: "Title/Name"},
			{Title: "ID", Width: 20},
		},
	}
	for _, e := range listing {
		if !e.Resolved {
			t.Rows = append(t.Rows, []string{chat.KindUnknown.String(), unknownPeer, chat.KindUnknown.String()})
			continue
		}
		t.Rows = append(t.Rows, []string{e.Kind.String(), e.Title, strconv.FormatInt(e.ID, 10)})
	}
	return t
}

func messageText(text string) string {
	if text == "" {
		return noText
	}
	return clip(text, textWidth, textWidth-len(ellipsis))
}

// clip keeps the first keep runes of s followed by "..." when s is
// longer than max runes.
func clip(s string, max, keep int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:keep]) + ellipsis
}
