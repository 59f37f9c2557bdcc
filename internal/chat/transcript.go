package chat

// Transcript is the ordered message history of one conversation, oldest
// first. Older pages are prepended as delivered; the sequence is never
// re-sorted and ids are not checked for collisions.
type Transcript struct {
	msgs []Message
}

// Len returns the number of stored messages.
func (t *Transcript) Len() int { return len(t.msgs) }

// Empty reports whether the transcript holds no messages.
func (t *Transcript) Empty() bool { return len(t.msgs) == 0 }

// Messages returns a copy of the stored messages.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Tail returns a copy of the last n messages.
func (t *Transcript) Tail(n int) []Message {
	if n <= 0 {
		return nil
	}
	start := len(t.msgs) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(t.msgs)-start)
	copy(out, t.msgs[start:])
	return out
}

// PrependAll inserts page in front of the stored messages, keeping the
// page's internal order.
func (t *Transcript) PrependAll(page []Message) {
	if len(page) == 0 {
		return
	}
	merged := make([]Message, 0, len(page)+len(t.msgs))
	merged = append(merged, page...)
	t.msgs = append(merged, t.msgs...)
}

// Clear drops every stored message.
func (t *Transcript) Clear() {
	t.msgs = nil
}
