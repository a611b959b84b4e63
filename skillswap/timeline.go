package skillswap

import "slices"

// Timeline is the ordered, de-duplicated message sequence of one
// conversation. It is not safe for concurrent use; the engine guards it.
type Timeline struct {
	msgs []Message
}

// Len returns the number of messages.
func (t *Timeline) Len() int { return len(t.msgs) }

// Messages returns a copy of the timeline in timestamp order.
func (t *Timeline) Messages() []Message {
	return slices.Clone(t.msgs)
}

// Contains reports whether a message with the given id is present.
func (t *Timeline) Contains(id string) bool {
	return t.index(id) >= 0
}

// Insert places m at its timestamp-sorted position. Messages with equal
// timestamps keep arrival order. The invariant is restored on every
// insertion, so delayed events and clock skew cannot unsort the view.
func (t *Timeline) Insert(m Message) {
	i, _ := slices.BinarySearchFunc(t.msgs, m, func(a, b Message) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return 1
		}
		return -1
	})
	t.msgs = slices.Insert(t.msgs, i, m)
}

// Remove deletes the message with the given id.
func (t *Timeline) Remove(id string) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	t.msgs = slices.Delete(t.msgs, i, i+1)
	return true
}

// RemoveOptimistic removes the optimistic message matching the sender
// and content, returning it so its watchdog can be cancelled. At most
// one such entry exists at any instant.
func (t *Timeline) RemoveOptimistic(senderID, content string) (Message, bool) {
	for i, m := range t.msgs {
		if m.Status == StatusOptimistic && m.Sender.ID == senderID && m.Content == content {
			t.msgs = slices.Delete(t.msgs, i, i+1)
			return m, true
		}
	}
	return Message{}, false
}

// HasConfirmed reports whether a confirmed message from the sender with
// the given content exists.
func (t *Timeline) HasConfirmed(senderID, content string) bool {
	for _, m := range t.msgs {
		if m.Status == StatusConfirmed && m.Sender.ID == senderID && m.Content == content {
			return true
		}
	}
	return false
}

// MarkFailed flips the message with the given id to StatusFailed. The
// entry stays in the timeline so the failed send remains visible.
func (t *Timeline) MarkFailed(id string) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	t.msgs[i].Status = StatusFailed
	return true
}

func (t *Timeline) index(id string) int {
	return slices.IndexFunc(t.msgs, func(m Message) bool { return m.ID == id })
}
