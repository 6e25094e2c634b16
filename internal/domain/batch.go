package domain

// Batch is an ordered aggregate of messages ready to be sent together.
// Message order is arrival order and is preserved through delivery.
//
// A Batch is owned by the accumulator until it is drained, after which
// ownership transfers to the delivery client for the duration of the send.
// Nothing mutates a Batch after hand-off.
type Batch struct {
	// Messages holds the parsed events in arrival order.
	Messages []*Message
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{Messages: make([]*Message, 0)}
}

// Append adds a message to the end of the batch.
func (b *Batch) Append(m *Message) {
	b.Messages = append(b.Messages, m)
}

// Size returns the number of messages in the batch.
func (b *Batch) Size() int {
	return len(b.Messages)
}

// Empty returns true if the batch has no messages.
func (b *Batch) Empty() bool {
	return len(b.Messages) == 0
}

// Last returns the last message in the batch, or nil if empty.
func (b *Batch) Last() *Message {
	if len(b.Messages) == 0 {
		return nil
	}
	return b.Messages[len(b.Messages)-1]
}
