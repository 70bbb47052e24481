package ioworker

import (
	"sync"

	"github.com/muexxl/rtkbase/internal/ubx"
)

// Inbox is the multi-producer/single-consumer queue of decoded UBX
// messages: appended by the I/O worker, drained by the controller every
// tick. Growth is unbounded by design (the spec treats sustained growth as
// a symptom of a hung controller, detectable externally, not something
// this queue should guard against).
type Inbox struct {
	mu    sync.Mutex
	queue []ubx.Message
}

// Push appends a decoded UBX message, preserving arrival order.
func (b *Inbox) Push(msg ubx.Message) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()
}

// DrainAll removes and returns every queued message in FIFO order.
func (b *Inbox) DrainAll() []ubx.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = nil
	return out
}

// Mailbox is the multi-producer/single-consumer queue of outbound UBX
// configuration frames: appended by the controller, drained by the I/O
// worker on every tick.
type Mailbox struct {
	mu    sync.Mutex
	queue [][]byte
}

// Push appends one outbound frame, preserving emission order.
func (b *Mailbox) Push(frame []byte) {
	b.mu.Lock()
	b.queue = append(b.queue, frame)
	b.mu.Unlock()
}

// DrainAll removes and returns every queued frame in FIFO order.
func (b *Mailbox) DrainAll() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = nil
	return out
}
