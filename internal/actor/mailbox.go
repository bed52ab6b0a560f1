package actor

import (
	"context"
	"sync"
)

// envelope carries one message through an activation's mailbox.
type envelope struct {
	ctx     context.Context
	msg     any
	isQuery bool
	reply   chan turnResult
}

type turnResult struct {
	value any
	err   error
}

// mailbox is a bounded FIFO queue owned by one activation. A plain channel
// cannot serve here because closing a channel with concurrent senders
// panics; passivation needs to close the queue and hand back whatever is
// still inside.
type mailbox struct {
	mu     sync.Mutex
	queue  []*envelope
	cap    int
	closed bool

	// notify carries at most one token. pop drains the queue regardless,
	// so a dropped token never strands a message.
	notify chan struct{}
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		cap:    capacity,
		notify: make(chan struct{}, 1),
	}
}

// push enqueues env. It returns errPassivated after close and ErrMailboxFull
// at capacity.
func (m *mailbox) push(env *envelope) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errPassivated
	}
	if len(m.queue) >= m.cap {
		m.mu.Unlock()
		return ErrMailboxFull
	}
	m.queue = append(m.queue, env)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// pop removes and returns the oldest message, or nil when empty.
func (m *mailbox) pop() *envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil
	}
	env := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return env
}

// close rejects all future pushes and returns the messages still queued.
func (m *mailbox) close() []*envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	rest := m.queue
	m.queue = nil
	return rest
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
