package worker

import "sync"

// Mailbox is an unbounded FIFO queue between exactly one producer side and
// one consumer side. Send never blocks on a slow consumer: values land in an
// internal buffer and a pump goroutine feeds them to C in order. After
// Close, Send becomes a silent no-op, already queued values are still
// delivered, and C is closed once the buffer drains.
type Mailbox[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	out    chan T
}

// NewMailbox returns a ready mailbox and starts its pump.
func NewMailbox[T any]() *Mailbox[T] {
	m := &Mailbox[T]{out: make(chan T)}
	m.cond = sync.NewCond(&m.mu)
	go m.pump()
	return m
}

// Send enqueues v. It is safe from any goroutine and after Close.
func (m *Mailbox[T]) Send(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, v)
	m.cond.Signal()
}

// C returns the receive side. It is closed only after Close has been called
// and every queued value has been handed over.
func (m *Mailbox[T]) C() <-chan T {
	return m.out
}

// Close stops the mailbox from accepting new values. Idempotent.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.cond.Signal()
}

func (m *Mailbox[T]) pump() {
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			close(m.out)
			return
		}
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()
		for _, v := range batch {
			m.out <- v
		}
	}
}
