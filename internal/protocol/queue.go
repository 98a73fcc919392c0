package protocol

import "sync"

// Queue is the ordered buffer of envelopes awaiting transmission. Producers
// enqueue from arbitrary goroutines; the session loop drains from the head.
// An envelope leaves the queue only after its send callback returns nil, so
// a failed send is retried on the next connection.
type Queue struct {
	mu     sync.Mutex
	items  []Envelope
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue appends an envelope at the tail and signals the drain loop.
func (q *Queue) Enqueue(env Envelope) {
	q.mu.Lock()
	q.items = append(q.items, env)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Notify returns a channel that receives a signal after enqueues. The signal
// is coalesced; one receive may cover several pending envelopes, which is why
// Drain re-checks the queue length before every send.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain sends queued envelopes strictly from the head, one at a time,
// re-checking the length before each send so envelopes enqueued mid-drain
// are flushed in the same pass. The head is removed only after send
// succeeds; on error the envelope stays queued and Drain returns.
func (q *Queue) Drain(send func(Envelope) error) error {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return nil
		}
		head := q.items[0]
		q.mu.Unlock()

		if err := send(head); err != nil {
			return err
		}

		q.mu.Lock()
		q.items = q.items[1:]
		q.mu.Unlock()
	}
}
