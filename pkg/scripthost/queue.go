// SPDX-License-Identifier: BSD-3-Clause

package scripthost

import (
	"sync"

	"github.com/eruption-core/eruptiond/pkg/hal"
)

// MessageKind discriminates the variants a script worker's queue carries.
type MessageKind int

const (
	MsgTick MessageKind = iota
	MsgInputEvent
	MsgParameterUpdate
	MsgShutdown
)

// Message is one entry in a script worker's queue.
type Message struct {
	Kind       MessageKind
	Event      hal.RawEvent
	ParamName  string
	ParamValue string
}

// defaultQueueCapacity bounds a script worker's pending non-Tick messages.
const defaultQueueCapacity = 64

// boundedQueue implements the per-worker bounded queue with a drop-oldest-
// non-Tick policy: a pending Tick is replaced (coalesced) by a new Tick
// rather than queued twice; when the queue is full, the oldest non-Tick
// message is dropped to make room, and a per-script counter advances.
type boundedQueue struct {
	mu        sync.Mutex
	wake      chan struct{}
	pending   []Message
	hasTick   bool
	dropCount uint64
}

func newBoundedQueue() *boundedQueue {
	return &boundedQueue{wake: make(chan struct{}, 1)}
}

// Enqueue adds msg to the queue, applying the coalescing/drop policy.
func (q *boundedQueue) Enqueue(msg Message) {
	q.mu.Lock()

	if msg.Kind == MsgTick {
		if q.hasTick {
			for i, m := range q.pending {
				if m.Kind == MsgTick {
					q.pending[i] = msg
					break
				}
			}
		} else {
			q.pending = append(q.pending, msg)
			q.hasTick = true
		}
	} else {
		if len(q.pending) >= defaultQueueCapacity {
			for i, m := range q.pending {
				if m.Kind != MsgTick {
					q.pending = append(q.pending[:i], q.pending[i+1:]...)
					q.dropCount++
					break
				}
			}
		}
		q.pending = append(q.pending, msg)
	}

	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// DropCount returns the number of non-Tick messages dropped due to queue
// overflow. It is read through Worker.DroppedEvents; no RPC handler reports it.
func (q *boundedQueue) DropCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropCount
}

// drain removes and returns all currently pending messages, FIFO order.
func (q *boundedQueue) drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	q.hasTick = false
	return out
}
