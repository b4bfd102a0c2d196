// MIT License
//
// Copyright (c) 2025-2026 GrainLink Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package grain

import (
	"sync"
	"sync/atomic"
)

// CacheLinePadding prevents false sharing between CPU cache lines
type CacheLinePadding [64]byte

type mailboxNode struct {
	value atomic.Pointer[envelope]
	next  atomic.Pointer[mailboxNode]
}

var mailboxNodePool = sync.Pool{New: func() any { return new(mailboxNode) }}

// mailbox is a lock-free multi-producer single-consumer FIFO queue of
// envelopes. Producers are the callers enqueueing operations; the single
// consumer is the instance's processing loop.
type mailbox struct {
	head atomic.Pointer[mailboxNode]
	_    CacheLinePadding
	tail atomic.Pointer[mailboxNode]
	_    CacheLinePadding
	len  atomic.Int64
}

func newMailbox() *mailbox {
	item := new(mailboxNode)
	m := &mailbox{}
	m.head.Store(item)
	m.tail.Store(item)
	return m
}

// Enqueue places the given envelope at the tail of the mailbox.
//
// It is safe for concurrent producers. Ordering is preserved (FIFO).
func (m *mailbox) Enqueue(value *envelope) {
	n := mailboxNodePool.Get().(*mailboxNode)
	n.value.Store(value)
	n.next.Store(nil)

	prev := m.tail.Swap(n)
	prev.next.Store(n)
	m.len.Add(1)
}

// Dequeue removes and returns the next envelope from the mailbox.
//
// It returns nil when the mailbox is empty. Only a single consumer should
// invoke Dequeue concurrently.
func (m *mailbox) Dequeue() *envelope {
	head := m.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil
	}

	m.head.Store(next)
	value := next.value.Load()
	next.value.Store(nil)
	m.len.Add(-1)

	head.next.Store(nil)
	head.value.Store(nil)
	mailboxNodePool.Put(head)
	return value
}

// Len returns the current number of envelopes enqueued in the mailbox.
func (m *mailbox) Len() int64 {
	return m.len.Load()
}

// IsEmpty reports whether the mailbox currently holds no envelopes.
func (m *mailbox) IsEmpty() bool {
	return m.Len() == 0
}
