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
	cheaps "container/heap"
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/passivation"
)

type unit struct{}

// passivationParticipant is implemented by anything the scheduler can evict.
type passivationParticipant interface {
	passivationID() string
	passivationLatestActivity() time.Time
	passivationTry(reason string) bool
}

// passivationScheduler centralizes idle eviction for every resident link.
//
// Time-based strategies register an absolute deadline tracked in a min-heap so
// a single goroutine always sleeps until the next expiring link, with O(log n)
// updates on activity. This is functionally identical to ticking and checking
// time.Since(latestActivity) per link, but without per-link goroutines.
type passivationScheduler struct {
	logger log.Logger

	mu      sync.Mutex
	entries map[string]*passivationEntry
	queue   passivationHeap

	wake     chan unit
	stop     chan unit
	done     chan unit
	stopOnce sync.Once
	started  atomic.Bool
}

// passivationEntry stores the scheduling metadata for one participant.
// index is the current position within the heap; -1 means not enqueued.
type passivationEntry struct {
	participant passivationParticipant
	id          string
	strategy    passivation.Strategy
	timeout     time.Duration
	deadline    time.Time
	index       int
}

func newPassivationScheduler(logger log.Logger) *passivationScheduler {
	return &passivationScheduler{
		logger:  logger,
		entries: make(map[string]*passivationEntry),
		queue:   passivationHeap{},
		wake:    make(chan unit, 1),
		stop:    make(chan unit),
		done:    make(chan unit),
	}
}

func (s *passivationScheduler) Start(context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
}

func (s *passivationScheduler) Stop(context.Context) {
	if !s.started.Load() {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	s.started.Store(false)
}

// Register hooks a participant into the scheduler using its strategy.
// Long-lived participants are simply not tracked. Existing entries are
// updated in place so swapping strategies remains safe.
func (s *passivationScheduler) Register(participant passivationParticipant, strategy passivation.Strategy) {
	key := participant.passivationID()
	if key == "" || strategy == nil || !s.started.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &passivationEntry{
			participant: participant,
			id:          key,
			index:       -1,
		}
		s.entries[key] = entry
	} else if entry.index >= 0 {
		cheaps.Remove(&s.queue, entry.index)
		entry.index = -1
	}

	entry.strategy = strategy

	switch strat := strategy.(type) {
	case *passivation.TimeBasedStrategy:
		entry.timeout = strat.Timeout()
		entry.refreshDeadline()
		cheaps.Push(&s.queue, entry)
		s.notifyLocked()
	default:
		delete(s.entries, key)
	}
}

// Unregister removes a participant from any passivation bookkeeping.
func (s *passivationScheduler) Unregister(participant passivationParticipant) {
	key := participant.passivationID()
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return
	}

	if entry.index >= 0 {
		cheaps.Remove(&s.queue, entry.index)
		entry.index = -1
	}
	delete(s.entries, key)
}

// Touch refreshes the inactivity deadline after an operation was processed.
func (s *passivationScheduler) Touch(participant passivationParticipant) {
	key := participant.passivationID()
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.index < 0 {
		return
	}

	entry.refreshDeadline()
	cheaps.Fix(&s.queue, entry.index)
	s.notifyLocked()
}

// run multiplexes between deadlines, wakeups and shutdown. One goroutine
// serves all participants.
func (s *passivationScheduler) run() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}

	for {
		entry, wait := s.nextEntry()
		if entry == nil {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				timer.Stop()
				close(s.done)
				return
			}
		}

		if wait <= 0 {
			s.trigger(entry)
			continue
		}

		timer.Reset(wait)

		select {
		case <-timer.C:
			s.trigger(entry)
		case <-s.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-s.stop:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			close(s.done)
			return
		}
	}
}

func (s *passivationScheduler) nextEntry() (*passivationEntry, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, 0
	}

	entry := s.queue[0]
	wait := time.Until(entry.deadline)
	if wait < 0 {
		wait = 0
	}
	return entry, wait
}

func (s *passivationScheduler) trigger(expected *passivationEntry) {
	s.mu.Lock()
	if len(s.queue) == 0 || s.queue[0] != expected {
		s.mu.Unlock()
		return
	}

	entry := s.queue[0]
	now := time.Now()
	if entry.deadline.After(now) {
		// activity refreshed the deadline since we went to sleep
		s.mu.Unlock()
		return
	}

	cheaps.Pop(&s.queue)
	entry.index = -1
	s.mu.Unlock()

	passivated := entry.participant.passivationTry(entry.strategy.Name())

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[entry.id]
	if !ok || current != entry {
		return
	}

	if passivated {
		delete(s.entries, entry.id)
		return
	}

	// the attempt was skipped, reschedule for another full idle window
	entry.refreshDeadline()
	cheaps.Push(&s.queue, entry)
	s.notifyLocked()
}

func (s *passivationScheduler) notifyLocked() {
	select {
	case s.wake <- unit{}:
	default:
	}
}

// refreshDeadline recomputes the absolute deadline from the participant's
// latest activity plus the configured idle window.
func (entry *passivationEntry) refreshDeadline() {
	last := entry.participant.passivationLatestActivity()
	if last.IsZero() {
		last = time.Now()
	}
	entry.deadline = last.Add(entry.timeout)
}

type passivationHeap []*passivationEntry

func (h passivationHeap) Len() int { return len(h) }

func (h passivationHeap) Less(i, j int) bool {
	return h[i].deadline.Before(h[j].deadline)
}

func (h passivationHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *passivationHeap) Push(x any) {
	entry := x.(*passivationEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *passivationHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	entry.index = -1
	*h = old[:n-1]
	return entry
}
