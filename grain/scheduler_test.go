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
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/passivation"
)

// fakeParticipant records passivation attempts for scheduler tests.
type fakeParticipant struct {
	id string

	mu       sync.Mutex
	activity time.Time
	tries    int
	accept   bool
}

func (f *fakeParticipant) passivationID() string { return f.id }

func (f *fakeParticipant) passivationLatestActivity() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activity
}

func (f *fakeParticipant) passivationTry(string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tries++
	return f.accept
}

func (f *fakeParticipant) triesCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tries
}

func (f *fakeParticipant) markActivity(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activity = at
}

func newTestScheduler(t *testing.T) *passivationScheduler {
	t.Helper()
	scheduler := newPassivationScheduler(log.DiscardLogger)
	scheduler.Start(context.Background())
	t.Cleanup(func() {
		scheduler.Stop(context.Background())
	})
	return scheduler
}

func TestSchedulerFiresAfterIdleWindow(t *testing.T) {
	scheduler := newTestScheduler(t)

	participant := &fakeParticipant{id: "abc123", accept: true, activity: time.Now()}
	scheduler.Register(participant, passivation.NewTimeBasedStrategy(50*time.Millisecond))

	require.Eventually(t, func() bool {
		return participant.triesCount() == 1
	}, 3*time.Second, 10*time.Millisecond)

	// an accepted passivation removes the entry, no further attempts fire
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, participant.triesCount())
}

func TestSchedulerTouchPostponesEviction(t *testing.T) {
	scheduler := newTestScheduler(t)

	participant := &fakeParticipant{id: "abc123", accept: true, activity: time.Now()}
	scheduler.Register(participant, passivation.NewTimeBasedStrategy(200*time.Millisecond))

	// keep touching within the idle window so the deadline keeps sliding
	for range 5 {
		time.Sleep(50 * time.Millisecond)
		participant.markActivity(time.Now())
		scheduler.Touch(participant)
	}
	assert.Zero(t, participant.triesCount())

	require.Eventually(t, func() bool {
		return participant.triesCount() == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSchedulerUnregisterStopsAttempts(t *testing.T) {
	scheduler := newTestScheduler(t)

	participant := &fakeParticipant{id: "abc123", accept: true, activity: time.Now()}
	scheduler.Register(participant, passivation.NewTimeBasedStrategy(100*time.Millisecond))
	scheduler.Unregister(participant)

	time.Sleep(250 * time.Millisecond)
	assert.Zero(t, participant.triesCount())
}

func TestSchedulerRetriesSkippedAttempts(t *testing.T) {
	scheduler := newTestScheduler(t)

	// a participant that refuses passivation is rescheduled for another window
	participant := &fakeParticipant{id: "abc123", accept: false, activity: time.Now()}
	scheduler.Register(participant, passivation.NewTimeBasedStrategy(50*time.Millisecond))

	require.Eventually(t, func() bool {
		return participant.triesCount() >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSchedulerIgnoresLongLivedStrategy(t *testing.T) {
	scheduler := newTestScheduler(t)

	participant := &fakeParticipant{id: "abc123", accept: true, activity: time.Now()}
	scheduler.Register(participant, passivation.NewLongLivedStrategy())

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, participant.triesCount())
}
