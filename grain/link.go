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
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/persistence"
)

const (
	// idle means there are no operations to process
	idle int32 = iota
	// busy means the link is processing operations
	busy
)

// LinkState is the persisted state of one short link.
type LinkState struct {
	ShortCode string `json:"short_code"`
	TargetURL string `json:"target_url"`
}

// Link is the in-memory embodiment of one short link.
//
// At most one Link per key is resident at a time; the directory guarantees
// this. All operations against a Link funnel through its mailbox and are
// executed one at a time by a single processing loop, so handlers read and
// mutate state without any locking. Writes go through the store before the
// operation completes, and each write is conditional on the ETag of the last
// acknowledged read or write.
type Link struct {
	key     *Key
	mailbox *mailbox
	state   *State[LinkState]

	logger log.Logger
	config *config

	latestReceiveTime atomic.Time

	// atomic flag indicating whether the link is processing operations
	processing atomic.Int32
	activated  *atomic.Bool
	draining   *atomic.Bool

	scheduler *passivationScheduler

	// invoked once after a successful deactivation so the directory can
	// drop its registry entry
	onDeactivated func(*Link)
}

// enforce compilation error
var _ passivationParticipant = (*Link)(nil)

func newLink(key *Key, store persistence.Store, config *config, scheduler *passivationScheduler, onDeactivated func(*Link)) *Link {
	l := &Link{
		key:           key,
		mailbox:       newMailbox(),
		state:         NewState[LinkState](store, key.String()),
		logger:        config.logger,
		config:        config,
		activated:     atomic.NewBool(false),
		draining:      atomic.NewBool(false),
		scheduler:     scheduler,
		onDeactivated: onDeactivated,
	}
	l.processing.Store(idle)
	return l
}

// Key returns the identity of the link.
func (l *Link) Key() *Key {
	return l.key
}

// IsActive reports whether the link is resident and accepting operations.
func (l *Link) IsActive() bool {
	return l != nil && l.activated.Load()
}

// activate hydrates the link from the store. Hydration runs under a bounded
// timeout with retries; a key with no persisted record activates empty, which
// is a normal outcome. Activation never runs concurrently for the same key;
// the directory serializes it.
func (l *Link) activate(ctx context.Context) error {
	logger := l.logger
	logger.Infof("Activating link %s ...", l.key.String())

	timeout := l.config.initTimeout
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retrier := retry.NewRetrier(l.config.initMaxRetries, timeout, timeout)
	if err := retrier.RunContext(cctx, func(ctx context.Context) error {
		return l.state.Load(ctx)
	}); err != nil {
		logger.Errorf("link %s activation failed: %v", l.key.String(), err)
		if errors.Is(err, context.DeadlineExceeded) {
			return gerrors.NewErrActivationFailure(gerrors.NewErrStoreTimeout(err))
		}
		return gerrors.NewErrActivationFailure(err)
	}

	l.activated.Store(true)
	l.markActivity(time.Now())
	logger.Infof("link %s successfully activated", l.key.String())
	return nil
}

// GetURL returns the target URL the link maps to. ErrNotFound is returned
// when the link holds no mapping.
func (l *Link) GetURL(ctx context.Context) (string, error) {
	return l.dispatch(ctx, cmdGet, "")
}

// Claim atomically establishes the mapping if and only if the link holds
// none. An existing mapping fails the claim with ErrKeyExists and is left
// untouched.
func (l *Link) Claim(ctx context.Context, targetURL string) error {
	_, err := l.dispatch(ctx, cmdClaim, targetURL)
	return err
}

// SetURL sets or replaces the target URL of the link. The mapping is durable
// once SetURL returns without error.
func (l *Link) SetURL(ctx context.Context, targetURL string) error {
	_, err := l.dispatch(ctx, cmdSet, targetURL)
	return err
}

// Delete removes the mapping from the store and from memory. Deleting a link
// with no mapping is a no-op.
func (l *Link) Delete(ctx context.Context) error {
	_, err := l.dispatch(ctx, cmdDelete, "")
	return err
}

// Deactivate flushes any pending state and retires the link. It goes through
// the mailbox like every other operation, so it never interrupts an in-flight
// operation; operations enqueued behind it fail with ErrNotActive.
func (l *Link) Deactivate(ctx context.Context) error {
	_, err := l.dispatch(ctx, cmdDeactivate, "")
	return err
}

// dispatch enqueues one operation and waits for its outcome. The caller's
// context only bounds the wait: once enqueued the operation runs to
// completion regardless, so a caller giving up never leaves the link half
// mutated.
func (l *Link) dispatch(ctx context.Context, cmd command, targetURL string) (string, error) {
	if !l.IsActive() {
		return "", gerrors.ErrNotActive
	}

	env := getEnvelope().build(cmd, targetURL)
	l.mailbox.Enqueue(env)
	l.process()

	select {
	case out := <-env.result:
		releaseEnvelope(env)
		return out.url, out.err
	case <-ctx.Done():
		// the envelope is abandoned to the processing loop, which releases
		// nothing: the buffered result channel absorbs the outcome and the
		// envelope is simply not recycled
		return "", ctx.Err()
	}
}

// process drains the mailbox on a single goroutine.
//
// Only the producer that transitions the link from idle to busy starts a
// loop; everyone else returns immediately knowing their envelope will be
// picked up.
func (l *Link) process() {
	if !l.processing.CompareAndSwap(idle, busy) {
		return
	}

	go func() {
		for {
			if env := l.mailbox.Dequeue(); env != nil {
				l.handle(env)
			}

			// no more operations, change busy state to idle
			l.processing.Store(idle)

			// check whether new operations arrived in the meantime and
			// restart processing
			if !l.mailbox.IsEmpty() && l.processing.CompareAndSwap(idle, busy) {
				continue
			}
			return
		}
	}()
}

// handle executes one envelope. A panic in a handler fails only that
// operation; the loop and the link survive with the last known good state.
func (l *Link) handle(env *envelope) {
	defer func() {
		if r := recover(); r != nil {
			pc, fn, line, _ := runtime.Caller(2)
			env.complete("", fmt.Errorf("operation panic: %v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line))
		}
	}()

	if !l.activated.Load() {
		env.complete("", gerrors.ErrNotActive)
		return
	}

	l.markActivity(time.Now())

	switch env.cmd {
	case cmdGet:
		l.doGet(env)
	case cmdClaim:
		l.doClaim(env)
	case cmdSet:
		l.doSet(env)
	case cmdDelete:
		l.doDelete(env)
	case cmdDeactivate:
		l.doDeactivate(env)
	default:
		env.complete("", fmt.Errorf("unknown command %d", env.cmd))
	}
}

func (l *Link) doGet(env *envelope) {
	if !l.state.Exists() {
		env.complete("", gerrors.ErrNotFound)
		return
	}
	env.complete(l.state.Value().TargetURL, nil)
}

func (l *Link) doClaim(env *envelope) {
	if l.state.Exists() {
		env.complete("", gerrors.ErrKeyExists)
		return
	}
	env.complete("", l.persist(LinkState{
		ShortCode: l.key.String(),
		TargetURL: env.targetURL,
	}))
}

func (l *Link) doSet(env *envelope) {
	env.complete("", l.persist(LinkState{
		ShortCode: l.key.String(),
		TargetURL: env.targetURL,
	}))
}

func (l *Link) doDelete(env *envelope) {
	if !l.state.Exists() {
		env.complete("", nil)
		return
	}

	ctx, cancel := l.storeContext()
	defer cancel()

	if err := l.state.Delete(ctx); err != nil {
		env.complete("", l.mapStoreErr(err))
		return
	}
	env.complete("", nil)
}

// persist applies the new value and writes it through the store. On any
// failure the previous value and ETag are restored, so the in-memory image
// always reflects the last acknowledged write.
func (l *Link) persist(next LinkState) error {
	prev := *l.state
	l.state.SetValue(next)

	ctx, cancel := l.storeContext()
	defer cancel()

	if err := l.state.Save(ctx); err != nil {
		*l.state = prev
		return l.mapStoreErr(err)
	}
	return nil
}

// doDeactivate flushes dirty state, marks the link inactive and notifies the
// directory. Under the write-through discipline the state is never dirty
// between operations, so the flush is a safety net rather than the normal
// path.
func (l *Link) doDeactivate(env *envelope) {
	logger := l.logger
	logger.Infof("Deactivating link %s ...", l.key.String())

	if l.scheduler != nil {
		l.scheduler.Unregister(l)
	}

	if l.state.Dirty() {
		ctx, cancel := l.storeContext()
		err := l.state.Save(ctx)
		cancel()
		if err != nil {
			logger.Errorf("link %s deactivation failed: %v", l.key.String(), err)
			env.complete("", gerrors.NewErrDeactivationFailure(l.mapStoreErr(err)))
			return
		}
	}

	l.activated.Store(false)
	l.latestReceiveTime.Store(time.Time{})

	if l.onDeactivated != nil {
		l.onDeactivated(l)
	}

	// operations raced in behind the deactivate fail fast so their callers
	// can re-resolve through the directory
	for pending := l.mailbox.Dequeue(); pending != nil; pending = l.mailbox.Dequeue() {
		pending.complete("", gerrors.ErrNotActive)
	}

	logger.Infof("link %s successfully deactivated", l.key.String())
	env.complete("", nil)
}

// storeContext returns a detached bounded context for a store operation.
// Store calls never run under the caller's context: a caller giving up must
// not abort a write midway.
func (l *Link) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), l.config.storeTimeout)
}

func (l *Link) mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return gerrors.NewErrStoreTimeout(err)
	}
	return err
}

func (l *Link) markActivity(at time.Time) {
	l.latestReceiveTime.Store(at)
	if l.scheduler != nil {
		l.scheduler.Touch(l)
	}
}

func (l *Link) passivationID() string {
	if l.key == nil {
		return ""
	}
	return l.key.String()
}

func (l *Link) passivationLatestActivity() time.Time {
	return l.latestReceiveTime.Load()
}

// passivationTry is invoked by the passivation scheduler when the idle window
// elapses. The deactivation still travels through the mailbox, so a burst of
// operations racing the eviction is handled before the link retires.
func (l *Link) passivationTry(reason string) bool {
	if !l.IsActive() || !l.draining.CompareAndSwap(false, true) {
		return false
	}
	defer l.draining.Store(false)

	l.logger.Infof("passivation triggered for link %s (%s)", l.key.String(), reason)

	ctx, cancel := context.WithTimeout(context.Background(), l.config.storeTimeout)
	defer cancel()

	if err := l.Deactivate(ctx); err != nil {
		l.logger.Errorf("failed to passivate link %s: %v", l.key.String(), err)
		return false
	}
	return true
}
