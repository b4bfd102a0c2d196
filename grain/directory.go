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

// Package grain implements the single-node virtual-link runtime: a directory
// of per-key link instances that activate on demand, execute their operations
// strictly one at a time, write through to a persistence store, and passivate
// after a configurable idle window.
package grain

import (
	"context"
	"errors"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/internal/syncmap"
	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/passivation"
	"github.com/grainlink/grainlink/persistence"
)

// Directory is the authoritative registry of resident link instances.
//
// It upholds the cardinality invariant of the runtime: for any key there is at
// most one resident Link at a time. Lookups for a resident link are lock-free
// on the fast path; concurrent activations of the same key are collapsed into
// a single hydration, with every caller receiving the same instance and the
// same error.
type Directory struct {
	store  persistence.Store
	config *config
	logger log.Logger

	links      *syncmap.SyncMap[string, *Link]
	activation singleflight.Group
	scheduler  *passivationScheduler
	started    *atomic.Bool
}

// NewDirectory creates a Directory backed by the given persistence store.
// The directory accepts no operations until Start is called.
func NewDirectory(store persistence.Store, opts ...Option) *Directory {
	cfg := newConfig(opts...)
	return &Directory{
		store:     store,
		config:    cfg,
		logger:    cfg.logger,
		links:     syncmap.New[string, *Link](),
		scheduler: newPassivationScheduler(cfg.logger),
		started:   atomic.NewBool(false),
	}
}

// Start verifies the persistence store is reachable and begins accepting
// operations. It is idempotent.
func (d *Directory) Start(ctx context.Context) error {
	if d.started.Load() {
		return nil
	}

	if err := d.store.Ping(ctx); err != nil {
		return err
	}

	d.scheduler.Start(ctx)
	d.started.Store(true)
	d.logger.Infof("link directory started with passivation strategy %s", d.config.strategy.String())
	return nil
}

// Stop deactivates every resident link and shuts the directory down. Links
// whose deactivation fails are reported but do not prevent the shutdown; the
// combined error carries every failure.
func (d *Directory) Stop(ctx context.Context) error {
	if !d.started.CompareAndSwap(true, false) {
		return nil
	}

	d.scheduler.Stop(ctx)

	var err error
	for _, link := range d.links.Values() {
		if derr := link.Deactivate(ctx); derr != nil && !errors.Is(derr, gerrors.ErrNotActive) {
			err = multierr.Append(err, derr)
		}
	}

	d.logger.Info("link directory stopped")
	return err
}

// LinksCount returns the number of links currently resident in memory.
func (d *Directory) LinksCount() int {
	return d.links.Len()
}

// GetOrActivate returns the resident link for the key, activating one when
// none is resident. Concurrent calls for the same key during activation are
// deduplicated: exactly one hydration runs, and all callers share its result.
func (d *Directory) GetOrActivate(ctx context.Context, key *Key) (*Link, error) {
	if !d.started.Load() {
		return nil, gerrors.ErrDirectoryNotStarted
	}

	if link, ok := d.links.Get(key.String()); ok && link.IsActive() {
		return link, nil
	}

	value, err, _ := d.activation.Do(key.String(), func() (any, error) {
		// re-check under the flight: a concurrent activation may have
		// completed while this caller was queueing
		if link, ok := d.links.Get(key.String()); ok && link.IsActive() {
			return link, nil
		}

		link := newLink(key, d.store, d.config, d.scheduler, d.onLinkDeactivated)
		if err := link.activate(ctx); err != nil {
			return nil, err
		}

		d.links.Set(key.String(), link)
		if _, timeBased := d.config.strategy.(*passivation.TimeBasedStrategy); timeBased {
			d.scheduler.Register(link, d.config.strategy)
		}
		return link, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Link), nil
}

// Deactivate retires the resident link for the key, flushing its state first.
// Deactivating a key with no resident link is a no-op.
func (d *Directory) Deactivate(ctx context.Context, key *Key) error {
	if !d.started.Load() {
		return gerrors.ErrDirectoryNotStarted
	}

	link, ok := d.links.Get(key.String())
	if !ok {
		return nil
	}

	if err := link.Deactivate(ctx); err != nil && !errors.Is(err, gerrors.ErrNotActive) {
		return err
	}
	return nil
}

// onLinkDeactivated drops the registry entry of a retired link. The pointer
// comparison guards against removing a successor instance that was activated
// for the same key in the meantime.
func (d *Directory) onLinkDeactivated(link *Link) {
	if current, ok := d.links.Get(link.key.String()); ok && current == link {
		d.links.Delete(link.key.String())
	}
}
