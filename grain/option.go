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
	"time"

	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/passivation"
)

const (
	// DefaultInitTimeout is the default bounded timeout for hydrating a link
	// from the store during activation.
	DefaultInitTimeout = time.Second
	// DefaultInitMaxRetries is the default number of hydration attempts before
	// activation fails.
	DefaultInitMaxRetries = 5
	// DefaultStoreTimeout is the default bounded timeout for a single store
	// operation issued by a resident link.
	DefaultStoreTimeout = 5 * time.Second
	// DefaultDeactivateAfter is the default idle window after which a resident
	// link is passivated.
	DefaultDeactivateAfter = 2 * time.Minute
)

// config carries the directory-wide settings applied to every link instance.
type config struct {
	logger         log.Logger
	initMaxRetries int
	initTimeout    time.Duration
	storeTimeout   time.Duration
	strategy       passivation.Strategy
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:         log.DefaultLogger,
		initMaxRetries: DefaultInitMaxRetries,
		initTimeout:    DefaultInitTimeout,
		storeTimeout:   DefaultStoreTimeout,
		strategy:       passivation.NewTimeBasedStrategy(DefaultDeactivateAfter),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures the directory at creation time.
type Option func(*config)

// WithLogger sets the logger used by the directory and its link instances.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithInitMaxRetries sets the maximum number of hydration attempts during
// activation.
func WithInitMaxRetries(retries int) Option {
	return func(c *config) {
		if retries > 0 {
			c.initMaxRetries = retries
		}
	}
}

// WithInitTimeout sets the bounded timeout for hydrating a link during
// activation.
func WithInitTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.initTimeout = timeout
		}
	}
}

// WithStoreTimeout sets the bounded timeout for store operations issued by
// resident links.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.storeTimeout = timeout
		}
	}
}

// WithPassivationStrategy sets the eviction policy applied to resident links.
// Use passivation.NewLongLivedStrategy to disable idle eviction.
func WithPassivationStrategy(strategy passivation.Strategy) Option {
	return func(c *config) {
		if strategy != nil {
			c.strategy = strategy
		}
	}
}
