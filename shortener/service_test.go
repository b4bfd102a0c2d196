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

package shortener

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/grain"
	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/persistence"
)

// scriptedGenerator hands out a fixed sequence of codes, repeating the last
// one once the script runs out.
type scriptedGenerator struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (g *scriptedGenerator) NextCode() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next < len(g.codes)-1 {
		g.next++
		return g.codes[g.next-1], nil
	}
	return g.codes[len(g.codes)-1], nil
}

func newTestService(t *testing.T, generator Generator, opts ...ServiceOption) *Service {
	t.Helper()
	directory := grain.NewDirectory(persistence.NewMemoryStore(), grain.WithLogger(log.DiscardLogger))
	require.NoError(t, directory.Start(context.Background()))
	t.Cleanup(func() {
		_ = directory.Stop(context.Background())
	})
	opts = append([]ServiceOption{WithServiceLogger(log.DiscardLogger)}, opts...)
	return NewService(directory, generator, opts...)
}

func TestServiceCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	generator, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)
	service := newTestService(t, generator)

	code, err := service.Create(ctx, "https://example.com/some/long/path")
	require.NoError(t, err)
	require.NotEmpty(t, code)

	target, err := service.Resolve(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/some/long/path", target)
}

func TestServiceCreateRejectsInvalidURLs(t *testing.T) {
	ctx := context.Background()
	generator, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)
	service := newTestService(t, generator)

	for _, target := range []string{
		"",
		"not a url",
		"ftp://example.com/file",
		"example.com/no-scheme",
		"https://",
	} {
		_, err := service.Create(ctx, target)
		assert.ErrorIs(t, err, gerrors.ErrInvalidTargetURL, "target=%q", target)
	}
}

func TestServiceCreateRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	generator := &scriptedGenerator{codes: []string{"taken", "taken", "fresh"}}
	service := newTestService(t, generator)

	first, err := service.Create(ctx, "https://first.example.com")
	require.NoError(t, err)
	assert.Equal(t, "taken", first)

	// the second create collides on "taken" and lands on "fresh"
	second, err := service.Create(ctx, "https://second.example.com")
	require.NoError(t, err)
	assert.Equal(t, "fresh", second)

	target, err := service.Resolve(ctx, "taken")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example.com", target)
}

func TestServiceCreateExhaustsRetryBudget(t *testing.T) {
	ctx := context.Background()
	generator := &scriptedGenerator{codes: []string{"only"}}
	service := newTestService(t, generator, WithCreateMaxAttempts(3))

	_, err := service.Create(ctx, "https://first.example.com")
	require.NoError(t, err)

	_, err = service.Create(ctx, "https://second.example.com")
	assert.ErrorIs(t, err, gerrors.ErrKeyExhaustion)

	// the original mapping is untouched
	target, err := service.Resolve(ctx, "only")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example.com", target)
}

func TestServiceConcurrentCreatesYieldDistinctCodes(t *testing.T) {
	ctx := context.Background()
	generator, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)
	service := newTestService(t, generator)

	const creators = 20
	codes := make([]string, creators)

	var wg sync.WaitGroup
	wg.Add(creators)
	for i := range creators {
		go func() {
			defer wg.Done()
			code, err := service.Create(ctx, "https://example.com")
			require.NoError(t, err)
			codes[i] = code
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, creators)
	for _, code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestServiceRecoversFromPassivatedLinkReference(t *testing.T) {
	ctx := context.Background()
	generator := &scriptedGenerator{codes: []string{"abc123"}}
	service := newTestService(t, generator)

	_, err := service.Create(ctx, "https://example.com")
	require.NoError(t, err)

	key, err := grain.NewKey("abc123")
	require.NoError(t, err)

	// the first attempt runs against a reference that passivated under it and
	// fails with ErrNotActive; the service re-resolves a fresh activation and
	// retries exactly once
	invocations := 0
	err = service.withLink(ctx, key, func(link *grain.Link) error {
		invocations++
		if invocations == 1 {
			require.NoError(t, service.directory.Deactivate(ctx, key))
		}
		_, err := link.GetURL(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, invocations)

	// the mapping survived the passivation round trip
	target, err := service.Resolve(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)
}

func TestServiceResolveUnknownCode(t *testing.T) {
	ctx := context.Background()
	generator, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)
	service := newTestService(t, generator)

	_, err = service.Resolve(ctx, "nosuchcode")
	assert.ErrorIs(t, err, gerrors.ErrNotFound)

	// codes that cannot even be keys resolve to not found, not invalid key
	_, err = service.Resolve(ctx, "bad code!")
	assert.ErrorIs(t, err, gerrors.ErrNotFound)
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	generator, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)
	service := newTestService(t, generator)

	code, err := service.Create(ctx, "https://example.com")
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, code))

	_, err = service.Resolve(ctx, code)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)

	err = service.Delete(ctx, code)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)

	err = service.Delete(ctx, "nosuchcode")
	assert.ErrorIs(t, err, gerrors.ErrNotFound)
}
