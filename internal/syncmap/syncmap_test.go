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

package syncmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMapSetGet(t *testing.T) {
	sm := New[string, int]()
	sm.Set("foo", 42)
	value, ok := sm.Get("foo")
	require.True(t, ok)
	assert.Equal(t, 42, value)

	_, ok = sm.Get("bar")
	assert.False(t, ok)
}

func TestSyncMapDelete(t *testing.T) {
	sm := New[string, string]()
	sm.Set("key", "value")
	sm.Delete("key")
	_, ok := sm.Get("key")
	assert.False(t, ok)
	assert.Zero(t, sm.Len())
	// deleting a missing key is a no-op
	sm.Delete("key")
}

func TestSyncMapRangeAndValues(t *testing.T) {
	sm := New[int, int]()
	for i := 0; i < 10; i++ {
		sm.Set(i, i*i)
	}
	seen := 0
	sm.Range(func(k, v int) {
		assert.Equal(t, k*k, v)
		seen++
	})
	assert.Equal(t, 10, seen)
	assert.Len(t, sm.Values(), 10)
}

func TestSyncMapConcurrentAccess(t *testing.T) {
	sm := New[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sm.Set(n, n)
			sm.Get(n)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, sm.Len())
}
