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

package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReadMissingKey(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()
	record, err := store.Read(ctx, "missing")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStoreWriteRead(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()

	etag, err := store.Write(ctx, "AB12", []byte("payload"), "")
	require.NoError(t, err)
	require.NotEmpty(t, etag)

	record, err := store.Read(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), record.Data)
	assert.Equal(t, etag, record.ETag)
}

func TestMemoryStoreUnconditionalOverwrite(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()

	first, err := store.Write(ctx, "AB12", []byte("v1"), "")
	require.NoError(t, err)
	second, err := store.Write(ctx, "AB12", []byte("v2"), "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	record, err := store.Read(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), record.Data)
}

func TestMemoryStoreConditionalWrite(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()

	etag, err := store.Write(ctx, "AB12", []byte("v1"), "")
	require.NoError(t, err)

	// matching etag succeeds and rotates the token
	next, err := store.Write(ctx, "AB12", []byte("v2"), etag)
	require.NoError(t, err)
	assert.NotEqual(t, etag, next)

	// stale etag is rejected and the record is untouched
	_, err = store.Write(ctx, "AB12", []byte("v3"), etag)
	assert.ErrorIs(t, err, ErrETagMismatch)

	record, err := store.Read(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), record.Data)

	// conditional write on a missing key is a mismatch, not a create
	_, err = store.Write(ctx, "ZZ99", []byte("v1"), etag)
	assert.ErrorIs(t, err, ErrETagMismatch)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()

	_, err := store.Write(ctx, "AB12", []byte("payload"), "")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "AB12"))

	_, err = store.Read(ctx, "AB12")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// deleting a missing key is a no-op
	assert.NoError(t, store.Delete(ctx, "AB12"))
}

func TestMemoryStoreCallerCannotMutateCache(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()

	payload := []byte("payload")
	_, err := store.Write(ctx, "AB12", payload, "")
	require.NoError(t, err)
	payload[0] = 'x'

	record, err := store.Read(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), record.Data)

	record.Data[0] = 'y'
	again, err := store.Read(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again.Data)
}

func TestMemoryStoreConcurrentDistinctKeys(t *testing.T) {
	ctx := context.TODO()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n)
			_, err := store.Write(ctx, key, []byte(key), "")
			assert.NoError(t, err)
			record, err := store.Read(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, []byte(key), record.Data)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, store.Len())
}
