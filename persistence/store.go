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

// Package persistence defines the narrow durable-storage contract the link
// directory depends on, together with its reference backends. The core never
// sees anything beyond this interface, so swapping backends requires no core
// change.
package persistence

import "context"

// Record is a single persisted entry: an opaque byte payload plus the ETag it
// was stored under. The ETag is replaced on every successful write and is the
// only concurrency token the contract exposes.
type Record struct {
	// Data holds the serialized entity state. The store treats it as opaque bytes.
	Data []byte
	// ETag is the opaque version marker attached to this record.
	ETag string
}

// Store is the durable key-value contract for link state.
//
// Implementations must be safe for concurrent use across distinct keys. Within
// a single key the caller (one link instance per key) already serializes
// writes; the conditional-write path exists so a future multi-writer extension
// can enforce optimistic concurrency without changing this interface.
//
// This interface is designed to be backend-agnostic and can be implemented
// using various storage engines, including in-memory maps for testing and
// embedded or remote key-value stores for production.
type Store interface {
	// Ping verifies the store is reachable, establishing a connection if
	// necessary.
	Ping(ctx context.Context) error

	// Read retrieves the record stored under key.
	//
	// Returns ErrKeyNotFound when the key has no record. The returned Record
	// is a copy owned by the caller.
	Read(ctx context.Context, key string) (*Record, error)

	// Write stores data under key and returns the new ETag.
	//
	// An empty expectedETag is an unconditional create-or-overwrite. A
	// non-empty expectedETag must match the currently stored ETag, otherwise
	// ErrETagMismatch is returned and the record is left untouched.
	Write(ctx context.Context, key string, data []byte, expectedETag string) (string, error)

	// Delete removes the record stored under key. Deleting a missing key is a
	// no-op.
	Delete(ctx context.Context, key string) error
}
