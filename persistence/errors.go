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

import "errors"

// Predefined errors for standard store failure conditions. They can be checked
// with errors.Is.
var (
	// ErrKeyNotFound indicates that the specified key does not exist in the
	// store. It is not a fatal error; it usually means initialization or
	// conditional-create logic is required.
	ErrKeyNotFound = errors.New("key not found")

	// ErrETagMismatch indicates that a conditional write failed because the
	// ETag of the record in the store did not match the expected ETag supplied
	// by the caller. It typically means another writer updated the record
	// concurrently; reload and retry as appropriate.
	ErrETagMismatch = errors.New("etag mismatch")

	// ErrStoreClosed indicates an operation was attempted after the store was
	// shut down.
	ErrStoreClosed = errors.New("store is closed")
)
