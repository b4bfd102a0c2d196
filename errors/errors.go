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

// Package errors defines the sentinel errors shared across the grainlink
// packages. All failure conditions surfaced by the link directory, the link
// instances and the shortener service wrap one of these values, so callers can
// classify outcomes with errors.Is without depending on internal types.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a short code has no mapping, neither resident
	// in memory nor persisted in the store. It is a normal negative result,
	// surfaced by the HTTP layer as 404, never an exception path.
	ErrNotFound = errors.New("short link not found")

	// ErrKeyExists indicates that a create-only operation found the key already
	// holding a mapping. The shortener service treats it as a code collision
	// and regenerates a fresh candidate.
	ErrKeyExists = errors.New("short link already exists")

	// ErrKeyExhaustion is returned when the code generator could not produce a
	// free key within the configured retry budget. It is fatal for that create
	// call and surfaced to the HTTP layer as a server error.
	ErrKeyExhaustion = errors.New("short code space exhausted within retry budget")

	// ErrActivationFailure indicates that hydrating a link from the persistence
	// store failed. The directory does not retry beyond the activation budget;
	// the caller may retry the whole GetOrActivate.
	ErrActivationFailure = errors.New("link activation failed")

	// ErrDeactivationFailure indicates that flushing a link during deactivation
	// failed. The link remains active with its last known good state.
	ErrDeactivationFailure = errors.New("link deactivation failed")

	// ErrPersistenceConflict indicates that a concurrent write was detected via
	// an ETag mismatch. The caller may retry the whole operation, which will
	// observe fresh state.
	ErrPersistenceConflict = errors.New("persistence conflict detected")

	// ErrStoreTimeout indicates that a hydrate or flush against the persistence
	// store exceeded its bounded timeout. The link keeps its last known good
	// in-memory state, so the operation is safe to retry.
	ErrStoreTimeout = errors.New("persistence store timed out")

	// ErrNotActive is returned when an operation reaches a link that has
	// already been deactivated. A fresh reference obtained through the
	// directory triggers re-activation.
	ErrNotActive = errors.New("link is not active")

	// ErrDirectoryNotStarted is returned when links are requested from a
	// directory that has not been started or has been stopped.
	ErrDirectoryNotStarted = errors.New("link directory has not started")

	// ErrInvalidKey indicates that a short code does not satisfy the key
	// constraints (allowed characters, bounded length).
	ErrInvalidKey = errors.New("invalid short link key")

	// ErrInvalidTargetURL indicates that the URL submitted for shortening is
	// empty or not an absolute http(s) URL.
	ErrInvalidTargetURL = errors.New("invalid target url")
)

// NewErrActivationFailure wraps a base error with ErrActivationFailure to
// indicate a link activation failure.
func NewErrActivationFailure(err error) error {
	return errors.Join(ErrActivationFailure, err)
}

// NewErrDeactivationFailure wraps a base error with ErrDeactivationFailure to
// indicate a link deactivation failure.
func NewErrDeactivationFailure(err error) error {
	return errors.Join(ErrDeactivationFailure, err)
}

// NewErrPersistenceConflict wraps a base error with ErrPersistenceConflict.
func NewErrPersistenceConflict(err error) error {
	return errors.Join(ErrPersistenceConflict, err)
}

// NewErrStoreTimeout wraps a base error with ErrStoreTimeout.
func NewErrStoreTimeout(err error) error {
	return errors.Join(ErrStoreTimeout, err)
}

// NewErrInvalidKey formats an ErrInvalidKey with the offending key value.
func NewErrInvalidKey(key string, err error) error {
	return fmt.Errorf("key=(%s) %w: %w", key, ErrInvalidKey, err)
}
