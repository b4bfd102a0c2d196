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
	"encoding/json"
	"errors"
	"fmt"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/persistence"
)

// State is the typed in-memory image of one persisted entity.
//
// It pairs the entity value with the ETag it was last read or written under,
// and knows how to load and save itself through the persistence store. Each
// Save is conditional on the held ETag, so a write from any other source since
// the last hydration is detected as a conflict rather than silently lost.
//
// State is not safe for concurrent use on its own; the owning link instance
// serializes all access.
type State[T any] struct {
	store persistence.Store
	key   string

	value  T
	etag   string
	exists bool
	dirty  bool
}

// NewState creates a State for the given persistence key backed by the given
// store. The state starts unhydrated; call Load before reading the value.
func NewState[T any](store persistence.Store, key string) *State[T] {
	return &State[T]{
		store: store,
		key:   key,
	}
}

// Load hydrates the state from the store. A missing record is a normal
// outcome: the value is reset to its zero value and Exists reports false.
// A record that cannot be decoded is an error; no partial state is adopted.
func (s *State[T]) Load(ctx context.Context) error {
	record, err := s.store.Read(ctx, s.key)
	switch {
	case errors.Is(err, persistence.ErrKeyNotFound):
		var zero T
		s.value = zero
		s.etag = ""
		s.exists = false
		s.dirty = false
		return nil
	case err != nil:
		return err
	}

	var value T
	if err := json.Unmarshal(record.Data, &value); err != nil {
		return fmt.Errorf("decoding state for key=(%s): %w", s.key, err)
	}

	s.value = value
	s.etag = record.ETag
	s.exists = true
	s.dirty = false
	return nil
}

// Save persists the current value, conditional on the ETag adopted by the last
// Load or Save. An ETag mismatch reported by the store surfaces as
// ErrPersistenceConflict. On success the new ETag is adopted atomically with
// the acknowledged write.
func (s *State[T]) Save(ctx context.Context) error {
	data, err := json.Marshal(s.value)
	if err != nil {
		return fmt.Errorf("encoding state for key=(%s): %w", s.key, err)
	}

	etag, err := s.store.Write(ctx, s.key, data, s.etag)
	switch {
	case errors.Is(err, persistence.ErrETagMismatch):
		return gerrors.NewErrPersistenceConflict(err)
	case err != nil:
		return err
	}

	s.etag = etag
	s.exists = true
	s.dirty = false
	return nil
}

// Delete removes the persisted record and resets the in-memory image.
func (s *State[T]) Delete(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return err
	}
	var zero T
	s.value = zero
	s.etag = ""
	s.exists = false
	s.dirty = false
	return nil
}

// Value returns the in-memory value. Only meaningful when Exists is true.
func (s *State[T]) Value() T {
	return s.value
}

// SetValue replaces the in-memory value and marks the state dirty until the
// next Save.
func (s *State[T]) SetValue(value T) {
	s.value = value
	s.dirty = true
}

// Exists reports whether the entity has state, either hydrated from the store
// or saved since activation.
func (s *State[T]) Exists() bool {
	return s.exists
}

// Dirty reports whether the in-memory value has mutations not yet persisted.
// Under the write-through discipline this is only ever true inside a single
// operation.
func (s *State[T]) Dirty() bool {
	return s.dirty
}

// ETag returns the concurrency token of the last acknowledged read or write.
func (s *State[T]) ETag() string {
	return s.etag
}
