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
	"errors"
	"strings"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/internal/validation"
)

const maxKeyLength = 64

// Key uniquely identifies one short-link entity within the directory.
//
// A Key is the short code itself: immutable once assigned, globally unique
// within the directory, and the persistence key under which the entity's
// state is stored. Keys are immutable and safe for concurrent use.
type Key struct {
	value string
}

// ensure Key implements the validation.Validator interface
var _ validation.Validator = (*Key)(nil)

// NewKey constructs a Key from a short-code value, rejecting values that do
// not satisfy the key constraints with ErrInvalidKey.
func NewKey(value string) (*Key, error) {
	key := &Key{value: value}
	if err := key.Validate(); err != nil {
		return nil, gerrors.NewErrInvalidKey(value, err)
	}
	return key, nil
}

// String returns the short-code value of the Key.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	return k.value
}

// Equal checks whether this Key is equal to another. Returns false if the
// other is nil.
func (k *Key) Equal(other *Key) bool {
	if other == nil {
		return false
	}
	return k.value == other.value
}

// Validate implements validation.Validator.
func (k *Key) Validate() error {
	pattern := "^[a-zA-Z0-9][a-zA-Z0-9-_\\.]*$"
	customErr := errors.New("must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("key", k.value)).
		AddAssertion(len(k.value) <= maxKeyLength, "key is too long. Maximum length is 64").
		AddValidator(validation.NewPatternValidator(pattern, strings.TrimSpace(k.value), customErr)).
		Validate()
}
