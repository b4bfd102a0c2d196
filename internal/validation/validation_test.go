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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainAllErrors(t *testing.T) {
	err := New().
		AddValidator(NewEmptyStringValidator("field", "")).
		AddAssertion(false, "assertion failed").
		Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the [field] is required")
	assert.Contains(t, err.Error(), "assertion failed")
}

func TestChainFailFast(t *testing.T) {
	err := New(FailFast()).
		AddValidator(NewEmptyStringValidator("field", "")).
		AddAssertion(false, "assertion failed").
		Validate()
	require.Error(t, err)
	assert.Equal(t, "the [field] is required", err.Error())
}

func TestChainNoViolations(t *testing.T) {
	err := New().
		AddValidator(NewEmptyStringValidator("field", "set")).
		AddAssertion(true, "never returned").
		Validate()
	assert.NoError(t, err)
}

func TestPatternValidator(t *testing.T) {
	pattern := "^[a-zA-Z0-9][a-zA-Z0-9-_\\.]*$"
	customErr := errors.New("invalid code")

	assert.NoError(t, NewPatternValidator(pattern, "AB12", customErr).Validate())
	assert.NoError(t, NewPatternValidator(pattern, "a-b_c.d", customErr).Validate())
	assert.ErrorIs(t, NewPatternValidator(pattern, "-leading", customErr).Validate(), customErr)
	assert.ErrorIs(t, NewPatternValidator(pattern, "bad/slash", customErr).Validate(), customErr)
}

func TestBooleanValidator(t *testing.T) {
	assert.NoError(t, NewBooleanValidator(true, "unused").Validate())
	err := NewBooleanValidator(false, "went wrong").Validate()
	require.Error(t, err)
	assert.Equal(t, "went wrong", err.Error())
}
