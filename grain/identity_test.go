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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/grainlink/grainlink/errors"
)

func TestNewKey(t *testing.T) {
	t.Run("With valid keys", func(t *testing.T) {
		for _, value := range []string{
			"abc123",
			"Ab9",
			"a-b_c.d",
			"0leading-digit",
			strings.Repeat("a", 64),
		} {
			key, err := NewKey(value)
			require.NoError(t, err)
			require.NotNil(t, key)
			assert.Equal(t, value, key.String())
		}
	})

	t.Run("With invalid keys", func(t *testing.T) {
		for _, value := range []string{
			"",
			"-leading-dash",
			"_leading-underscore",
			"has space",
			"has/slash",
			strings.Repeat("a", 65),
		} {
			key, err := NewKey(value)
			require.Error(t, err)
			assert.ErrorIs(t, err, gerrors.ErrInvalidKey)
			assert.Nil(t, key)
		}
	})
}

func TestKeyEqual(t *testing.T) {
	one := mustKey(t, "same")
	two := mustKey(t, "same")
	other := mustKey(t, "other")

	assert.True(t, one.Equal(two))
	assert.False(t, one.Equal(other))
	assert.False(t, one.Equal(nil))
}

func TestKeyStringOnNil(t *testing.T) {
	var key *Key
	assert.Empty(t, key.String())
}
