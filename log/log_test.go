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

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapInfo(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(InfoLevel, buffer)
	logger.Info("information")
	require.NoError(t, logger.Flush())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "information", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, InfoLevel, logger.LogLevel())
}

func TestZapDebugf(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(DebugLevel, buffer)
	logger.Debugf("%s %d", "debugging", 42)
	require.NoError(t, logger.Flush())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "debugging 42", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
}

func TestZapLevelFiltering(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(ErrorLevel, buffer)
	logger.Info("filtered out")
	logger.Warnf("also %s", "filtered")
	require.NoError(t, logger.Flush())
	assert.Empty(t, strings.TrimSpace(buffer.String()))

	logger.Error("kept")
	require.NoError(t, logger.Flush())
	assert.Contains(t, buffer.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, WarningLevel, ParseLevel("WARN"))
	assert.Equal(t, ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, DebugLevel, ParseLevel("Debug"))
	assert.Equal(t, InvalidLevel, ParseLevel("verbose"))
}

func TestDiscardLogger(t *testing.T) {
	DiscardLogger.Info("never seen")
	DiscardLogger.Errorf("never %s", "seen")
	assert.Equal(t, InvalidLevel, DiscardLogger.LogLevel())
	assert.Len(t, DiscardLogger.LogOutput(), 1)
}
