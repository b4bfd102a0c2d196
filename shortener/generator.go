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

package shortener

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/jxskiss/base62"
)

// Generator produces candidate short codes for new links.
//
// Candidates are not reservations: the service claims the code through the
// link directory and regenerates on collision, so a Generator only has to be
// reasonably collision free, not perfectly so.
type Generator interface {
	// NextCode returns a fresh candidate short code.
	NextCode() (string, error)
}

// SnowflakeGenerator derives short codes from snowflake IDs encoded in
// base62. IDs are unique per node by construction, so collisions only occur
// against codes minted by another node or chosen by hand.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// enforce compilation error
var _ Generator = (*SnowflakeGenerator)(nil)

// NewSnowflakeGenerator creates a SnowflakeGenerator for the given node
// number. Node numbers must be distinct across instances sharing a store.
func NewSnowflakeGenerator(nodeNumber int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeNumber)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node: %w", err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

// NextCode implements Generator.
func (g *SnowflakeGenerator) NextCode() (string, error) {
	return string(base62.FormatInt(g.node.Generate().Int64())), nil
}

// defaultRandomCodeLength yields 62^7 (~3.5e12) possible codes.
const defaultRandomCodeLength = 7

// RandomGenerator produces fixed-width base62 codes from crypto/rand. The
// code space is small enough that collisions are possible, which exercises
// the service's claim-and-retry path.
type RandomGenerator struct {
	length int
}

// enforce compilation error
var _ Generator = (*RandomGenerator)(nil)

// NewRandomGenerator creates a RandomGenerator producing codes of the given
// length. A non-positive length falls back to the default width.
func NewRandomGenerator(length int) *RandomGenerator {
	if length <= 0 {
		length = defaultRandomCodeLength
	}
	return &RandomGenerator{length: length}
}

// NextCode implements Generator.
func (g *RandomGenerator) NextCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	id := int64(binary.BigEndian.Uint64(buf[:]) >> 1)
	code := base62.FormatInt(id)
	if len(code) < g.length {
		padded := make([]byte, g.length)
		for i := range padded {
			padded[i] = '0'
		}
		copy(padded[g.length-len(code):], code)
		code = padded
	}
	return string(code[:g.length]), nil
}
