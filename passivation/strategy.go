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

// Package passivation defines when a resident link instance becomes eligible
// for eviction from memory.
package passivation

import (
	"fmt"
	"time"
)

// Strategy defines the contract for passivation strategies.
// Implementations of this interface determine when a link instance should be
// passivated based on specific conditions, such as inactivity.
type Strategy interface {
	fmt.Stringer
	Name() string
}

// TimeBasedStrategy is a passivation strategy that triggers passivation
// after a specified period of inactivity.
type TimeBasedStrategy struct {
	timeout time.Duration
}

// ensure TimeBasedStrategy implements Strategy interface
var _ Strategy = (*TimeBasedStrategy)(nil)

// NewTimeBasedStrategy creates and returns a new TimeBasedStrategy with the
// specified timeout duration. The timeout defines the period of inactivity
// after which the instance should be considered for passivation.
func NewTimeBasedStrategy(timeout time.Duration) *TimeBasedStrategy {
	return &TimeBasedStrategy{
		timeout: timeout,
	}
}

// Timeout returns the timeout duration configured for the TimeBasedStrategy.
func (t *TimeBasedStrategy) Timeout() time.Duration {
	return t.timeout
}

// String returns the string representation of the TimeBasedStrategy.
func (t *TimeBasedStrategy) String() string {
	return fmt.Sprintf("Time-Based of Duration=[%s]", t.timeout)
}

// Name returns the name of the TimeBasedStrategy.
func (t *TimeBasedStrategy) Name() string {
	return "TimeBased"
}

// LongLivedStrategy is a passivation strategy that never triggers passivation.
// Instances stay resident until explicitly deactivated.
type LongLivedStrategy struct{}

// ensure LongLivedStrategy implements Strategy interface
var _ Strategy = (*LongLivedStrategy)(nil)

// NewLongLivedStrategy creates and returns a new LongLivedStrategy.
func NewLongLivedStrategy() *LongLivedStrategy {
	return &LongLivedStrategy{}
}

// String returns the string representation of the LongLivedStrategy.
func (l *LongLivedStrategy) String() string {
	return "Long-Lived"
}

// Name returns the name of the LongLivedStrategy.
func (l *LongLivedStrategy) Name() string {
	return "LongLived"
}
