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

import "sync"

// command enumerates the operations a link instance executes.
type command int

const (
	cmdGet command = iota
	cmdClaim
	cmdSet
	cmdDelete
	cmdDeactivate
)

// outcome carries the result of one executed command back to its caller.
type outcome struct {
	url string
	err error
}

// envelopePool recycles envelopes across operations.
var envelopePool = sync.Pool{
	New: func() any {
		return new(envelope)
	},
}

// getEnvelope retrieves an envelope from the pool.
func getEnvelope() *envelope {
	return envelopePool.Get().(*envelope)
}

// releaseEnvelope sends the envelope back to the pool.
func releaseEnvelope(env *envelope) {
	env.reset()
	envelopePool.Put(env)
}

// envelope is one queued operation against a link instance: the command, its
// payload and the channel the outcome is delivered on.
//
// The result channel has capacity one so the processing loop never blocks on a
// caller that abandoned the wait; the operation still runs to completion.
type envelope struct {
	cmd       command
	targetURL string
	result    chan outcome
}

// build sets the fields of the envelope for one use.
func (env *envelope) build(cmd command, targetURL string) *envelope {
	env.cmd = cmd
	env.targetURL = targetURL
	env.result = make(chan outcome, 1)
	return env
}

// complete delivers the outcome of the command. It is called exactly once per
// envelope, from the processing loop.
func (env *envelope) complete(url string, err error) {
	env.result <- outcome{url: url, err: err}
}

// reset clears the fields of the envelope before pooling.
func (env *envelope) reset() {
	env.cmd = 0
	env.targetURL = ""
	env.result = nil
}
