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

// Package shortener implements the URL shortening domain on top of the link
// directory: minting codes, resolving them and retiring them.
package shortener

import (
	"context"
	"errors"
	"net/url"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/grain"
	"github.com/grainlink/grainlink/log"
)

// defaultCreateMaxAttempts bounds how many candidate codes one Create call
// may claim before giving up with ErrKeyExhaustion.
const defaultCreateMaxAttempts = 5

// Service is the domain API of the shortener.
//
// Every operation funnels through the link directory, so the per-key
// serialization and write-through guarantees of the grain runtime apply
// unchanged: two concurrent Create calls can never be handed the same code,
// and a Resolve never observes a half-written mapping.
type Service struct {
	directory   *grain.Directory
	generator   Generator
	logger      log.Logger
	maxAttempts int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger log.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithCreateMaxAttempts bounds the number of candidate codes tried per
// Create call.
func WithCreateMaxAttempts(attempts int) ServiceOption {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// NewService creates a Service backed by the given directory and code
// generator.
func NewService(directory *grain.Directory, generator Generator, opts ...ServiceOption) *Service {
	svc := &Service{
		directory:   directory,
		generator:   generator,
		logger:      log.DefaultLogger,
		maxAttempts: defaultCreateMaxAttempts,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create mints a short code for the target URL and durably establishes the
// mapping. Candidate codes already in use are discarded and regenerated up to
// the attempt budget; exhausting the budget fails with ErrKeyExhaustion.
func (s *Service) Create(ctx context.Context, targetURL string) (string, error) {
	if err := validateTargetURL(targetURL); err != nil {
		return "", err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.NextCode()
		if err != nil {
			return "", err
		}

		key, err := grain.NewKey(code)
		if err != nil {
			s.logger.Warnf("generator produced invalid code %q: %v", code, err)
			continue
		}

		err = s.claim(ctx, key, targetURL)
		switch {
		case errors.Is(err, gerrors.ErrKeyExists):
			s.logger.Debugf("short code %s already taken, regenerating (attempt %d/%d)", code, attempt, s.maxAttempts)
			continue
		case err != nil:
			return "", err
		}
		return code, nil
	}

	return "", gerrors.ErrKeyExhaustion
}

// Resolve returns the target URL the short code maps to. Unknown codes fail
// with ErrNotFound; so do syntactically invalid ones, which cannot name any
// mapping.
func (s *Service) Resolve(ctx context.Context, shortCode string) (string, error) {
	key, err := grain.NewKey(shortCode)
	if err != nil {
		return "", gerrors.ErrNotFound
	}

	var target string
	err = s.withLink(ctx, key, func(link *grain.Link) error {
		url, err := link.GetURL(ctx)
		if err != nil {
			return err
		}
		target = url
		return nil
	})
	return target, err
}

// Delete removes the mapping for the short code. Deleting an unknown code
// fails with ErrNotFound.
func (s *Service) Delete(ctx context.Context, shortCode string) error {
	key, err := grain.NewKey(shortCode)
	if err != nil {
		return gerrors.ErrNotFound
	}

	return s.withLink(ctx, key, func(link *grain.Link) error {
		if _, err := link.GetURL(ctx); err != nil {
			return err
		}
		return link.Delete(ctx)
	})
}

func (s *Service) claim(ctx context.Context, key *grain.Key, targetURL string) error {
	return s.withLink(ctx, key, func(link *grain.Link) error {
		return link.Claim(ctx, targetURL)
	})
}

// withLink resolves the link through the directory and runs the operation
// against it. A reference that deactivated between lookup and dispatch fails
// with ErrNotActive; one re-resolve picks up a fresh activation.
func (s *Service) withLink(ctx context.Context, key *grain.Key, op func(*grain.Link) error) error {
	link, err := s.directory.GetOrActivate(ctx, key)
	if err != nil {
		return err
	}

	if err := op(link); errors.Is(err, gerrors.ErrNotActive) {
		link, rerr := s.directory.GetOrActivate(ctx, key)
		if rerr != nil {
			return rerr
		}
		return op(link)
	} else if err != nil {
		return err
	}
	return nil
}

// validateTargetURL accepts absolute http(s) URLs only.
func validateTargetURL(targetURL string) error {
	parsed, err := url.Parse(targetURL)
	switch {
	case targetURL == "":
		return gerrors.ErrInvalidTargetURL
	case err != nil:
		return errors.Join(gerrors.ErrInvalidTargetURL, err)
	case parsed.Scheme != "http" && parsed.Scheme != "https":
		return gerrors.ErrInvalidTargetURL
	case parsed.Host == "":
		return gerrors.ErrInvalidTargetURL
	}
	return nil
}
