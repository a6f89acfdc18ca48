/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package completion

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/docsabot/promptbuilder"
)

// ErrUnavailable is returned, possibly wrapped, when the process has no
// usable completion client.
var ErrUnavailable = errors.New("completion client unavailable")

// Request is one completion call.
type Request struct {
	Model           string
	Conversation    promptbuilder.Conversation
	MaxOutputTokens int64
	Temperature     float64
}

// Client turns a conversation into a single assistant message.
// Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

// Checker is implemented by clients that can tell, without a network call,
// that they cannot serve requests.
type Checker interface {
	Check() error
}

// Check reports whether c can serve requests. A nil client is unavailable.
func Check(c Client) error {
	if c == nil {
		return ErrUnavailable
	}
	if ch, ok := c.(Checker); ok {
		return ch.Check()
	}
	return nil
}

// Unavailable returns a Client that fails every call with ErrUnavailable,
// wrapping cause. The server installs it when the configured backend could
// not be constructed so requests are answered with 503.
func Unavailable(cause error) Client {
	return unavailable{cause: cause}
}

type unavailable struct{ cause error }

func (u unavailable) Check() error {
	if u.cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}

func (u unavailable) Complete(context.Context, Request) (Result, error) {
	return Result{}, u.Check()
}

// Func adapts a function to the Client interface.
type Func func(ctx context.Context, req Request) (Result, error)

// Complete implements Client.
func (f Func) Complete(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
