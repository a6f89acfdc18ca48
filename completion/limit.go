/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package completion

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limit bounds the number of concurrent calls made through c. A limit of
// zero or less returns c unchanged. Callers blocked on the limit give up when
// their context is done.
func Limit(c Client, n int) Client {
	if n <= 0 {
		return c
	}
	return &limited{next: c, sem: semaphore.NewWeighted(int64(n))}
}

type limited struct {
	next Client
	sem  *semaphore.Weighted
}

func (l *limited) Check() error { return Check(l.next) }

func (l *limited) Complete(ctx context.Context, req Request) (Result, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer l.sem.Release(1)
	return l.next.Complete(ctx, req)
}
