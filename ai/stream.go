package ai

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// PushFunc runs a callback-style generation call, handing each fragment to emit.
// It must return when emit returns an error or ctx is done.
type PushFunc func(ctx context.Context, emit func(fragment string) error) error

// PullStream turns a callback-style generation call into a lazy, cancellable
// sequence. The call runs on its own goroutine and hands fragments over an
// unbuffered channel, so it never runs ahead of the consumer by more than one
// fragment. Stopping the range cancels the call. Empty fragments are dropped.
func PullStream(ctx context.Context, push PushFunc) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		fragments := make(chan string)
		done := make(chan error, 1)

		go func() {
			err := push(ctx, func(fragment string) error {
				select {
				case fragments <- fragment:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			done <- err
			close(fragments)
		}()

		for fragment := range fragments {
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}

		if err := <-done; err != nil {
			yield("", err)
		}
	}
}

// Collect drains a generation stream into a single string.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for fragment, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(fragment)
	}
	return b.String(), nil
}

// IsCanceled reports whether err comes from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
