// Package view holds the rendering-independent controllers behind each
// screen: the post list, the post detail and the navigation bar. Controllers
// own their state, expose it as snapshots plus change subscriptions, and
// accept user actions as method calls.
package view

import (
	"context"
	"errors"
)

// Static errors for err113 compliance.
var (
	ErrStaleResponse  = errors.New("response superseded by a newer request")
	ErrDeletePending  = errors.New("another delete is still pending")
	ErrPostNotListed  = errors.New("post is not in the current list")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrEmptyComment   = errors.New("comment cannot be empty")
	ErrPostNotLoaded  = errors.New("post is not loaded")
	ErrCommentPending = errors.New("another comment is still being submitted")
	ErrPostNotFound   = errors.New("post not found")
)

// Result is the outcome of a user action. Expected failures are reported
// here rather than by panicking or by a second return value.
type Result struct {
	err error
}

// Succeeded returns a successful Result.
func Succeeded() Result {
	return Result{}
}

// Failed returns a failed Result carrying err.
func Failed(err error) Result {
	return Result{err: err}
}

// OK reports whether the action succeeded.
func (r Result) OK() bool {
	return r.err == nil
}

// Err returns the failure, or nil.
func (r Result) Err() error {
	return r.err
}

// optimistic applies a local change, performs the remote call, then lets
// settle confirm or roll back using the snapshot taken by apply.
func optimistic[S any](
	ctx context.Context,
	apply func() (S, error),
	commit func(context.Context) error,
	settle func(snapshot S, err error),
) Result {
	snapshot, err := apply()
	if err != nil {
		return Failed(err)
	}

	err = commit(ctx)
	settle(snapshot, err)

	if err != nil {
		return Failed(err)
	}

	return Succeeded()
}
