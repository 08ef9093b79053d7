// Package lock serializes mutating commands across processes with an
// advisory lock file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned when another mintdraw process holds the lock.
var ErrAlreadyLocked = errors.New("another mintdraw command is already running")

// Flocker abstracts the subset of flock.Flock used for advisory locking.
type Flocker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Lock guards the project state directory. With a zero Wait it fails fast;
// otherwise it retries with exponential backoff for up to Wait.
//
// A Lock is reentrant: nested TryLock calls on the same Lock succeed without
// touching the file and the file lock is released by the matching outermost
// Unlock. A Lock is not safe for concurrent use.
type Lock struct {
	flocker Flocker
	Wait    time.Duration
	depth   int
}

// New creates a Lock from the given Flocker.
func New(f Flocker) *Lock {
	return &Lock{flocker: f}
}

// NewFromPath creates a Lock backed by a file at the given path.
func NewFromPath(path string, wait time.Duration) *Lock {
	return &Lock{flocker: flock.New(path), Wait: wait}
}

func (l *Lock) tryOnce() error {
	ok, err := l.flocker.TryLock()
	if err != nil {
		return backoff.Permanent(fmt.Errorf("acquiring lock: %w", err))
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// TryLock acquires the lock, retrying while another process holds it and
// Wait has not elapsed. Flock failures other than contention are not retried.
func (l *Lock) TryLock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.depth > 0 {
		l.depth++
		return nil
	}
	if err := l.acquire(ctx); err != nil {
		return err
	}
	l.depth = 1
	return nil
}

func (l *Lock) acquire(ctx context.Context) error {
	if l.Wait <= 0 {
		return unwrapPermanent(l.tryOnce())
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = l.Wait

	err := backoff.Retry(l.tryOnce, backoff.WithContext(b, ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return unwrapPermanent(err)
	}
	return nil
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// Unlock releases one level of the lock, and the file lock at the outermost level.
func (l *Lock) Unlock() error {
	if l.depth > 1 {
		l.depth--
		return nil
	}
	l.depth = 0
	if err := l.flocker.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
