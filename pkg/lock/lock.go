// Package lock serializes edits to one family.
//
// Removing a patient link is a load, modify, save sequence. Two of them
// running concurrently on the same family would lose one edit, so the family
// service holds a lock keyed by family id for the duration.
//
// Acquire never blocks: a held lock is reported as a LOCKED error wrapped as
// retryable, and the caller decides how long to keep trying (normally through
// [cache.RetryWithBackoff]).
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
)

// Release gives a lock back. Releasing a lock that already expired, or was
// taken over after expiring, is a no-op.
type Release func(ctx context.Context) error

// Locker hands out exclusive, expiring locks.
type Locker interface {
	// Acquire takes the lock for key, holding it for at most ttl.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// errLocked is returned when key is held by someone else.
func errLocked(key string) error {
	return cache.Retryable(errors.New(errors.ErrCodeLocked, "%s is being edited", key))
}

// LocalLocker keeps locks in process memory. It serializes goroutines of a
// single server or CLI process.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLock
	clock func() time.Time
}

type localLock struct {
	token   string
	expires time.Time
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLock), clock: time.Now}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return nil, errLocked(key)
	}

	token := uuid.NewString()
	l.held[key] = localLock{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}

var _ Locker = (*LocalLocker)(nil)
