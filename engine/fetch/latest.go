// Package fetch coordinates overlapping reads so that only the most recent
// call for a key delivers its result.
package fetch

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// ErrStale is returned to a call that was superseded by a newer one.
var ErrStale = errors.New("fetch: superseded by a newer request")

type inflight struct {
	id     uint64
	cancel context.CancelFunc
}

// Latest tracks the newest in-flight call per key. The zero value is not
// usable; call NewLatest.
type Latest struct {
	mu      sync.Mutex
	next    uint64
	current map[string]inflight
}

func NewLatest() *Latest {
	return &Latest{current: make(map[string]inflight)}
}

// Key builds a key from a scope (such as a session ID), an endpoint and its
// parameters. Parameter order does not matter.
func Key(scope, endpoint string, params map[string]string) string {
	v := url.Values{}
	for k, p := range params {
		if p != "" {
			v.Set(k, p)
		}
	}
	key := scope + "|" + endpoint
	if enc := v.Encode(); enc != "" {
		key += "?" + enc
	}
	return key
}

// Run calls fn with a context that is cancelled as soon as another Run for
// the same key starts. A superseded call returns ErrStale and its result is
// dropped, even when fn ignored the cancellation.
func Run[T any](ctx context.Context, l *Latest, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if prev, ok := l.current[key]; ok {
		prev.cancel()
	}
	l.next++
	id := l.next
	l.current[key] = inflight{id: id, cancel: cancel}
	l.mu.Unlock()

	res, err := fn(cctx)

	l.mu.Lock()
	cur, ok := l.current[key]
	fresh := ok && cur.id == id
	if fresh {
		delete(l.current, key)
	}
	l.mu.Unlock()

	if !fresh {
		var zero T
		return zero, ErrStale
	}
	return res, err
}

// Cancel aborts the in-flight call for key, which then returns ErrStale.
func (l *Latest) Cancel(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.current[key]; ok {
		cur.cancel()
		delete(l.current, key)
	}
}

// CancelAll aborts every in-flight call.
func (l *Latest) CancelAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, cur := range l.current {
		cur.cancel()
		delete(l.current, key)
	}
}

// InFlight reports how many keys have a running call.
func (l *Latest) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.current)
}
