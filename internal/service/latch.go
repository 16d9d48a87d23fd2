package service

import "sync"

// inflight is a keyed double-submit guard. A mutating operation books its key
// before issuing the store call and releases it when the call settles, so a
// second identical submission fails fast with domain.ErrBusy instead of
// racing the first.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

func (l *inflight) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.keys[key]; held {
		return false
	}
	l.keys[key] = struct{}{}
	return true
}

func (l *inflight) release(key string) {
	l.mu.Lock()
	delete(l.keys, key)
	l.mu.Unlock()
}
