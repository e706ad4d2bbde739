package alert

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// KeyLock serializes work per identity. Entries are dropped once no
// goroutine holds or waits on them, so the map only holds active keys.
type KeyLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyEntry
}

// keyEntry is held while a token sits in sem
type keyEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[uuid.UUID]*keyEntry)}
}

// Lock waits until key is free or ctx is done. On success it returns the
// matching unlock; on ctx expiry it returns ctx.Err() and holds nothing.
func (k *KeyLock) Lock(ctx context.Context, key uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyEntry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	return func() {
		<-e.sem
		k.release(key, e)
	}, nil
}

func (k *KeyLock) release(key uuid.UUID, e *keyEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *KeyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
