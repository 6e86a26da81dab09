package lock

import (
	"context"
	"sync"
	"time"

	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
)

// slot is a one-token semaphore shared by every waiter on a key
type slot struct {
	token   chan struct{}
	waiters int
}

// KeyedMutex serializes mutations per key inside one process.
// Slots are dropped once no holder or waiter references them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

// NewKeyedMutex creates a guard. A positive wait bounds how long Acquire
// blocks before returning ErrInvoiceBusy.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot), wait: wait}
}

// Acquire blocks until key is free. The returned release must be called once.
func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	s := m.ref(key)

	waitCtx := ctx
	if m.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.wait)
		defer cancel()
	}

	select {
	case s.token <- struct{}{}:
	case <-waitCtx.Done():
		m.unref(key, s)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, appinvoicing.ErrInvoiceBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.token
			m.unref(key, s)
		})
	}, nil
}

func (m *KeyedMutex) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.waiters++
	return s
}

func (m *KeyedMutex) unref(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(m.slots, key)
	}
}

// Len reports how many keys are currently held or awaited
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

var _ appinvoicing.MutationGuard = (*KeyedMutex)(nil)
