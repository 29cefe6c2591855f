package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	key       string
	value     V
	expiresAt time.Time // zero: never
}

func (it *item[V]) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// Memory is an in-process cache with TTL expiry and optional LRU bounds.
// Recently used entries sit at the front of the recency list.
type Memory[V any] struct {
	index   map[string]*list.Element
	recency *list.List
	opts    options
	stop    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewMemory creates a cache. A background sweep runs until Close unless
// the cleanup interval is zero.
func NewMemory[V any](opts ...Option) *Memory[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m := &Memory[V]{
		index:   make(map[string]*list.Element),
		recency: list.New(),
		opts:    o,
		stop:    make(chan struct{}),
	}
	if o.cleanupInterval > 0 {
		go m.sweepLoop()
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.lookup(key, time.Now())
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return it.value, nil
}

func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key, time.Now())
	return ok, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if el, ok := m.index[key]; ok {
		it := el.Value.(*item[V])
		it.value, it.expiresAt = value, expiresAt
		m.recency.MoveToFront(el)
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.index) >= m.opts.maxEntries {
		if last := m.recency.Back(); last != nil {
			m.remove(last)
		}
	}
	m.index[key] = m.recency.PushFront(&item[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.index[key]; ok {
		m.remove(el)
	}
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.clear()
	return nil
}

// Len returns the number of stored entries, including expired ones not
// yet swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.index)
}

// Close stops the sweep and evicts every entry. Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.stop)
	m.clear()
	return nil
}

// lookup returns the live entry for key and marks it recently used.
// Caller holds the lock.
func (m *Memory[V]) lookup(key string, now time.Time) (*item[V], bool) {
	el, ok := m.index[key]
	if !ok {
		return nil, false
	}
	it := el.Value.(*item[V])
	if it.expired(now) {
		m.remove(el)
		return nil, false
	}
	m.recency.MoveToFront(el)
	return it, true
}

func (m *Memory[V]) remove(el *list.Element) {
	it := m.recency.Remove(el).(*item[V])
	delete(m.index, it.key)
	m.evicted(it.key, it.value)
}

func (m *Memory[V]) clear() {
	for el := m.recency.Front(); el != nil; el = el.Next() {
		it := el.Value.(*item[V])
		m.evicted(it.key, it.value)
	}
	m.index = make(map[string]*list.Element)
	m.recency.Init()
}

func (m *Memory[V]) evicted(key string, value V) {
	if m.opts.onEvict != nil {
		m.opts.onEvict(key, value)
	}
}

func (m *Memory[V]) sweepLoop() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep drops expired entries, oldest first.
func (m *Memory[V]) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.recency.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*item[V]).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

var _ Cache[any] = (*Memory[any])(nil)
