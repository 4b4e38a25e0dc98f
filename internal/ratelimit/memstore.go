package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemStore — счётчики в памяти процесса. Корректен только для
// single-instance деплоя: за балансировщиком каждый инстанс будет
// вести свою квоту. Для кластера используется RedisStore.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	ops     int
}

type memEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]*memEntry)}
}

func (s *MemStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Периодическая уборка истёкших бакетов, чтобы карта не росла вечно
	s.ops++
	if s.ops%256 == 0 {
		for k, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, k)
			}
		}
	}

	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = &memEntry{expiresAt: now.Add(window + time.Second)}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}
