package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore はプロセス内のLRU + TTLストア。
// REDIS_URL未設定時のフォールバックとして使用する。
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	items      map[string]*list.Element
	lru        *list.List
	now        func() time.Time

	stopCleanup chan struct{}
	cleanupDone chan struct{}
	closeOnce   sync.Once
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore は最大maxEntries件を保持するMemoryStoreを生成する。
// 上限を超えると最も長く参照されていないエントリから追い出す。
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
	}
}

// Get は値を取得する。期限切れのエントリはその場で削除する。
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if !s.now().Before(entry.expiresAt) {
		s.removeElement(elem)
		return nil, false, nil
	}

	s.lru.MoveToFront(elem)
	return entry.value, true, nil
}

// Set は値を上書き保存し、TTLを更新する。
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &memoryEntry{
		key:       key,
		value:     append([]byte(nil), value...),
		expiresAt: s.now().Add(ttl),
	}

	if elem, ok := s.items[key]; ok {
		elem.Value = entry
		s.lru.MoveToFront(elem)
		return nil
	}

	s.items[key] = s.lru.PushFront(entry)
	if s.lru.Len() > s.maxEntries {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
	return nil
}

// DeletePrefix は接頭辞に一致するすべてのエントリを削除する。
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key, elem := range s.items {
		if strings.HasPrefix(key, prefix) {
			s.removeElement(elem)
			deleted++
		}
	}
	return deleted, nil
}

// CleanExpired は期限切れのエントリをすべて削除し、削除件数を返す。
func (s *MemoryStore) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*list.Element
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if !now.Before(elem.Value.(*memoryEntry).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		s.removeElement(elem)
	}
	return len(expired)
}

// Len は現在保持しているエントリ数を返す。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// StartCleanup は期限切れエントリを定期的に削除するgoroutineを開始する。
// Closeで停止する。
func (s *MemoryStore) StartCleanup(interval time.Duration) {
	s.mu.Lock()
	if s.stopCleanup != nil {
		s.mu.Unlock()
		return
	}
	s.stopCleanup = make(chan struct{})
	s.cleanupDone = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.cleanupDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.CleanExpired()
			case <-s.stopCleanup:
				return
			}
		}
	}()
}

// Close は定期削除を停止する。
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		stop, done := s.stopCleanup, s.cleanupDone
		s.mu.Unlock()
		if stop != nil {
			close(stop)
			<-done
		}
	})
	return nil
}

func (s *MemoryStore) removeElement(elem *list.Element) {
	delete(s.items, elem.Value.(*memoryEntry).key)
	s.lru.Remove(elem)
}

var _ Store = (*MemoryStore)(nil)
