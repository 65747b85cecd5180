package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store, used for tests and local demos.
type MemoryStore struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	pageSize int

	// Fail, when set, is consulted before every operation and its error
	// returned instead of performing it.
	Fail func(op, key string) error
}

// NewMemoryStore creates an empty store that lists pageSize keys per page.
func NewMemoryStore(pageSize int) *MemoryStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MemoryStore{objects: make(map[string][]byte), pageSize: pageSize}
}

func (m *MemoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := m.fail("get", key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStore) ListObjects(ctx context.Context, prefix, token string) (ListPage, error) {
	if err := m.fail("list", prefix); err != nil {
		return ListPage{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > token {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := ListPage{Keys: keys}
	if len(keys) > m.pageSize {
		page.Keys = keys[:m.pageSize]
		page.NextToken = page.Keys[len(page.Keys)-1]
	}
	return page, nil
}

func (m *MemoryStore) PutObject(ctx context.Context, key string, data []byte) error {
	if err := m.fail("put", key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[key] = stored
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.fail("ping", "")
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStore) fail(op, key string) error {
	if m.Fail == nil {
		return nil
	}
	return m.Fail(op, key)
}
