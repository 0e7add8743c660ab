package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/tourcart/internal/port"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() port.CartStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, namespace string) ([]byte, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.data[namespace]
	if !ok {
		return nil, port.ErrNotFound
	}

	return append([]byte(nil), payload...), nil
}

func (s *memoryStore) Set(_ context.Context, namespace string, payload []byte) error {
	if namespace == "" {
		return fmt.Errorf("namespace is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[namespace] = append([]byte(nil), payload...)

	return nil
}
