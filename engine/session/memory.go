package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMaxEntries = 10_000

// MemoryStore keeps encoded sessions in a size bounded LRU with expiry. It
// is meant for single instance deployments and development.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Data, error) {
	raw, ok := s.lru.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &data, nil
}

func (s *MemoryStore) Save(_ context.Context, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	s.lru.Add(data.ID, raw)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.lru.Remove(id)
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
