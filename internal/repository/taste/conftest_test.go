package taste

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/termgen/internal/db"
)

// memStore is an in-memory implementation of the consumer interface.
type memStore struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	counters map[string]int64

	hgetErr   error
	beforeSet func() // runs before HSETNX, used to simulate a concurrent writer
}

func newMemStore() *memStore {
	return &memStore{hashes: map[string]map[string]string{}, counters: map[string]int64{}}
}

func (m *memStore) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hgetErr != nil {
		return "", m.hgetErr
	}
	v, ok := m.hashes[key][field]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) HSetNX(_ context.Context, key, field, value string) (bool, error) {
	if m.beforeSet != nil {
		m.beforeSet()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	if _, ok := h[field]; ok {
		return false, nil
	}
	h[field] = value
	return true, nil
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += val
	return m.counters[key], nil
}

func (m *memStore) hash(key string) map[string]string {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	return h
}

func newTestRepo(t *testing.T) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms, Namespaces{User: "taste:user", Item: "taste:item", Preference: "taste:pref"}), ms
}
