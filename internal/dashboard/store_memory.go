package dashboard

import (
	"context"
	"sync"
)

// MemStore keeps everything in process memory. Used in tests and as the
// zero-setup backend.
type MemStore struct {
	mu       sync.RWMutex
	products []Product
	prefs    map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{prefs: map[string]string{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) LoadAll(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemStore) SaveAll(ctx context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make([]Product, len(products))
	copy(s.products, products)
	return nil
}

func (s *MemStore) Append(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(s.products, p)
	return nil
}

func (s *MemStore) Remove(ctx context.Context, match func(Product) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.products[:0]
	removed := false
	for _, p := range s.products {
		if match(p) {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	s.products = kept
	return removed, nil
}

func (s *MemStore) Replace(ctx context.Context, match func(Product) bool, updated Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if match(p) {
			s.products[i] = updated
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) LoadPref(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs[key], nil
}

func (s *MemStore) SavePref(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = value
	return nil
}
