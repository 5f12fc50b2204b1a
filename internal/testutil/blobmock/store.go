package blobmock

import (
	"context"
	"sync"

	"cmcs-backend/internal/domain/document"
)

var _ document.BlobStore = (*Store)(nil)

// Store is a function-backed document.BlobStore. With no functions set it
// behaves as an in-memory store, which most tests want.
type Store struct {
	PutFn    func(ctx context.Context, name string, data []byte) error
	GetFn    func(ctx context.Context, name string) ([]byte, error)
	DeleteFn func(ctx context.Context, name string) error

	mu    sync.Mutex
	blobs map[string][]byte
}

func New() *Store { return &Store{blobs: map[string][]byte{}} }

func (m *Store) Put(ctx context.Context, name string, data []byte) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, name, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs == nil {
		m.blobs = map[string][]byte{}
	}
	m.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (m *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[name]
	if !ok {
		return nil, document.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Store) Delete(ctx context.Context, name string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[name]; !ok {
		return document.ErrNotFound
	}
	delete(m.blobs, name)
	return nil
}

// Len reports how many blobs the in-memory store holds.
func (m *Store) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// Names lists stored blob names in no particular order.
func (m *Store) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		out = append(out, k)
	}
	return out
}
