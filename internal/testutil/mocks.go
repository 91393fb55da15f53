// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"chunkstream/internal/domain"
)

// === Object Store Mock ===

// MockObjectStore implements domain.ObjectStore in memory.
type MockObjectStore struct {
	PreflightFn     func(ctx context.Context) error
	PutFn           func(ctx context.Context, obj domain.Object) error
	DestinationName string

	mu      sync.Mutex
	Objects []domain.Object // collected uploads for assertions
	Closed  bool
}

// Preflight implements the interface method for testing.
func (m *MockObjectStore) Preflight(ctx context.Context) error {
	if m.PreflightFn != nil {
		return m.PreflightFn(ctx)
	}
	return nil
}

// Put implements the interface method for testing. Objects rejected by PutFn
// are not collected.
func (m *MockObjectStore) Put(ctx context.Context, obj domain.Object) error {
	if m.PutFn != nil {
		if err := m.PutFn(ctx, obj); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects = append(m.Objects, obj)
	return nil
}

// Close implements the interface method for testing.
func (m *MockObjectStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Destination implements the interface method for testing.
func (m *MockObjectStore) Destination() string {
	if m.DestinationName == "" {
		return "s3://test-bucket"
	}
	return m.DestinationName
}

// Keys returns the keys of the collected objects in upload order.
func (m *MockObjectStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for _, o := range m.Objects {
		keys = append(keys, o.Key)
	}
	return keys
}

// PreflightError returns a PreflightFn that always fails with err.
func PreflightError(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}
