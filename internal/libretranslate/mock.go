package libretranslate

import (
	"context"
	"sync"
)

// MockClient for testing
type MockClient struct {
	Response string
	Error    error
	// Func overrides Response/Error when set.
	Func func(req Request) (string, error)

	mu       sync.Mutex
	requests []Request
}

func (m *MockClient) Translate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.Func != nil {
		return m.Func(req)
	}
	return m.Response, m.Error
}

// Requests returns every request received so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
