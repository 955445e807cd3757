// SPDX-License-Identifier: MIT
package utils

import "sync"

// MockTransport implements the Transport interface for testing. It keeps
// every record it is sent.
type MockTransport struct {
	mu      sync.Mutex
	records []any
	Closed  bool
	Err     error // Returned from Send when set
}

// Send stores the data for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.records = append(m.records, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// Records returns a copy of everything sent so far.
func (m *MockTransport) Records() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.records))
	copy(out, m.records)
	return out
}
