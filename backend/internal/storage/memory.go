package storage

import (
	"context"
	"sync"

	"unipulse/backend/internal/shared"
)

// Memory is a Blob held in process memory, used by tests and local tooling
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte

	// FailDelete makes Delete report an upstream failure
	FailDelete bool
}

// NewMemory returns an empty Memory blob store
func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}}
}

func (m *Memory) Store(_ context.Context, data []byte, filename, subdir string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url := PublicPrefix + objectKey(filename, subdir)
	m.files[url] = append([]byte(nil), data...)
	return url, OriginalName(filename), nil
}

func (m *Memory) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return shared.Upstream("failed to delete file", nil)
	}
	delete(m.files, url)
	return nil
}

// Has reports whether url is currently stored
func (m *Memory) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[url]
	return ok
}

// Len returns the number of stored files
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
