package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

// MemoryBackend holds uploads in memory and returns pseudo URLs. Useful
// for tests and dry runs where images should be fetched but not kept.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	counter int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string][]byte)}
}

// Name implements Backend.
func (b *MemoryBackend) Name() string { return "memory" }

// Upload stores a copy of data and returns a memory:// URL.
func (b *MemoryBackend) Upload(_ context.Context, data []byte, opts UploadOptions) (string, error) {
	if len(data) == 0 {
		return "", &screenshot.UploadError{Backend: b.Name(), Err: fmt.Errorf("empty payload")}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := opts.Key
	if key == "" {
		b.counter++
		key = fmt.Sprintf("object-%d.%s", b.counter, extensionFor(opts.ContentType))
	} else {
		key = SanitizeKey(key)
	}
	objectKey := JoinKey(opts.Folder, key)
	b.objects[objectKey] = append([]byte(nil), data...)
	return "memory://" + objectKey, nil
}

// Object returns the stored bytes for an object key.
func (b *MemoryBackend) Object(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[key]
	return data, ok
}

// Len reports how many objects have been stored.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
