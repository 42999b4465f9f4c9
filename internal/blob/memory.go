package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"vetting/pkg/platform/sentinel"
)

// Object is a stored blob held by MemoryStore.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// MemoryStore keeps blobs in process. URLs are BaseURL + "/" + key.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("read blob body: %w", err)
	}
	url := m.baseURL + "/" + key
	m.mu.Lock()
	m.objects[url] = Object{Key: key, ContentType: contentType, Data: buf.Bytes()}
	m.mu.Unlock()
	return url, nil
}

// Delete removes the blob behind url. Unknown URLs are ignored.
func (m *MemoryStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	delete(m.objects, url)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(url string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[url]
	if !ok {
		return Object{}, sentinel.ErrNotFound
	}
	return obj, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
