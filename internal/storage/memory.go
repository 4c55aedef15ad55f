package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryStore keeps blobs in process memory. It backs STORAGE_BACKEND=memory
// for local runs and the test suites.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string

	failUploads atomic.Bool
	failDeletes atomic.Bool
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://newsletters"
	}
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *MemoryStore) Upload(_ context.Context, body io.Reader, key, contentType string) (string, bool) {
	if m.failUploads.Load() {
		slog.Error("uploading to memory store", "key", key, "error", "upload disabled")
		return "", false
	}
	data, err := io.ReadAll(body)
	if err != nil {
		slog.Error("uploading to memory store", "key", key, "error", err)
		return "", false
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return m.baseURL + "/" + key, true
}

func (m *MemoryStore) Delete(_ context.Context, key string) bool {
	if m.failDeletes.Load() {
		slog.Error("deleting from memory store", "key", key, "error", "delete disabled")
		return false
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return true
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

// FailUploads makes subsequent uploads report failure.
func (m *MemoryStore) FailUploads(fail bool) { m.failUploads.Store(fail) }

// FailDeletes makes subsequent deletes report failure.
func (m *MemoryStore) FailDeletes(fail bool) { m.failDeletes.Store(fail) }

// Has reports whether key is stored.
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ ObjectStore = (*MemoryStore)(nil)
