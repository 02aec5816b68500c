package split

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoSnapshot reports an extraction attempted before a snapshot was
// attached.
var ErrNoSnapshot = errors.New("no snapshot attached")

// Spool holds the pending receipt snapshot between the capture step and
// extraction. It is a single slot: attaching a new snapshot replaces the
// previous one, and extraction or reset clears it.
type Spool interface {
	// Put stores the pending snapshot, replacing any previous one.
	Put(data []byte, contentType string) error

	// Get retrieves the pending snapshot.
	Get() ([]byte, string, error)

	// Clear discards the pending snapshot, if any.
	Clear() error
}

// LocalSpool implements Spool on the local filesystem, keeping large phone
// photos out of process memory while they wait for extraction.
type LocalSpool struct {
	mu          sync.Mutex
	path        string
	contentType string
	present     bool
}

// NewLocalSpool creates a LocalSpool rooted at basePath.
func NewLocalSpool(basePath string) (*LocalSpool, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	return &LocalSpool{path: filepath.Join(basePath, "snapshot.bin")}, nil
}

// Put stores the pending snapshot, replacing any previous one.
func (l *LocalSpool) Put(data []byte, contentType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	l.contentType = contentType
	l.present = true
	return nil
}

// Get retrieves the pending snapshot.
func (l *LocalSpool) Get() ([]byte, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.present {
		return nil, "", ErrNoSnapshot
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, "", fmt.Errorf("reading snapshot: %w", err)
	}
	return data, l.contentType, nil
}

// Clear discards the pending snapshot.
func (l *LocalSpool) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.present {
		return nil
	}
	l.present = false
	l.contentType = ""
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}

// MemorySpool implements Spool in memory, for tests and single-shot use.
type MemorySpool struct {
	mu          sync.Mutex
	data        []byte
	contentType string
	present     bool
}

// NewMemorySpool creates an empty MemorySpool.
func NewMemorySpool() *MemorySpool {
	return &MemorySpool{}
}

// Put stores the pending snapshot, replacing any previous one.
func (m *MemorySpool) Put(data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.contentType = contentType
	m.present = true
	return nil
}

// Get retrieves the pending snapshot.
func (m *MemorySpool) Get() ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return nil, "", ErrNoSnapshot
	}
	return m.data, m.contentType, nil
}

// Clear discards the pending snapshot.
func (m *MemorySpool) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.contentType = ""
	m.present = false
	return nil
}
