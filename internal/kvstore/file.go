package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the document the File store keeps under its directory.
const FileName = "cache.json"

// errCorrupt marks a document that exists but is not valid JSON.
var errCorrupt = errors.New("kvstore: corrupt document")

// File is a Store backed by one JSON document on disk. Every write
// rewrites the document through a temp file and rename, so a crash leaves
// either the old or the new content.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a File store under dir, creating the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: creating directory: %w", err)
	}
	return &File{path: filepath.Join(dir, FileName)}, nil
}

// Path returns the document path.
func (f *File) Path() string { return f.path }

// Get returns the value stored under key.
func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set stores value under key. A corrupt document is replaced by one
// holding only this key.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.load()
	if errors.Is(err, errCorrupt) {
		data, err = make(map[string]string), nil
	}
	if err != nil {
		return err
	}
	data[key] = value
	return f.save(data)
}

// Delete removes key.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.save(data)
}

func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: reading %s: %w", f.path, err)
	}
	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", errCorrupt, f.path, err)
	}
	return data, nil
}

func (f *File) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("kvstore: marshaling: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("kvstore: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("kvstore: replacing %s: %w", f.path, err)
	}
	return nil
}
