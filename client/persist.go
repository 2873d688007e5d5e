package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FilePersister keeps the cart state as a JSON file
type FilePersister struct {
	Path string
}

// Load reads the state; a missing file is an empty state
func (p FilePersister) Load() (State, error) {
	var s State
	raw, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read cart: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("decode cart %s: %w", p.Path, err)
	}
	return s, nil
}

// Save writes the state to a temporary file and renames it into place.
func (p FilePersister) Save(s State) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write cart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return os.Rename(tmp.Name(), p.Path)
}

// MemoryPersister keeps the state in memory
type MemoryPersister struct {
	mu    sync.Mutex
	state State
	// Err, when set, fails every Save
	Err   error
	Saves int
}

// Load implements Persister
func (m *MemoryPersister) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone(), nil
}

// Save implements Persister
func (m *MemoryPersister) Save(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.state = s.clone()
	m.Saves++
	return nil
}
