package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JSONFile reads and overwrites a single JSON document on disk.
//
// Write truncates the file in place, so a crash mid-write can leave a partial
// document behind.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) (*JSONFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("json file path cannot be empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve json file path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}

	return &JSONFile{path: abs}, nil
}

func (f *JSONFile) Path() string {
	return f.path
}

// IsEmpty reports whether the file is missing or holds only whitespace.
func (f *JSONFile) IsEmpty() (bool, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %q: %w", f.path, err)
	}

	return len(bytes.TrimSpace(data)) == 0, nil
}

// Read decodes the document into target. A missing or blank file leaves target untouched.
func (f *JSONFile) Read(target any) error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %q: %w", f.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %q: %w", f.path, err)
	}

	return nil
}

func (f *JSONFile) Write(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %q: %w", f.path, err)
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", f.path, err)
	}

	return nil
}
