// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/engine"
)

// GenericError is the error code written for a failed run.
const GenericError = "TRACE_ERROR_GENERIC"

// Document is the layout of the result file. A successful run fills Result
// with one entry; a failed run fills Error and ErrorDescription instead.
type Document struct {
	Result           []engine.Result `json:"result,omitempty"`
	Error            []string        `json:"error,omitempty"`
	ErrorDescription []string        `json:"error_description,omitempty"`
}

// DocumentFor builds the document describing res.
func DocumentFor(res engine.Result) Document {
	if res.Error != "" {
		return Document{
			Error:            []string{GenericError},
			ErrorDescription: []string{res.Error},
		}
	}
	return Document{Result: []engine.Result{res}}
}

// FileStore writes each result to a single file, replacing what was there.
// The file is written to a temporary name and renamed into place, so a
// reader never sees a partial document.
type FileStore struct {
	path string

	mu     sync.Mutex
	closed bool
}

// NewFileStore returns a store writing to path. An empty path selects
// engine.DefaultResultFile.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = engine.DefaultResultFile
	}
	return &FileStore{path: path}
}

// Path returns the file the store writes.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the document for res.
func (s *FileStore) Save(_ context.Context, res engine.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	data, err := json.MarshalIndent(DocumentFor(res), "", "  ")
	if err != nil {
		return fmt.Errorf("results: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("results: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".result-*")
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("results: write %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("results: sync %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("results: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("results: %w", err)
	}

	retrace.Logger().Info("results: written", "path", s.path, "session", res.SessionID)
	return nil
}

// Close marks the store closed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// ReadFile decodes a result file.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("results: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("results: decode %s: %w", path, err)
	}
	return doc, nil
}
