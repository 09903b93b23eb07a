// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore reads and writes sermon manuscripts as whole files
// under a base directory. Documents are identified by their slash path
// relative to the root; there is no partial-write state.
package docstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is a whole-file document store rooted at a directory.
type Store struct {
	root string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// Read returns a document's full text.
func (s *Store) Read(id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(id)))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", id, err)
	}
	return string(data), nil
}

// Write replaces a document's full text, overwriting the source.
// Callers needing safety snapshot before calling.
func (s *Store) Write(id, text string) error {
	path := filepath.Join(s.root, filepath.FromSlash(id))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", id, err)
	}
	return nil
}

// List returns the sorted ids of all markdown documents under the root,
// recursing into subdirectories and skipping dot-directories.
func (s *Store) List() ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.root, err)
	}
	sort.Strings(ids)
	return ids, nil
}
