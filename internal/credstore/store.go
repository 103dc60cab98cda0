// Package credstore holds the account registry: passwords, profiles, roles,
// page permissions and active flags, persisted as a single YAML document.
//
// The document is loaded once at start. Every mutation goes through Update,
// which serializes writers, persists the whole document atomically and only
// then publishes the change in memory.
package credstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/pagegate/internal/fsutil"
)

var (
	ErrStoreLoad   = errors.New("credential store load failed")
	ErrStoreSave   = errors.New("credential store save failed")
	ErrStoreExists = errors.New("credential store already exists")
	ErrUnknownUser = errors.New("unknown user")
)

const fileMode os.FileMode = 0o600

type Store struct {
	mu   sync.RWMutex // guards doc
	wmu  sync.Mutex   // serializes load-modify-save
	path string
	doc  Document
}

// Load reads the document at path. A missing or malformed file is an error;
// there is no empty fallback.
func Load(path string) (*Store, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreLoad, err)
	}
	doc, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreLoad, path, err)
	}
	return &Store{path: path, doc: doc}, nil
}

// Create writes doc to a new file at path and returns a store over it.
func Create(path string, doc Document) (*Store, error) {
	if fsutil.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrStoreExists, path)
	}
	doc.Normalize()
	s := &Store{path: path, doc: doc.Clone()}
	if err := s.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// View runs fn against the live document under the read lock. fn must not
// retain or modify d.
func (s *Store) View(fn func(d *Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.doc)
}

// Save writes the full in-memory document back to disk.
func (s *Store) Save() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	doc := s.Snapshot()
	return s.write(&doc)
}

// Update applies fn to a copy of the document and persists the copy. The
// in-memory document changes only if fn succeeds and the write succeeds.
func (s *Store) Update(fn func(d *Document) error) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	next := s.Snapshot()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.write(&next); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()
	return nil
}

func (s *Store) write(doc *Document) error {
	b, err := encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreSave, err)
	}
	if err := fsutil.WriteFileAtomic(s.path, b, fileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreSave, err)
	}
	return nil
}

func decode(b []byte) (Document, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Document{}, errors.New("empty document")
	}
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Document{}, err
	}
	if doc.Passwords == nil {
		return Document{}, errors.New("missing passwords section")
	}
	doc.Normalize()
	return doc, nil
}

func encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
