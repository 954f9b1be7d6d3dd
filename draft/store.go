// Package draft provides the persistence backends for wizard drafts.
// Both stores are last-write-wins; there is no locking against a second
// writer on the same key.
package draft

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/wanderly/guide-apply/model"
)

// FileStore keeps one draft as a JSON file. This is the durable backend
// the wizard host wires in; the file plays the role a browser's local
// storage key would.
type FileStore struct {
	path string
}

func NewFileStore(dir, key string) *FileStore {
	return &FileStore{path: filepath.Join(dir, key+".json")}
}

func (s *FileStore) Load() (*model.FormDraft, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read draft")
	}

	var draft model.FormDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, errors.Wrap(err, "decode draft")
	}
	return &draft, nil
}

func (s *FileStore) Save(draft model.FormDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "draft dir")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrap(err, "write draft")
	}
	return nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove draft")
	}
	return nil
}

// MemoryStore is the in-process backend used by tests and previews.
type MemoryStore struct {
	mu    sync.Mutex
	draft *model.FormDraft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*model.FormDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil, nil
	}
	copied := *s.draft
	return &copied, nil
}

func (s *MemoryStore) Save(draft model.FormDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = &draft
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
	return nil
}
