package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// FileStore keeps each family as a JSON file in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// fileRecord is the on-disk layout. The document is kept as a string so
// encoding never reformats it and Get returns the saved bytes.
type fileRecord struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"`
	Image     string    `json:"image,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileStore creates a file store rooted at baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "store directory cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "create store dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := errors.ValidateRecordID("family", id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFamilyNotFound, "family %s not found", id)
		}
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read family %s", id)
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "parse family file %s", id)
	}
	return &Record{ID: id, Data: []byte(fr.Data), Image: fr.Image, UpdatedAt: fr.UpdatedAt}, nil
}

func (s *FileStore) Save(ctx context.Context, r *Record) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "record cannot be nil")
	}
	if err := errors.ValidateRecordID("family", r.ID); err != nil {
		return err
	}
	if !json.Valid(r.Data) {
		return errors.New(errors.ErrCodeMalformedDocument, "family %s data is not valid JSON", r.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(fileRecord{
		ID:        r.ID,
		Data:      string(r.Data),
		Image:     r.Image,
		UpdatedAt: r.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal family %s", r.ID)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".family-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "write family %s", r.ID)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "write family %s", r.ID)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "write family %s", r.ID)
	}
	if err := os.Rename(tmp.Name(), s.recordPath(r.ID)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "write family %s", r.ID)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateRecordID("family", id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "remove family %s", id)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read store dir")
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the family files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
