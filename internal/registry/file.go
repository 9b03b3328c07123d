package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileDocument is the on-disk shape of the file-backed registry: a single
// top-level object holding the entries plus write metadata.
type fileDocument struct {
	Version     int          `json:"version"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Technicians []Technician `json:"technicians"`
}

// FileStore is a JSON-file registry backend. A store-level mutex serializes
// writers and every save goes through a temp file and rename, so concurrent
// upserts cannot interleave and a crash cannot truncate the file.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a file-backed registry at path. The file is created
// on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Upsert implements Store.
func (s *FileStore) Upsert(_ context.Context, t Technician) (*Technician, error) {
	if err := normalize(&t); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := nameKey(t.FirstName, t.LastName)
	replaced := false
	for i := range doc.Technicians {
		existing := &doc.Technicians[i]
		if nameKey(existing.FirstName, existing.LastName) != key {
			continue
		}
		t.CreatedAt = existing.CreatedAt
		t.UpdatedAt = now
		t.Certifications = mergeCertifications(existing.Certifications, t.Certifications)
		*existing = t
		replaced = true
		break
	}
	if !replaced {
		t.CreatedAt = now
		t.UpdatedAt = now
		doc.Technicians = append(doc.Technicians, t)
	}

	doc.Version++
	doc.UpdatedAt = now
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &t, nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]Technician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Technicians, nil
}

// FindByName implements Store.
func (s *FileStore) FindByName(ctx context.Context, firstName, lastName string) (*Technician, error) {
	technicians, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	key := nameKey(firstName, lastName)
	for i := range technicians {
		if nameKey(technicians[i].FirstName, technicians[i].LastName) == key {
			return &technicians[i], nil
		}
	}
	return nil, nil
}

// FindByEmail implements Store.
func (s *FileStore) FindByEmail(ctx context.Context, email string) (*Technician, error) {
	technicians, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return nil, nil
	}
	for i := range technicians {
		if strings.ToLower(technicians[i].Email) == needle {
			return &technicians[i], nil
		}
	}
	return nil, nil
}

// FindExpiring implements Store.
func (s *FileStore) FindExpiring(ctx context.Context, days int) ([]ExpiringCertification, error) {
	technicians, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return expiringFrom(technicians, days, s.now()), nil
}

// Close implements Store; the file store holds no resources.
func (s *FileStore) Close() error {
	return nil
}

// load reads the registry document; a missing file is an empty registry.
func (s *FileStore) load() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileDocument{}, nil
		}
		return nil, fmt.Errorf("failed to read registry file %s: %w", s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", s.path, err)
	}
	return &doc, nil
}

// save writes the document through a temp file and rename.
func (s *FileStore) save(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry folder %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp registry file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}
