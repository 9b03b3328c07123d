// Package notes stores free-form field notes taken during plant visits.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMissingFields rejects notes without the required date, windfarm, topic,
// comment, and type fields.
var ErrMissingFields = errors.New("note requires date, windfarm, topic, comment, and type")

// Note is a single field note. Company is optional; ID and CreatedAt are
// assigned by the store.
type Note struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Windfarm  string    `json:"windfarm"`
	Topic     string    `json:"topic"`
	Comment   string    `json:"comment"`
	Type      string    `json:"type"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// fileDocument mirrors the registry file layout: one top-level object with
// the entries plus write metadata.
type fileDocument struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     []Note    `json:"notes"`
}

// FileStore is a JSON-file notes backend with the same serialization
// discipline as the registry: a store mutex plus temp-file-and-rename saves.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a file-backed notes store at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Save validates and appends a note, returning the stored record with its
// assigned id.
func (s *FileStore) Save(_ context.Context, n Note) (*Note, error) {
	n.Date = strings.TrimSpace(n.Date)
	n.Windfarm = strings.TrimSpace(n.Windfarm)
	n.Topic = strings.TrimSpace(n.Topic)
	n.Comment = strings.TrimSpace(n.Comment)
	n.Type = strings.TrimSpace(n.Type)
	n.Company = strings.TrimSpace(n.Company)
	if n.Date == "" || n.Windfarm == "" || n.Topic == "" || n.Comment == "" || n.Type == "" {
		return nil, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	n.ID = uuid.NewString()
	n.CreatedAt = now
	doc.Notes = append(doc.Notes, n)
	doc.Version++
	doc.UpdatedAt = now

	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns all notes, optionally filtered by windfarm (case-insensitive,
// empty matches everything).
func (s *FileStore) List(_ context.Context, windfarm string) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(windfarm))
	if needle == "" {
		return doc.Notes, nil
	}
	var out []Note
	for _, n := range doc.Notes {
		if strings.ToLower(n.Windfarm) == needle {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *FileStore) load() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileDocument{}, nil
		}
		return nil, fmt.Errorf("failed to read notes file %s: %w", s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse notes file %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create notes folder %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".notes-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp notes file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write notes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp notes file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace notes file: %w", err)
	}
	return nil
}
