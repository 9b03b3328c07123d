// Package templates resolves named DOCX templates from a configured folder.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the file extension recognized as a document template.
const Extension = ".docx"

// NotFoundError reports that neither the requested template nor the default
// fallback could be read.
type NotFoundError struct {
	Requested string
	Fallback  string
	Cause     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template not found: tried %s and fallback %s", e.Requested, e.Fallback)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// Store reads templates from a folder. Every load re-reads from disk so
// template edits take effect without a restart; there is no caching.
type Store struct {
	dir         string
	defaultName string
}

// NewStore creates a template store over dir with the given default template
// name used as a fallback.
func NewStore(dir, defaultName string) *Store {
	return &Store{dir: dir, defaultName: defaultName}
}

// DefaultName returns the configured fallback template name.
func (s *Store) DefaultName() string {
	return s.defaultName
}

// Dir returns the template folder.
func (s *Store) Dir() string {
	return s.dir
}

// LoadTemplate reads the named template, falling back to the default template
// when the requested one is absent. It returns the template bytes and the
// path that was actually read.
func (s *Store) LoadTemplate(name string) ([]byte, string, error) {
	if name == "" {
		name = s.defaultName
	}

	requested := filepath.Join(s.dir, name)
	data, err := os.ReadFile(requested)
	if err == nil {
		return data, requested, nil
	}

	fallback := filepath.Join(s.dir, s.defaultName)
	data, fbErr := os.ReadFile(fallback)
	if fbErr == nil {
		return data, fallback, nil
	}

	return nil, "", &NotFoundError{
		Requested: requested,
		Fallback:  fallback,
		Cause:     fbErr,
	}
}

// ListTemplates lists the template files in the folder. An unreadable folder
// yields an empty list, not an error.
func (s *Store) ListTemplates() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), Extension) {
			names = append(names, entry.Name())
		}
	}
	return names
}
