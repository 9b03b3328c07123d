// Package archive maintains the per-plant annual PDF archives that accumulate
// every generated PDP document.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MergeError represents a failed annual archive update.
type MergeError struct {
	Archive string
	Message string
	Cause   error
}

func (e *MergeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("annual merge error for %s: %s: %v", e.Archive, e.Message, e.Cause)
	}
	return fmt.Sprintf("annual merge error for %s: %s", e.Archive, e.Message)
}

func (e *MergeError) Unwrap() error {
	return e.Cause
}

// Merger appends generated PDFs onto per-plant annual archives. Same-plant
// merges are serialized with a per-key mutex and archives are replaced via
// temp-file-then-rename, so a crash mid-merge leaves the previous archive
// intact.
type Merger struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMerger creates a merger that keeps annual archives under dir.
func NewMerger(dir string) *Merger {
	return &Merger{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// ArchivePath returns the annual archive path for a plant key without
// touching the filesystem.
func (m *Merger) ArchivePath(plantKey string) string {
	return filepath.Join(m.dir, SanitizeKey(plantKey)+".pdf")
}

// MergeIntoAnnual appends the pages of the PDF at newPdfPath onto the annual
// archive for plantKey, creating the archive from the new PDF on first use.
// It returns the archive path.
func (m *Merger) MergeIntoAnnual(newPdfPath, plantKey string) (string, error) {
	key := SanitizeKey(plantKey)
	if key == "" {
		return "", &MergeError{Archive: plantKey, Message: "plant key is empty after sanitizing"}
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", &MergeError{Archive: key, Message: "failed to create annual folder", Cause: err}
	}

	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	archivePath := filepath.Join(m.dir, key+".pdf")

	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		// First document of the year: the archive is a byte copy of the
		// source PDF.
		if err := copyFileAtomic(newPdfPath, archivePath); err != nil {
			return "", &MergeError{Archive: archivePath, Message: "failed to create archive", Cause: err}
		}
		return archivePath, nil
	}

	tmpPath := archivePath + ".merging"
	defer func() { _ = os.Remove(tmpPath) }()

	if err := copyFile(archivePath, tmpPath); err != nil {
		return "", &MergeError{Archive: archivePath, Message: "failed to stage archive copy", Cause: err}
	}
	if err := api.MergeAppendFile([]string{newPdfPath}, tmpPath, false, nil); err != nil {
		return "", &MergeError{Archive: archivePath, Message: "failed to append pages", Cause: err}
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return "", &MergeError{Archive: archivePath, Message: "failed to replace archive", Cause: err}
	}

	return archivePath, nil
}

// PageCount returns the number of pages in a PDF file.
func (m *Merger) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, &MergeError{Archive: path, Message: "failed to count pages", Cause: err}
	}
	return count, nil
}

func (m *Merger) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyFileAtomic(src, dst string) error {
	tmp := dst + ".tmp"
	if err := copyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
