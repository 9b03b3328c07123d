package archive

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a syntactically valid PDF with the given page count.
// Offsets in the xref table are computed while writing, so the result passes
// strict parsing.
func minimalPDF(pages int) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObj := func(s string) {
		offsets = append(offsets, b.Len())
		b.WriteString(s)
	}

	writeObj("1 0 obj\n<</Type /Catalog /Pages 2 0 R>>\nendobj\n")

	kids := make([]string, pages)
	for i := 0; i < pages; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj(fmt.Sprintf("2 0 obj\n<</Type /Pages /Kids [%s] /Count %d>>\nendobj\n",
		strings.Join(kids, " "), pages))

	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<</Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]>>\nendobj\n", i+3))
	}

	xrefPos := b.Len()
	total := len(offsets) + 1
	b.WriteString(fmt.Sprintf("xref\n0 %d\n", total))
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	b.WriteString(fmt.Sprintf("trailer\n<</Size %d /Root 1 0 R>>\nstartxref\n%d\n%%%%EOF\n", total, xrefPos))

	return b.Bytes()
}

func writePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, minimalPDF(pages), 0644))
	return path
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "monte_verde", SanitizeKey("Monte Verde"))
	assert.Equal(t, "plant-07", SanitizeKey("  Plant-07  "))
	assert.Equal(t, "la_spezia", SanitizeKey("La  Spezia!"))
	assert.Equal(t, "", SanitizeKey("***"))
	assert.Equal(t, "abc", SanitizeKey("abc_"))
}

func TestMergeIntoAnnual_FirstUseCopiesBytes(t *testing.T) {
	dir := t.TempDir()
	src := writePDF(t, t.TempDir(), "doc.pdf", 1)
	merger := NewMerger(dir)

	archivePath, err := merger.MergeIntoAnnual(src, "Monte Verde")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "monte_verde.pdf"), archivePath)

	srcBytes, err := os.ReadFile(src)
	require.NoError(t, err)
	archiveBytes, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, srcBytes, archiveBytes)
}

func TestMergeIntoAnnual_AppendsPagesInOrder(t *testing.T) {
	dir := t.TempDir()
	srcDir := t.TempDir()
	merger := NewMerger(dir)

	const n = 3
	for i := 0; i < n; i++ {
		src := writePDF(t, srcDir, fmt.Sprintf("doc%d.pdf", i), 1)
		_, err := merger.MergeIntoAnnual(src, "plant")
		require.NoError(t, err)
	}

	count, err := merger.PageCount(merger.ArchivePath("plant"))
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestMergeIntoAnnual_MultiPageAppend(t *testing.T) {
	dir := t.TempDir()
	srcDir := t.TempDir()
	merger := NewMerger(dir)

	first := writePDF(t, srcDir, "first.pdf", 2)
	second := writePDF(t, srcDir, "second.pdf", 3)

	_, err := merger.MergeIntoAnnual(first, "plant")
	require.NoError(t, err)
	archivePath, err := merger.MergeIntoAnnual(second, "plant")
	require.NoError(t, err)

	count, err := merger.PageCount(archivePath)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestMergeIntoAnnual_EmptyKey(t *testing.T) {
	merger := NewMerger(t.TempDir())

	_, err := merger.MergeIntoAnnual("whatever.pdf", "!!!")
	require.Error(t, err)

	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	assert.Contains(t, mergeErr.Message, "empty")
}

func TestMergeIntoAnnual_MissingSource(t *testing.T) {
	dir := t.TempDir()
	merger := NewMerger(dir)

	_, err := merger.MergeIntoAnnual(filepath.Join(dir, "missing.pdf"), "plant")
	require.Error(t, err)
}

func TestMergeIntoAnnual_FailedAppendLeavesArchiveIntact(t *testing.T) {
	dir := t.TempDir()
	srcDir := t.TempDir()
	merger := NewMerger(dir)

	src := writePDF(t, srcDir, "doc.pdf", 1)
	archivePath, err := merger.MergeIntoAnnual(src, "plant")
	require.NoError(t, err)
	before, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	garbage := filepath.Join(srcDir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf"), 0644))

	_, err = merger.MergeIntoAnnual(garbage, "plant")
	require.Error(t, err)

	after, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
