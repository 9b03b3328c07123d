package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOfficeScript mimics the office suite CLI: answers --version and writes
// a fake PDF next to the requested outdir.
const fakeOfficeScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "FakeOffice 1.0"
  exit 0
fi
out=""
prev=""
doc=""
for a in "$@"; do
  if [ "$prev" = "--outdir" ]; then out="$a"; fi
  prev="$a"
  doc="$a"
done
base=$(basename "$doc")
name="${base%.*}"
printf '%%PDF-fake' > "$out/$name.pdf"
`

// brokenOfficeScript answers --version but produces no output on conversion.
const brokenOfficeScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "FakeOffice 1.0"
  exit 0
fi
echo "conversion exploded" >&2
exit 1
`

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-soffice")
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

func TestNewConverter_MissingBinary(t *testing.T) {
	_, err := NewConverter(filepath.Join(t.TempDir(), "no-such-binary"), time.Second)
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, convErr.Message, "not found")
}

func TestNewConverter_ProbesVersion(t *testing.T) {
	binary := writeScript(t, fakeOfficeScript)

	conv, err := NewConverter(binary, time.Second)
	require.NoError(t, err)
	assert.Equal(t, binary, conv.Binary())
}

func TestConvertToPDF_Succeeds(t *testing.T) {
	binary := writeScript(t, fakeOfficeScript)
	conv, err := NewConverter(binary, 10*time.Second)
	require.NoError(t, err)

	docPath := filepath.Join(t.TempDir(), "plan.docx")
	require.NoError(t, os.WriteFile(docPath, []byte("doc"), 0644))

	pdfPath, err := conv.ConvertToPDF(context.Background(), docPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Cleanup(pdfPath) })

	assert.Equal(t, "plan.pdf", filepath.Base(pdfPath))
	content, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "%PDF")
}

func TestConvertToPDF_MissingDocument(t *testing.T) {
	binary := writeScript(t, fakeOfficeScript)
	conv, err := NewConverter(binary, time.Second)
	require.NoError(t, err)

	_, err = conv.ConvertToPDF(context.Background(), filepath.Join(t.TempDir(), "missing.docx"))
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, convErr.Message, "document not found")
}

func TestConvertToPDF_NoOutputProduced(t *testing.T) {
	binary := writeScript(t, brokenOfficeScript)
	conv, err := NewConverter(binary, time.Second)
	require.NoError(t, err)

	docPath := filepath.Join(t.TempDir(), "plan.docx")
	require.NoError(t, os.WriteFile(docPath, []byte("doc"), 0644))

	_, err = conv.ConvertToPDF(context.Background(), docPath)
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, convErr.Message, "produced no output")
	assert.Contains(t, convErr.LogOutput, "conversion exploded")
}
