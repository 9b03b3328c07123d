package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunListTemplates(t *testing.T) {
	// Keep ambient credentials out of the wiring.
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RAG_BASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")

	templatesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "default.docx"), []byte("stub"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "monte_verde.docx"), []byte("stub"), 0644))

	cfg, err := json.Marshal(map[string]string{"templates_dir": templatesDir})
	require.NoError(t, err)
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, cfg, 0644))

	prev := listTemplatesConfigPath
	listTemplatesConfigPath = cfgPath
	t.Cleanup(func() { listTemplatesConfigPath = prev })

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w

	listTemplatesCmd.SetContext(context.Background())
	runErr := runListTemplates(listTemplatesCmd, nil)

	os.Stdout = stdout
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	require.NoError(t, runErr)
	assert.Contains(t, string(out), "default.docx")
	assert.Contains(t, string(out), "monte_verde.docx")
}
