// Package convert turns rendered DOCX documents into PDFs by driving a
// headless office suite binary.
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBinary is the conversion binary used when none is configured.
	DefaultBinary = "soffice"
	// DefaultTimeout bounds a single conversion run.
	DefaultTimeout = 60 * time.Second
	// probeTimeout bounds the one-time --version check at construction.
	probeTimeout = 10 * time.Second
)

// ConversionError represents a failed conversion attempt, including any
// captured process output.
type ConversionError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *ConversionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conversion error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("conversion error: %s", e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Converter shells out to a configured office suite binary in headless mode.
// The binary is resolved and version-probed once at construction, not per
// call.
type Converter struct {
	binary  string
	timeout time.Duration
}

// NewConverter resolves the conversion binary and verifies it responds to
// --version. An empty binary falls back to DefaultBinary; a non-positive
// timeout falls back to DefaultTimeout.
func NewConverter(binary string, timeout time.Duration) (*Converter, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, &ConversionError{
			Message: fmt.Sprintf("conversion binary not found: %s", binary),
			Cause:   err,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, resolved, "--version").CombinedOutput()
	if err != nil {
		return nil, &ConversionError{
			Message:   fmt.Sprintf("conversion binary %s failed version probe", resolved),
			LogOutput: string(out),
			Cause:     err,
		}
	}

	return &Converter{binary: resolved, timeout: timeout}, nil
}

// Binary returns the resolved path of the conversion binary.
func (c *Converter) Binary() string {
	return c.binary
}

// ConvertToPDF converts the document at docPath into a PDF inside a fresh
// temp directory and returns the PDF path. It fails if the process errors or
// the expected output file is absent afterwards.
func (c *Converter) ConvertToPDF(ctx context.Context, docPath string) (string, error) {
	if _, err := os.Stat(docPath); err != nil {
		return "", &ConversionError{
			Message: fmt.Sprintf("document not found: %s", docPath),
			Cause:   err,
		}
	}

	outDir, err := os.MkdirTemp("", "pdp-convert-*")
	if err != nil {
		return "", &ConversionError{Message: "failed to create output directory", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, docPath)

	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()

	base := filepath.Base(docPath)
	pdfPath := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", &ConversionError{
			Message:   fmt.Sprintf("conversion produced no output for %s", base),
			LogOutput: output.String(),
			Cause:     runErr,
		}
	}

	// Some suite versions exit non-zero after writing a usable PDF; an
	// existing output file wins over the exit code.
	return pdfPath, nil
}

// Cleanup removes a conversion output directory created by ConvertToPDF.
func Cleanup(pdfPath string) error {
	dir := filepath.Dir(pdfPath)
	if strings.Contains(filepath.Base(dir), "pdp-convert-") {
		return os.RemoveAll(dir)
	}
	return nil
}
