// Package rendering binds flat placeholder data into DOCX document templates.
package rendering

import (
	"fmt"
	"strings"
)

// TemplateError represents an error opening or parsing a document template.
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// PlaceholderError is a single failed placeholder substitution.
type PlaceholderError struct {
	Key     string
	Message string
}

// RenderError aggregates the placeholder substitutions that failed while
// binding data into a template.
type RenderError struct {
	Message      string
	Placeholders []PlaceholderError
	Cause        error
}

func (e *RenderError) Error() string {
	if len(e.Placeholders) > 0 {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("render error: %s:\n", e.Message))
		for i, p := range e.Placeholders {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, p.Key, p.Message))
		}
		return strings.TrimSuffix(sb.String(), "\n")
	}
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
