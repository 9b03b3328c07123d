package rendering

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	docx "github.com/lukasjarosch/go-docx"
)

// Render opens a DOCX template archive, binds the flat data map to its
// placeholders, and serializes the filled document in memory.
//
// Map keys missing from the document are ignored; document placeholders
// missing from the map are left untouched (the cleaner guarantees complete
// technician/company groups, so a well-formed template is always covered).
// Substitution failures are collected per placeholder and surfaced as one
// aggregated RenderError.
func Render(templateBytes []byte, data map[string]any) ([]byte, error) {
	if len(templateBytes) == 0 {
		return nil, &TemplateError{Message: "template is empty"}
	}

	doc, err := docx.OpenBytes(templateBytes)
	if err != nil {
		return nil, &TemplateError{Message: "failed to open template archive", Cause: err}
	}

	// Deterministic substitution order keeps aggregated errors stable.
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var failed []PlaceholderError
	for _, key := range keys {
		if err := doc.Replace(key, stringify(data[key])); err != nil {
			if errors.Is(err, docx.ErrPlaceholderNotFound) {
				continue
			}
			failed = append(failed, PlaceholderError{Key: key, Message: err.Error()})
		}
	}
	if len(failed) > 0 {
		return nil, &RenderError{
			Message:      fmt.Sprintf("%d placeholder substitutions failed", len(failed)),
			Placeholders: failed,
		}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, &RenderError{Message: "failed to serialize document", Cause: err}
	}

	return buf.Bytes(), nil
}

// stringify converts a placeholder value to its rendered text. Nil renders
// as an empty string rather than a literal "<nil>".
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
