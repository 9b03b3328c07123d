package transform

import (
	"fmt"
	"strings"
)

// technicianFields are the per-slot placeholder suffixes emitted by Flatten.
var technicianFields = []string{"name", "surname", "phone", "email", "company", "certifications"}

// identityKeys are the fields that mark a worker-shaped map as identifiable.
var identityKeys = []string{"first_name", "last_name", "name", "surname"}

// Clean normalizes a flat-ish placeholder map so the template renderer never
// sees nil leaves or fully-empty technician blocks:
//
//   - array-valued properties lose elements that are empty scalars, empty
//     maps, or worker-shaped maps with no identifying field
//   - nil top-level scalars become ""
//   - technician{i}_* groups are removed when both name and surname are empty
//
// The input map is not modified; a cleaned copy is returned.
func Clean(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case nil:
			out[key] = ""
		case []any:
			out[key] = cleanSlice(v)
		default:
			out[key] = value
		}
	}

	for i := 1; i <= MaxTechnicians; i++ {
		slot := fmt.Sprintf("technician%d", i)
		if emptyValue(out[slot+"_name"]) && emptyValue(out[slot+"_surname"]) {
			for _, field := range technicianFields {
				delete(out, slot+"_"+field)
			}
		}
	}

	return out
}

// cleanSlice drops empty elements and identity-less worker rows.
func cleanSlice(items []any) []any {
	kept := make([]any, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				kept = append(kept, v)
			}
		case map[string]any:
			if len(v) == 0 {
				continue
			}
			if workerShaped(v) && !hasIdentity(v) {
				continue
			}
			kept = append(kept, v)
		default:
			kept = append(kept, item)
		}
	}
	return kept
}

// workerShaped reports whether a map carries any worker identity key at all,
// which marks it as a worker/technician row rather than arbitrary data.
func workerShaped(m map[string]any) bool {
	for _, key := range identityKeys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	// Rows that look like people but carry only contact fields still count.
	_, hasPhone := m["phone"]
	_, hasEmail := m["email"]
	_, hasCerts := m["certifications"]
	return hasPhone || hasEmail || hasCerts
}

// hasIdentity reports whether any identity key holds a non-empty value.
func hasIdentity(m map[string]any) bool {
	for _, key := range identityKeys {
		if !emptyValue(m[key]) {
			return true
		}
	}
	return false
}

func emptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
