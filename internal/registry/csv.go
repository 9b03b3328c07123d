package registry

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// csvHeader is the fixed 8-column export layout.
var csvHeader = []string{
	"id", "first_name", "last_name", "phone", "email",
	"certification_count", "created_at", "updated_at",
}

// ExportCSV renders the whole registry as CSV. Every field is double-quoted
// and embedded quotes are doubled.
func ExportCSV(ctx context.Context, store Store) (string, error) {
	technicians, err := store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list technicians for export: %w", err)
	}

	var sb strings.Builder
	writeRow(&sb, csvHeader)
	for _, t := range technicians {
		writeRow(&sb, []string{
			t.ID,
			t.FirstName,
			t.LastName,
			t.Phone,
			t.Email,
			fmt.Sprintf("%d", len(t.Certifications)),
			formatTimestamp(t.CreatedAt),
			formatTimestamp(t.UpdatedAt),
		})
	}
	return sb.String(), nil
}

func writeRow(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
