// Package registry persists technician records extracted from generated PDP
// documents and answers queries about them.
package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marco/pdp-generator/internal/types"
)

// DefaultExpiryWindowDays is the lookahead used by FindExpiring when the
// caller does not specify one.
const DefaultExpiryWindowDays = 30

// ErrMissingName rejects technicians without both name parts; the
// (first_name, last_name) pair is the record identity.
var ErrMissingName = errors.New("technician requires both first_name and last_name")

// Technician is a registry entry: the worker fields plus bookkeeping.
// CreatedAt is set once and preserved across updates; UpdatedAt is refreshed
// on every write.
type Technician struct {
	ID             string                `json:"id"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	Phone          string                `json:"phone,omitempty"`
	Email          string                `json:"email,omitempty"`
	Company        string                `json:"company,omitempty"`
	Certifications []types.Certification `json:"certifications"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Metadata       map[string]any        `json:"metadata,omitempty"`
}

// ExpiringCertification pairs a technician with one of their certifications
// that expires inside the queried window.
type ExpiringCertification struct {
	TechnicianID  string              `json:"technician_id"`
	Technician    string              `json:"technician"`
	Certification types.Certification `json:"certification"`
	ExpiresAt     time.Time           `json:"expires_at"`
	DaysLeft      int                 `json:"days_left"`
}

// Store is the persistence interface for technician records. At most one
// entry exists per case-insensitive (first_name, last_name) pair.
type Store interface {
	// Upsert inserts or updates the entry identified by the technician's
	// name pair and returns the stored record.
	Upsert(ctx context.Context, t Technician) (*Technician, error)
	// List returns all entries.
	List(ctx context.Context) ([]Technician, error)
	// FindByName returns the entry for a case-insensitive name pair, or nil.
	FindByName(ctx context.Context, firstName, lastName string) (*Technician, error)
	// FindByEmail returns the entry with a case-insensitive email match, or nil.
	FindByEmail(ctx context.Context, email string) (*Technician, error)
	// FindExpiring returns certifications expiring within days of today,
	// inclusive. Already-expired certifications are excluded.
	FindExpiring(ctx context.Context, days int) ([]ExpiringCertification, error)
	// Close releases any resources held by the store.
	Close() error
}

// SlugID derives the registry id from a name pair: "mario rossi" -> "mario_rossi".
func SlugID(firstName, lastName string) string {
	slug := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		var sb strings.Builder
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				sb.WriteRune(r)
			case r == ' ' || r == '-' || r == '\'':
				sb.WriteRune('_')
			}
		}
		return sb.String()
	}
	return slug(firstName) + "_" + slug(lastName)
}

// nameKey is the case-normalized identity of a technician.
func nameKey(firstName, lastName string) string {
	return strings.ToLower(strings.TrimSpace(firstName)) + "\x00" + strings.ToLower(strings.TrimSpace(lastName))
}

// normalize trims the name pair, defaults certification types to "Other",
// and derives the id. It reports ErrMissingName for identity-less records.
func normalize(t *Technician) error {
	t.FirstName = strings.TrimSpace(t.FirstName)
	t.LastName = strings.TrimSpace(t.LastName)
	if t.FirstName == "" || t.LastName == "" {
		return ErrMissingName
	}

	t.ID = SlugID(t.FirstName, t.LastName)
	for i := range t.Certifications {
		if strings.TrimSpace(t.Certifications[i].Type) == "" {
			t.Certifications[i].Type = "Other"
		}
	}
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	return nil
}

// mergeCertifications appends the incoming certifications that are not
// already present. A certification is a duplicate when both its type and
// name match an existing entry; existing entries are never removed.
func mergeCertifications(existing, incoming []types.Certification) []types.Certification {
	seen := make(map[string]bool, len(existing))
	key := func(c types.Certification) string {
		return strings.TrimSpace(c.Type) + "\x00" + strings.TrimSpace(c.Name)
	}
	for _, c := range existing {
		seen[key(c)] = true
	}

	merged := existing
	for _, c := range incoming {
		if !seen[key(c)] {
			seen[key(c)] = true
			merged = append(merged, c)
		}
	}
	return merged
}

// expiryLayouts are the date formats accepted for certification expiry dates.
var expiryLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	time.RFC3339,
}

// parseExpiry parses a free-text expiry date. Unparseable dates are skipped
// by callers rather than treated as errors.
func parseExpiry(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expiryLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// expiringFrom scans technicians for certifications expiring within days of
// now, inclusive of today. Certifications that already expired are excluded.
func expiringFrom(technicians []Technician, days int, now time.Time) []ExpiringCertification {
	if days <= 0 {
		days = DefaultExpiryWindowDays
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, days)

	var out []ExpiringCertification
	for _, t := range technicians {
		for _, c := range t.Certifications {
			expiry, ok := parseExpiry(c.ExpiryDate)
			if !ok {
				continue
			}
			expiry = time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
			if expiry.Before(today) || expiry.After(cutoff) {
				continue
			}
			out = append(out, ExpiringCertification{
				TechnicianID:  t.ID,
				Technician:    t.FirstName + " " + t.LastName,
				Certification: c,
				ExpiresAt:     expiry,
				DaysLeft:      int(expiry.Sub(today).Hours() / 24),
			})
		}
	}
	return out
}
