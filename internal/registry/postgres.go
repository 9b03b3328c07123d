package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the relational registry backend. Upserts run inside a
// transaction with a row lock on the name pair, so concurrent writers cannot
// lose each other's certification merges.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// ConnectPostgres establishes a connection pool, verifies it, and ensures
// the technicians table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool, now: time.Now}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS technicians (
			id             TEXT PRIMARY KEY,
			first_name     TEXT NOT NULL,
			last_name      TEXT NOT NULL,
			phone          TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			company        TEXT NOT NULL DEFAULT '',
			certifications JSONB NOT NULL DEFAULT '[]',
			metadata       JSONB NOT NULL DEFAULT '{}',
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure technicians table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS technicians_name_key
		ON technicians (lower(first_name), lower(last_name))`)
	if err != nil {
		return fmt.Errorf("failed to ensure technicians name index: %w", err)
	}
	return nil
}

// Upsert implements Store.
func (s *PostgresStore) Upsert(ctx context.Context, t Technician) (*Technician, error) {
	if err := normalize(&t); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := scanTechnician(tx.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, email, company,
		       certifications, metadata, created_at, updated_at
		FROM technicians
		WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2)
		FOR UPDATE`,
		t.FirstName, t.LastName))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if existing != nil {
		t.CreatedAt = existing.CreatedAt
		t.UpdatedAt = now
		t.Certifications = mergeCertifications(existing.Certifications, t.Certifications)

		certs, metadata, err := marshalBags(&t)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			UPDATE technicians
			SET id = $1, first_name = $2, last_name = $3, phone = $4, email = $5,
			    company = $6, certifications = $7, metadata = $8, updated_at = $9
			WHERE lower(first_name) = lower($2) AND lower(last_name) = lower($3)`,
			t.ID, t.FirstName, t.LastName, t.Phone, t.Email, t.Company, certs, metadata, now)
		if err != nil {
			return nil, fmt.Errorf("failed to update technician %s: %w", t.ID, err)
		}
	} else {
		t.CreatedAt = now
		t.UpdatedAt = now

		certs, metadata, err := marshalBags(&t)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO technicians
				(id, first_name, last_name, phone, email, company,
				 certifications, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, t.FirstName, t.LastName, t.Phone, t.Email, t.Company, certs, metadata, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert technician %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return &t, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]Technician, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, first_name, last_name, phone, email, company,
		       certifications, metadata, created_at, updated_at
		FROM technicians
		ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list technicians: %w", err)
	}
	defer rows.Close()

	var technicians []Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		technicians = append(technicians, *t)
	}
	return technicians, rows.Err()
}

// FindByName implements Store.
func (s *PostgresStore) FindByName(ctx context.Context, firstName, lastName string) (*Technician, error) {
	return scanTechnician(s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, email, company,
		       certifications, metadata, created_at, updated_at
		FROM technicians
		WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2)`,
		strings.TrimSpace(firstName), strings.TrimSpace(lastName)))
}

// FindByEmail implements Store.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Technician, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	return scanTechnician(s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, email, company,
		       certifications, metadata, created_at, updated_at
		FROM technicians
		WHERE lower(email) = lower($1)`,
		email))
}

// FindExpiring implements Store. Expiry dates are free text, so the window
// scan happens in Go over the full list rather than in SQL.
func (s *PostgresStore) FindExpiring(ctx context.Context, days int) ([]ExpiringCertification, error) {
	technicians, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return expiringFrom(technicians, days, s.now()), nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func marshalBags(t *Technician) ([]byte, []byte, error) {
	certs, err := json.Marshal(t.Certifications)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal certifications: %w", err)
	}
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return certs, metadata, nil
}

func scanTechnician(row pgx.Row) (*Technician, error) {
	var t Technician
	var certs, metadata []byte
	err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Phone, &t.Email, &t.Company,
		&certs, &metadata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan technician: %w", err)
	}
	if err := json.Unmarshal(certs, &t.Certifications); err != nil {
		return nil, fmt.Errorf("failed to parse certifications for %s: %w", t.ID, err)
	}
	if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", t.ID, err)
	}
	return &t, nil
}
