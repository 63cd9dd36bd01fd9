package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelterhub/pkg/platform/sentinel"
)

// PostgresStore reads company accounts from the companies table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Identity, error) {
	return s.findOne(ctx, `SELECT id, email, name, hashed_pw FROM companies WHERE id::text = $1`, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return s.findOne(ctx, `SELECT id, email, name, hashed_pw FROM companies WHERE lower(email) = lower($1)`, email)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg string) (*Identity, error) {
	var ident Identity
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&ident.ID, &ident.Email, &ident.DisplayName, &ident.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	return &ident, nil
}

// Upsert inserts or updates a company. Used to seed accounts from configuration.
func (s *PostgresStore) Upsert(ctx context.Context, ident Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, email, hashed_pw)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			hashed_pw = EXCLUDED.hashed_pw
	`, ident.ID, ident.DisplayName, ident.Email, ident.PasswordHash)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}
