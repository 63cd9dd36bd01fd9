package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"shelterhub/internal/photo/models"
	"shelterhub/pkg/platform/sentinel"
	"shelterhub/pkg/platform/tx"
)

// PostgresStore keeps blobs in the photos table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, photo *models.Photo) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO photos (id, filename, content_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, photo.ID, photo.Filename, photo.ContentType, photo.Data, photo.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Photo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sentinel.ErrNotFound
	}
	var p models.Photo
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, filename, content_type, data, created_at FROM photos WHERE id = $1
	`, id).Scan(&p.ID, &p.Filename, &p.ContentType, &p.Data, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find photo: %w", err)
	}
	return &p, nil
}
