package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"shelterhub/pkg/platform/tx"
)

// PostgresLinkStore persists the shelter_photos association.
type PostgresLinkStore struct {
	db *sql.DB
}

func NewPostgresLinkStore(db *sql.DB) *PostgresLinkStore {
	return &PostgresLinkStore{db: db}
}

// Attach inserts each pair once; repeated pairs are ignored.
func (s *PostgresLinkStore) Attach(ctx context.Context, shelterID int64, photoIDs []string, now time.Time) error {
	exec := tx.Exec(ctx, s.db)
	for _, photoID := range photoIDs {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO shelter_photos (shelter_id, photo_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (shelter_id, photo_id) DO NOTHING
		`, shelterID, photoID, now)
		if err != nil {
			return fmt.Errorf("attach photo: %w", err)
		}
	}
	return nil
}

func (s *PostgresLinkStore) Replace(ctx context.Context, shelterID int64, photoIDs []string, now time.Time) error {
	if err := s.DeleteByShelter(ctx, shelterID); err != nil {
		return err
	}
	return s.Attach(ctx, shelterID, photoIDs, now)
}

func (s *PostgresLinkStore) ListByShelter(ctx context.Context, shelterID int64) ([]string, error) {
	byShelter, err := s.ListByShelters(ctx, []int64{shelterID})
	if err != nil {
		return nil, err
	}
	if ids := byShelter[shelterID]; ids != nil {
		return ids, nil
	}
	return []string{}, nil
}

func (s *PostgresLinkStore) ListByShelters(ctx context.Context, shelterIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(shelterIDs))
	if len(shelterIDs) == 0 {
		return out, nil
	}
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT shelter_id, photo_id
		FROM shelter_photos
		WHERE shelter_id = ANY($1)
		ORDER BY shelter_id, seq
	`, pq.Array(shelterIDs))
	if err != nil {
		return nil, fmt.Errorf("list photo links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			shelterID int64
			photoID   string
		)
		if err := rows.Scan(&shelterID, &photoID); err != nil {
			return nil, fmt.Errorf("scan photo link: %w", err)
		}
		out[shelterID] = append(out[shelterID], photoID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photo links: %w", err)
	}
	return out, nil
}

func (s *PostgresLinkStore) DeleteByShelter(ctx context.Context, shelterIDs ...int64) error {
	if len(shelterIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM shelter_photos WHERE shelter_id = ANY($1)`, pq.Array(shelterIDs))
	if err != nil {
		return fmt.Errorf("delete photo links: %w", err)
	}
	return nil
}
