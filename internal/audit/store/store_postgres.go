package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"shelterhub/internal/audit/models"
	"shelterhub/pkg/platform/tx"
)

// PostgresStore persists entries in audit_logs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts the entry using the transaction in ctx when present.
func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry) error {
	var details sql.NullString
	if len(entry.Details) > 0 {
		details = sql.NullString{String: string(entry.Details), Valid: true}
	}
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO audit_logs (shelter_id, actor, action, timestamp, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, entry.ShelterID, entry.Actor, string(entry.Action), entry.Timestamp, details).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.Entry, error) {
	query := `
		SELECT id, shelter_id, actor, action, timestamp, details
		FROM audit_logs
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		var (
			e         models.Entry
			shelterID sql.NullInt64
			action    string
			details   sql.NullString
		)
		if err := rows.Scan(&e.ID, &shelterID, &e.Actor, &action, &e.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = models.Action(action)
		if shelterID.Valid {
			id := shelterID.Int64
			e.ShelterID = &id
		}
		if details.Valid {
			e.Details = json.RawMessage(details.String)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
