package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"shelterhub/internal/shelter/models"
	"shelterhub/pkg/platform/sentinel"
	"shelterhub/pkg/platform/tx"
)

const shelterColumns = `id, name, address, latitude, longitude, capacity, current_occupancy,
	pets_allowed, barrier_free, toilet_available, food_available, medical_available,
	wifi_available, charging_available, equipment, contact, operator, opened_at,
	status, updated_at, owner_id`

// PostgresStore persists shelters in the shelters table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, shelter *models.Shelter) error {
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO shelters (
			name, address, latitude, longitude, capacity, current_occupancy,
			pets_allowed, barrier_free, toilet_available, food_available, medical_available,
			wifi_available, charging_available, equipment, contact, operator, opened_at,
			status, updated_at, owner_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`,
		shelter.Name, shelter.Address, shelter.Latitude, shelter.Longitude,
		shelter.Capacity, shelter.CurrentOccupancy,
		shelter.PetsAllowed, shelter.BarrierFree, shelter.ToiletAvailable, shelter.FoodAvailable,
		shelter.MedicalAvailable, shelter.WifiAvailable, shelter.ChargingAvailable,
		shelter.Equipment, shelter.Contact, shelter.Operator, shelter.OpenedAt,
		string(shelter.Status), shelter.UpdatedAt, nullString(shelter.OwnerID),
	).Scan(&shelter.ID)
	if err != nil {
		return fmt.Errorf("insert shelter: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Shelter, error) {
	return s.findOne(ctx, `SELECT `+shelterColumns+` FROM shelters WHERE id = $1`, id)
}

// FindForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindForUpdate(ctx context.Context, id int64) (*models.Shelter, error) {
	return s.findOne(ctx, `SELECT `+shelterColumns+` FROM shelters WHERE id = $1 FOR UPDATE`, id)
}

// FindManyForUpdate locks the existing rows among ids in id order.
func (s *PostgresStore) FindManyForUpdate(ctx context.Context, ids []int64) ([]*models.Shelter, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+shelterColumns+` FROM shelters WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock shelters: %w", err)
	}
	return scanAll(rows)
}

// List applies the attribute predicates in SQL and the radius in Go.
func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Shelter, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(filter.Search); q != "" {
		p := arg(q)
		where = append(where, fmt.Sprintf("(strpos(lower(name), lower(%s)) > 0 OR strpos(lower(address), lower(%s)) > 0)", p, p))
	}
	if filter.Status != nil {
		where = append(where, "status = "+arg(string(*filter.Status)))
	}
	for _, flag := range filter.Flags.Columns() {
		where = append(where, flag.Column+" = "+arg(flag.Value))
	}

	query := `SELECT ` + shelterColumns + ` FROM shelters`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shelters: %w", err)
	}
	all, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Shelter, 0, len(all))
	for _, shelter := range all {
		if filter.WithinRadius(shelter) {
			out = append(out, shelter)
		}
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, shelter *models.Shelter) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE shelters SET
			name = $2, address = $3, latitude = $4, longitude = $5,
			capacity = $6, current_occupancy = $7,
			pets_allowed = $8, barrier_free = $9, toilet_available = $10, food_available = $11,
			medical_available = $12, wifi_available = $13, charging_available = $14,
			equipment = $15, contact = $16, operator = $17, opened_at = $18,
			status = $19, updated_at = $20
		WHERE id = $1
	`,
		shelter.ID, shelter.Name, shelter.Address, shelter.Latitude, shelter.Longitude,
		shelter.Capacity, shelter.CurrentOccupancy,
		shelter.PetsAllowed, shelter.BarrierFree, shelter.ToiletAvailable, shelter.FoodAvailable,
		shelter.MedicalAvailable, shelter.WifiAvailable, shelter.ChargingAvailable,
		shelter.Equipment, shelter.Contact, shelter.Operator, shelter.OpenedAt,
		string(shelter.Status), shelter.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update shelter: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM shelters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shelter: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, id int64) (*models.Shelter, error) {
	shelter, err := scanShelter(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find shelter: %w", err)
	}
	return shelter, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShelter(row rowScanner) (*models.Shelter, error) {
	var (
		sh       models.Shelter
		status   string
		openedAt sql.NullTime
		ownerID  sql.NullString
	)
	err := row.Scan(
		&sh.ID, &sh.Name, &sh.Address, &sh.Latitude, &sh.Longitude,
		&sh.Capacity, &sh.CurrentOccupancy,
		&sh.PetsAllowed, &sh.BarrierFree, &sh.ToiletAvailable, &sh.FoodAvailable,
		&sh.MedicalAvailable, &sh.WifiAvailable, &sh.ChargingAvailable,
		&sh.Equipment, &sh.Contact, &sh.Operator, &openedAt,
		&status, &sh.UpdatedAt, &ownerID,
	)
	if err != nil {
		return nil, err
	}
	sh.Status = models.Status(status)
	if openedAt.Valid {
		t := openedAt.Time
		sh.OpenedAt = &t
	}
	sh.OwnerID = ownerID.String
	return &sh, nil
}

func scanAll(rows *sql.Rows) ([]*models.Shelter, error) {
	defer rows.Close()
	var out []*models.Shelter
	for rows.Next() {
		sh, err := scanShelter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shelter: %w", err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shelters: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
