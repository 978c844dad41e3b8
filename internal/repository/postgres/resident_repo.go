package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

type ResidentRepo struct {
	pool *pgxpool.Pool
}

func NewResidentRepo(pool *pgxpool.Pool) *ResidentRepo {
	return &ResidentRepo{pool: pool}
}

const residentColumns = `id, email, display_name, unit_number, avatar_url, created_at, updated_at`

func (r *ResidentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents WHERE id = $1`
	var res domain.Resident
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.Email, &res.DisplayName, &res.UnitNumber,
		&res.AvatarURL, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &res, err
}

func (r *ResidentRepo) List(ctx context.Context) ([]domain.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents ORDER BY display_name`
	return r.queryResidents(ctx, query)
}

func (r *ResidentRepo) Search(ctx context.Context, q string) ([]domain.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents
		WHERE display_name ILIKE '%' || $1 || '%' OR unit_number ILIKE '%' || $1 || '%'
		ORDER BY display_name`
	return r.queryResidents(ctx, query, q)
}

func (r *ResidentRepo) queryResidents(ctx context.Context, query string, args ...any) ([]domain.Resident, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var residents []domain.Resident
	for rows.Next() {
		var res domain.Resident
		if err := rows.Scan(
			&res.ID, &res.Email, &res.DisplayName, &res.UnitNumber,
			&res.AvatarURL, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		residents = append(residents, res)
	}
	return residents, rows.Err()
}
