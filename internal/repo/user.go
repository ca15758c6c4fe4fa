package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"concerthub/internal/model"
)

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, first_name, last_name, role, created_at, updated_at
		FROM users WHERE email = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return scanUser(row)
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, first_name, last_name, role, created_at, updated_at
		FROM users WHERE id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *repository) GetPlaceByID(ctx context.Context, id string) (*model.Place, error) {
	query := `
		SELECT id, name, address, zip_code, city, capacity, created_at, updated_at
		FROM places WHERE id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}

	var p model.Place
	if err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.ZipCode, &p.City, &p.Capacity, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlaceNotFound
		}
		return nil, fmt.Errorf("scan place: %w", err)
	}
	return &p, nil
}
