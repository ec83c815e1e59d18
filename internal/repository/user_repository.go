package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elevex/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository stores accounts in Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, u entities.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, company, email, password_hash, plan, status, is_admin, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Company, u.Email, u.PasswordHash, u.Plan, u.Status, u.IsAdmin, u.JoinedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmail loads an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entities.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, name, company, email, password_hash, plan, status, is_admin, joined_at
		 FROM users WHERE email = $1`, email))
}

// GetByID loads an account by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (entities.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, name, company, email, password_hash, plan, status, is_admin, joined_at
		 FROM users WHERE id = $1`, id))
}

func (r *UserRepository) scanOne(row pgx.Row) (entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Name, &u.Company, &u.Email, &u.PasswordHash, &u.Plan, &u.Status, &u.IsAdmin, &u.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.User{}, ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// List returns every account, newest first.
func (r *UserRepository) List(ctx context.Context) ([]entities.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, company, email, password_hash, plan, status, is_admin, joined_at
		 FROM users ORDER BY joined_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []entities.User
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Company, &u.Email, &u.PasswordHash, &u.Plan, &u.Status, &u.IsAdmin, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateStatus sets the account status.
func (r *UserRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePlan moves the account to another plan.
func (r *UserRepository) UpdatePlan(ctx context.Context, id, plan string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET plan = $1 WHERE id = $2`, plan, id)
	if err != nil {
		return fmt.Errorf("update user plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
