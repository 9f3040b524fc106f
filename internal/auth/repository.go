package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, COALESCE(phone,''), COALESCE(password_hash,''), full_name, role,
	wallet_balance, referral_code, referred_by, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.Password, &u.FullName, &u.Role,
		&u.WalletBalance, &u.ReferralCode, &u.ReferredBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByPhone returns a user by phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

// GetByReferralCode returns the user owning a referral code.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

// CreateUserParams holds inputs for inserting a user.
type CreateUserParams struct {
	Email        string
	Phone        string
	PasswordHash string
	FullName     string
	Role         models.Role
	ReferralCode string
	ReferredBy   *uuid.UUID
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (email, phone, password_hash, full_name, role, referral_code, referred_by)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6, $7)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, p.Email, p.Phone, p.PasswordHash, p.FullName, string(p.Role), p.ReferralCode, p.ReferredBy))
}

// List returns all users for admin views.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, COALESCE(phone,''), full_name, role, wallet_balance, referral_code, created_at
		FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.Phone, &u.FullName, &u.Role, &u.WalletBalance, &u.ReferralCode, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
