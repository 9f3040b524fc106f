package coupons

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// ErrExhausted is returned when a redemption would exceed max_uses.
var ErrExhausted = errors.New("coupon usage limit reached")

// DB is the pgx subset shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles coupon persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a coupons repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const couponColumns = `id, code, discount_paise, max_uses, used_count, expires_at, created_at, updated_at`

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var cp models.Coupon
	err := row.Scan(&cp.ID, &cp.Code, &cp.DiscountPaise, &cp.MaxUses, &cp.UsedCount, &cp.ExpiresAt, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetByCode returns a coupon by exact code match.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
}

// Create inserts a coupon.
func (r *Repository) Create(ctx context.Context, cp *models.Coupon) error {
	const q = `INSERT INTO coupons (code, discount_paise, max_uses, expires_at)
		VALUES ($1, $2, $3, $4) RETURNING id, used_count, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, cp.Code, cp.DiscountPaise, cp.MaxUses, cp.ExpiresAt).
		Scan(&cp.ID, &cp.UsedCount, &cp.CreatedAt, &cp.UpdatedAt)
}

// List returns all coupons, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Coupon
	for rows.Next() {
		var cp models.Coupon
		if err := rows.Scan(&cp.ID, &cp.Code, &cp.DiscountPaise, &cp.MaxUses, &cp.UsedCount, &cp.ExpiresAt, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	return list, rows.Err()
}

// Delete removes a coupon.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	return err
}

// Redeem increments used_count with the usage-limit guard. Runs inside the
// booking transaction so a failed booking never burns a redemption.
func (r *Repository) Redeem(ctx context.Context, db DB, code string) error {
	if db == nil {
		db = r.pool
	}
	tag, err := db.Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = NOW()
		 WHERE code = $1 AND expires_at > NOW() AND (max_uses = 0 OR used_count < max_uses)`,
		code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExhausted
	}
	return nil
}
