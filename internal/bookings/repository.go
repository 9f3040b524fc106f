package bookings

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// DB is the pgx subset shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles booking persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `id, user_id, trip_id, batch_id, travelers, subtotal_paise, COALESCE(coupon_code,''),
	coupon_discount_paise, wallet_used_paise, tax_paise, total_paise, payment_id, status, refund_status, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var travelers []byte
	err := row.Scan(&b.ID, &b.UserID, &b.TripID, &b.BatchID, &travelers, &b.SubtotalPaise, &b.CouponCode,
		&b.CouponDiscountPaise, &b.WalletUsedPaise, &b.TaxPaise, &b.TotalPaise, &b.PaymentID,
		&b.Status, &b.RefundStatus, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(travelers, &b.Travelers); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a booking on the given db handle (pool or open tx).
func (r *Repository) Create(ctx context.Context, db DB, b *models.Booking) error {
	if db == nil {
		db = r.pool
	}
	travelers, err := json.Marshal(b.Travelers)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (user_id, trip_id, batch_id, travelers, subtotal_paise, coupon_code,
		coupon_discount_paise, wallet_used_paise, tax_paise, total_paise, payment_id, status, refund_status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	return db.QueryRow(ctx, q, b.UserID, b.TripID, b.BatchID, travelers, b.SubtotalPaise, b.CouponCode,
		b.CouponDiscountPaise, b.WalletUsedPaise, b.TaxPaise, b.TotalPaise, b.PaymentID,
		string(b.Status), string(b.RefundStatus)).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a booking.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// GetByIDForUpdate loads a booking with a row lock inside a transaction.
func (r *Repository) GetByIDForUpdate(ctx context.Context, db DB, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

// ListByUser returns a user's bookings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateStatus writes a booking status transition.
func (r *Repository) UpdateStatus(ctx context.Context, db DB, id uuid.UUID, status models.BookingStatus, refund models.RefundStatus) error {
	if db == nil {
		db = r.pool
	}
	_, err := db.Exec(ctx,
		`UPDATE bookings SET status = $1, refund_status = $2, updated_at = NOW() WHERE id = $3`,
		string(status), string(refund), id)
	return err
}

// MarkRefundProcessed finishes the refund on a cancelled booking.
func (r *Repository) MarkRefundProcessed(ctx context.Context, db DB, id uuid.UUID) error {
	if db == nil {
		db = r.pool
	}
	_, err := db.Exec(ctx,
		`UPDATE bookings SET refund_status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		string(models.RefundProcessed), id, string(models.BookingCancelled))
	return err
}
