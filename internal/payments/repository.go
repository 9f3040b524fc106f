package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// ErrNotAuthorized is returned when a capture is attempted on a payment that
// has not passed signature verification.
var ErrNotAuthorized = errors.New("payment not authorized")

// DB is the pgx subset shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles payment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, user_id, trip_id, batch_id, provider_order_id, COALESCE(provider_payment_id,''),
	amount_paise, currency, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.TripID, &p.BatchID, &p.ProviderOrderID, &p.ProviderPaymentID,
		&p.AmountPaise, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a payment in created status.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO payments (user_id, trip_id, batch_id, provider_order_id, amount_paise, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.UserID, p.TripID, p.BatchID, p.ProviderOrderID, p.AmountPaise, p.Currency, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByOrderID returns a payment by gateway order ID.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_order_id = $1`, orderID))
}

// MarkAuthorized records a verified gateway callback on the payment.
func (r *Repository) MarkAuthorized(ctx context.Context, orderID, providerPaymentID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $1, provider_payment_id = $2, updated_at = NOW()
		 WHERE provider_order_id = $3 AND status = $4`,
		models.PaymentStatusAuthorized, providerPaymentID, orderID, models.PaymentStatusCreated)
	return err
}

// Capture moves an authorized payment to captured inside the booking
// transaction. The status guard makes the verify-then-book link atomic: a
// payment can back at most one booking.
func (r *Repository) Capture(ctx context.Context, db DB, orderID string) (*models.Payment, error) {
	if db == nil {
		db = r.pool
	}
	const q = `UPDATE payments SET status = $1, updated_at = NOW()
		WHERE provider_order_id = $2 AND status = $3
		RETURNING ` + paymentColumns
	p, err := scanPayment(db.QueryRow(ctx, q, models.PaymentStatusCaptured, orderID, models.PaymentStatusAuthorized))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	return p, nil
}

// MarkFailed records a failed verification attempt.
func (r *Repository) MarkFailed(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $1, updated_at = NOW() WHERE provider_order_id = $2 AND status = $3`,
		models.PaymentStatusFailed, orderID, models.PaymentStatusCreated)
	return err
}
