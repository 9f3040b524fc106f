package payouts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// ErrAlreadyRequested is returned when a batch already has a live payout.
var ErrAlreadyRequested = errors.New("a payout for this batch already exists")

// EligibleBatch is one completed batch an organizer may request settlement for.
type EligibleBatch struct {
	BatchID         uuid.UUID `json:"batch_id"`
	TripID          uuid.UUID `json:"trip_id"`
	TripTitle       string    `json:"trip_title"`
	EndDate         time.Time `json:"end_date"`
	BookingCount    int       `json:"booking_count"`
	GrossPaise      int64     `json:"gross_paise"`
	CommissionPaise int64     `json:"commission_paise"`
	NetPaise        int64     `json:"net_paise"`
}

// Repository handles payout persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payouts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const payoutColumns = `id, organizer_id, trip_id, batch_id, gross_paise, commission_paise, net_paise,
	status, COALESCE(utr, ''), COALESCE(invoice_ref, ''), COALESCE(failure_reason, ''), requested_at, settled_at`

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var p models.Payout
	err := row.Scan(&p.ID, &p.OrganizerID, &p.TripID, &p.BatchID, &p.GrossPaise, &p.CommissionPaise,
		&p.NetPaise, &p.Status, &p.UTR, &p.InvoiceRef, &p.FailureReason, &p.RequestedAt, &p.SettledAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EligibleBatches returns the organizer's ended batches with no live payout,
// with revenue aggregated from settleable bookings. Commission and net are
// filled in by the caller from the platform rate.
func (r *Repository) EligibleBatches(ctx context.Context, organizerID uuid.UUID) ([]EligibleBatch, error) {
	const q = `
		SELECT tb.id, t.id, t.title, tb.end_date,
		       COUNT(b.id), COALESCE(SUM(b.total_paise), 0)
		FROM trip_batches tb
		JOIN trips t ON t.id = tb.trip_id
		LEFT JOIN bookings b ON b.batch_id = tb.id AND b.status IN ('confirmed', 'completed')
		WHERE t.organizer_id = $1
		  AND tb.end_date < NOW()
		  AND NOT EXISTS (
		      SELECT 1 FROM payouts p WHERE p.batch_id = tb.id AND p.status <> 'failed'
		  )
		GROUP BY tb.id, t.id, t.title, tb.end_date
		HAVING COUNT(b.id) > 0
		ORDER BY tb.end_date DESC`
	rows, err := r.pool.Query(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []EligibleBatch
	for rows.Next() {
		var e EligibleBatch
		if err := rows.Scan(&e.BatchID, &e.TripID, &e.TripTitle, &e.EndDate, &e.BookingCount, &e.GrossPaise); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Revenue returns the settleable gross for one of the organizer's ended
// batches. pgx.ErrNoRows when the batch is not theirs or has not ended.
func (r *Repository) Revenue(ctx context.Context, organizerID, batchID uuid.UUID) (*EligibleBatch, error) {
	const q = `
		SELECT tb.id, t.id, t.title, tb.end_date,
		       COUNT(b.id), COALESCE(SUM(b.total_paise), 0)
		FROM trip_batches tb
		JOIN trips t ON t.id = tb.trip_id
		LEFT JOIN bookings b ON b.batch_id = tb.id AND b.status IN ('confirmed', 'completed')
		WHERE tb.id = $1 AND t.organizer_id = $2 AND tb.end_date < NOW()
		GROUP BY tb.id, t.id, t.title, tb.end_date`
	var e EligibleBatch
	err := r.pool.QueryRow(ctx, q, batchID, organizerID).
		Scan(&e.BatchID, &e.TripID, &e.TripTitle, &e.EndDate, &e.BookingCount, &e.GrossPaise)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a pending payout with frozen numbers. The partial unique
// index on (batch_id) WHERE status <> 'failed' rejects a second live payout.
func (r *Repository) Create(ctx context.Context, p *models.Payout) error {
	const q = `INSERT INTO payouts (organizer_id, trip_id, batch_id, gross_paise, commission_paise, net_paise, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, requested_at`
	err := r.pool.QueryRow(ctx, q, p.OrganizerID, p.TripID, p.BatchID,
		p.GrossPaise, p.CommissionPaise, p.NetPaise, p.Status).
		Scan(&p.ID, &p.RequestedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyRequested
		}
		return err
	}
	return nil
}

// GetByID returns a payout.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return scanPayout(r.pool.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, id))
}

// ListByOrganizer returns the organizer's payout history, newest first.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Payout, error) {
	return r.list(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE organizer_id = $1 ORDER BY requested_at DESC`, organizerID)
}

// List returns payouts, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status models.PayoutStatus) ([]models.Payout, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+payoutColumns+` FROM payouts ORDER BY requested_at DESC`)
	}
	return r.list(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE status = $1 ORDER BY requested_at DESC`, status)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.Payout, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Payout
	for rows.Next() {
		var p models.Payout
		if err := rows.Scan(&p.ID, &p.OrganizerID, &p.TripID, &p.BatchID, &p.GrossPaise, &p.CommissionPaise,
			&p.NetPaise, &p.Status, &p.UTR, &p.InvoiceRef, &p.FailureReason, &p.RequestedAt, &p.SettledAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// MarkPaid settles a pending payout with the transfer reference.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, utr, invoiceRef string) (*models.Payout, error) {
	const q = `UPDATE payouts SET status = 'paid', utr = $2, invoice_ref = NULLIF($3, ''), settled_at = NOW()
		WHERE id = $1 AND status = 'pending' RETURNING ` + payoutColumns
	return scanPayout(r.pool.QueryRow(ctx, q, id, utr, invoiceRef))
}

// MarkFailed rejects a pending payout so the batch becomes requestable again.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Payout, error) {
	const q = `UPDATE payouts SET status = 'failed', failure_reason = $2, settled_at = NOW()
		WHERE id = $1 AND status = 'pending' RETURNING ` + payoutColumns
	return scanPayout(r.pool.QueryRow(ctx, q, id, reason))
}
