package admin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// DashboardStats is the platform-wide aggregate view.
type DashboardStats struct {
	TotalUsers         int             `json:"total_users"`
	TotalOrganizers    int             `json:"total_organizers"`
	PublishedTrips     int             `json:"published_trips"`
	PendingTrips       int             `json:"pending_trips"`
	ConfirmedBookings  int             `json:"confirmed_bookings"`
	GrossRevenuePaise  int64           `json:"gross_revenue_paise"`
	PendingPayouts     int             `json:"pending_payouts"`
	PendingPayoutPaise int64           `json:"pending_payout_paise"`
	PendingKYCReviews  int             `json:"pending_kyc_reviews"`
	RecentBookings     []RecentBooking `json:"recent_bookings"`
}

// RecentBooking is one row in the dashboard's latest-bookings list.
type RecentBooking struct {
	ID         uuid.UUID `json:"id"`
	TripTitle  string    `json:"trip_title"`
	UserEmail  string    `json:"user_email"`
	Seats      int       `json:"seats"`
	TotalPaise int64     `json:"total_paise"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository handles admin-only reads and the audit trail.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an admin repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Dashboard aggregates platform counters and the newest bookings.
func (r *Repository) Dashboard(ctx context.Context, recentLimit int) (*DashboardStats, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM organizers),
			(SELECT COUNT(*) FROM trips WHERE status = 'published'),
			(SELECT COUNT(*) FROM trips WHERE status = 'pending_approval'),
			(SELECT COUNT(*) FROM bookings WHERE status IN ('confirmed', 'completed')),
			(SELECT COALESCE(SUM(total_paise), 0) FROM bookings WHERE status IN ('confirmed', 'completed')),
			(SELECT COUNT(*) FROM payouts WHERE status = 'pending'),
			(SELECT COALESCE(SUM(net_paise), 0) FROM payouts WHERE status = 'pending'),
			(SELECT COUNT(*) FROM organizers WHERE kyc_status = 'pending')`
	var s DashboardStats
	err := r.pool.QueryRow(ctx, q).Scan(
		&s.TotalUsers, &s.TotalOrganizers, &s.PublishedTrips, &s.PendingTrips,
		&s.ConfirmedBookings, &s.GrossRevenuePaise,
		&s.PendingPayouts, &s.PendingPayoutPaise, &s.PendingKYCReviews)
	if err != nil {
		return nil, err
	}

	const recentQ = `
		SELECT b.id, t.title, u.email, jsonb_array_length(b.travelers), b.total_paise, b.status, b.created_at
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, recentQ, recentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b RecentBooking
		if err := rows.Scan(&b.ID, &b.TripTitle, &b.UserEmail, &b.Seats, &b.TotalPaise, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		s.RecentBookings = append(s.RecentBookings, b)
	}
	return &s, rows.Err()
}

// Audit appends an audit log row. Failures are reported but never block the
// action they describe.
func (r *Repository) Audit(ctx context.Context, adminID uuid.UUID, action, entityType string, entityID uuid.UUID, detail any) error {
	note := ""
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			note = string(b)
		}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (admin_id, action, entity_type, entity_id, detail) VALUES ($1, $2, $3, $4, NULLIF($5, ''))`,
		adminID, action, entityType, entityID, note)
	return err
}

// AuditLogs returns the newest audit entries.
func (r *Repository) AuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	const q = `SELECT id, admin_id, action, entity_type, entity_id, COALESCE(detail, ''), created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AuditLog
	for rows.Next() {
		var a models.AuditLog
		if err := rows.Scan(&a.ID, &a.AdminID, &a.Action, &a.EntityType, &a.EntityID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// EmailLogs returns the newest email send records.
func (r *Repository) EmailLogs(ctx context.Context, limit int) ([]models.EmailLog, error) {
	const q = `SELECT id, email_type, booking_id, payout_id, recipient_email, subject, status,
		COALESCE(error_message, ''), sent_at, created_at
		FROM email_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var e models.EmailLog
		if err := rows.Scan(&e.ID, &e.EmailType, &e.BookingID, &e.PayoutID, &e.RecipientEmail,
			&e.Subject, &e.Status, &e.ErrorMessage, &e.SentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
