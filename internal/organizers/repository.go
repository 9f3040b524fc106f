package organizers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// Repository handles organizer persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const organizerColumns = `id, user_id, business_name, contact_email, COALESCE(contact_phone,''), COALESCE(address,''),
	COALESCE(pan,''), COALESCE(gstin,''), COALESCE(bank_account,''), COALESCE(bank_ifsc,''),
	kyc_status, agreement_signed, created_at, updated_at`

func scanOrganizer(row pgx.Row) (*models.Organizer, error) {
	var o models.Organizer
	err := row.Scan(&o.ID, &o.UserID, &o.BusinessName, &o.ContactEmail, &o.ContactPhone, &o.Address,
		&o.PAN, &o.GSTIN, &o.BankAccount, &o.BankIFSC, &o.KYCStatus, &o.AgreementSigned, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts an organizer profile for a user.
func (r *Repository) Create(ctx context.Context, o *models.Organizer) error {
	const q = `INSERT INTO organizers (user_id, business_name, contact_email, contact_phone, address, pan, gstin, bank_account, bank_ifsc, kyc_status, agreement_signed)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), $10, $11)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, o.UserID, o.BusinessName, o.ContactEmail, o.ContactPhone, o.Address,
		o.PAN, o.GSTIN, o.BankAccount, o.BankIFSC, string(o.KYCStatus), o.AgreementSigned).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// GetByID returns an organizer by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	return scanOrganizer(r.pool.QueryRow(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE id = $1`, id))
}

// GetByUserID returns the organizer profile owned by a user.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Organizer, error) {
	return scanOrganizer(r.pool.QueryRow(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE user_id = $1`, userID))
}

// List returns all organizers, optionally filtered by KYC status (admin view).
func (r *Repository) List(ctx context.Context, kycStatus string) ([]models.Organizer, error) {
	q := `SELECT ` + organizerColumns + ` FROM organizers`
	var args []interface{}
	if kycStatus != "" {
		q += ` WHERE kyc_status = $1`
		args = append(args, kycStatus)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organizer
	for rows.Next() {
		var o models.Organizer
		if err := rows.Scan(&o.ID, &o.UserID, &o.BusinessName, &o.ContactEmail, &o.ContactPhone, &o.Address,
			&o.PAN, &o.GSTIN, &o.BankAccount, &o.BankIFSC, &o.KYCStatus, &o.AgreementSigned, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Update rewrites the organizer business profile.
func (r *Repository) Update(ctx context.Context, o *models.Organizer) error {
	const q = `UPDATE organizers SET business_name = $1, contact_email = $2, contact_phone = NULLIF($3,''),
		address = NULLIF($4,''), pan = NULLIF($5,''), gstin = NULLIF($6,''),
		bank_account = NULLIF($7,''), bank_ifsc = NULLIF($8,''), kyc_status = $9, agreement_signed = $10, updated_at = NOW()
		WHERE id = $11`
	_, err := r.pool.Exec(ctx, q, o.BusinessName, o.ContactEmail, o.ContactPhone, o.Address,
		o.PAN, o.GSTIN, o.BankAccount, o.BankIFSC, string(o.KYCStatus), o.AgreementSigned, o.ID)
	return err
}

// UpdateKYC transitions the organizer's verification state.
func (r *Repository) UpdateKYC(ctx context.Context, id uuid.UUID, status models.KYCStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE organizers SET kyc_status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	return err
}

// DashboardStats holds the organizer dashboard aggregates.
type DashboardStats struct {
	ActiveTrips        int             `json:"active_trips"`
	TotalBookings      int             `json:"total_bookings"`
	GrossRevenuePaise  int64           `json:"gross_revenue_paise"`
	NetEarnedPaise     int64           `json:"net_earned_paise"`
	PendingPayoutPaise int64           `json:"pending_payout_paise"`
	RecentBookings     []RecentBooking `json:"recent_bookings"`
}

// RecentBooking is one row of the dashboard recent-bookings slice.
type RecentBooking struct {
	BookingID  uuid.UUID `json:"booking_id"`
	TripTitle  string    `json:"trip_title"`
	Travelers  int       `json:"travelers"`
	TotalPaise int64     `json:"total_paise"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Dashboard computes aggregate stats for an organizer.
func (r *Repository) Dashboard(ctx context.Context, organizerID uuid.UUID, recentLimit int) (*DashboardStats, error) {
	var s DashboardStats

	const aggQ = `SELECT
		(SELECT COUNT(*) FROM trips WHERE organizer_id = $1 AND status = 'published'),
		(SELECT COUNT(*) FROM bookings b JOIN trips t ON t.id = b.trip_id
			WHERE t.organizer_id = $1 AND b.status IN ('confirmed','completed')),
		COALESCE((SELECT SUM(b.total_paise) FROM bookings b JOIN trips t ON t.id = b.trip_id
			WHERE t.organizer_id = $1 AND b.status IN ('confirmed','completed')), 0),
		COALESCE((SELECT SUM(net_paise) FROM payouts WHERE organizer_id = $1 AND status = 'paid'), 0),
		COALESCE((SELECT SUM(net_paise) FROM payouts WHERE organizer_id = $1 AND status = 'pending'), 0)`
	if err := r.pool.QueryRow(ctx, aggQ, organizerID).
		Scan(&s.ActiveTrips, &s.TotalBookings, &s.GrossRevenuePaise, &s.NetEarnedPaise, &s.PendingPayoutPaise); err != nil {
		return nil, err
	}

	const recentQ = `SELECT b.id, t.title, jsonb_array_length(b.travelers), b.total_paise, b.status, b.created_at
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.organizer_id = $1
		ORDER BY b.created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, recentQ, organizerID, recentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b RecentBooking
		if err := rows.Scan(&b.BookingID, &b.TripTitle, &b.Travelers, &b.TotalPaise, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		s.RecentBookings = append(s.RecentBookings, b)
	}
	return &s, rows.Err()
}
