package trips

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// ErrSoldOut is returned when a seat reservation would exceed batch capacity.
var ErrSoldOut = errors.New("batch is sold out")

// DB is the pgx subset shared by *pgxpool.Pool and pgx.Tx, so seat
// reservations can join the booking transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles trip and batch persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a trips repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tripColumns = `id, organizer_id, title, slug, description, location, price_paise, status, COALESCE(rejection_reason,''), created_at, updated_at`

func scanTrip(row pgx.Row) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(&t.ID, &t.OrganizerID, &t.Title, &t.Slug, &t.Description, &t.Location,
		&t.PricePaise, &t.Status, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new trip in draft status.
func (r *Repository) Create(ctx context.Context, t *models.Trip) error {
	const q = `INSERT INTO trips (organizer_id, title, slug, description, location, price_paise, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.OrganizerID, t.Title, t.Slug, t.Description, t.Location, t.PricePaise, string(t.Status)).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a trip with its batches.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	t, err := scanTrip(r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	t.Batches, err = r.BatchesByTrip(ctx, t.ID)
	return t, err
}

// GetBySlug returns a trip with its batches by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Trip, error) {
	t, err := scanTrip(r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE slug = $1`, slug))
	if err != nil {
		return nil, err
	}
	t.Batches, err = r.BatchesByTrip(ctx, t.ID)
	return t, err
}

// ListPublished returns published trips, optionally filtered by location and a
// title search term.
func (r *Repository) ListPublished(ctx context.Context, location, search string) ([]models.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE status = 'published'`
	var args []interface{}
	if location != "" {
		args = append(args, location)
		q += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		q += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}
	q += " ORDER BY created_at DESC"
	return r.list(ctx, q, args...)
}

// ListByOrganizer returns all trips owned by an organizer.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips WHERE organizer_id = $1 ORDER BY created_at DESC`, organizerID)
}

// ListByStatus returns trips in a moderation state, oldest first (admin review queue).
func (r *Repository) ListByStatus(ctx context.Context, status models.TripStatus) ([]models.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips WHERE status = $1 ORDER BY created_at ASC`, string(status))
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Trip, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Trip
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.OrganizerID, &t.Title, &t.Slug, &t.Description, &t.Location,
			&t.PricePaise, &t.Status, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update rewrites editable trip fields.
func (r *Repository) Update(ctx context.Context, t *models.Trip) error {
	const q = `UPDATE trips SET title = $1, slug = $2, description = $3, location = $4, price_paise = $5,
		status = $6, updated_at = NOW() WHERE id = $7`
	_, err := r.pool.Exec(ctx, q, t.Title, t.Slug, t.Description, t.Location, t.PricePaise, string(t.Status), t.ID)
	return err
}

// UpdateStatus transitions a trip's moderation state.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TripStatus, reason string) error {
	const q = `UPDATE trips SET status = $1, rejection_reason = NULLIF($2,''), updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, string(status), reason, id)
	return err
}

const batchColumns = `id, trip_id, start_date, end_date, capacity, seats_booked, price_override_paise, status, created_at, updated_at`

// CreateBatch inserts a batch for a trip.
func (r *Repository) CreateBatch(ctx context.Context, b *models.TripBatch) error {
	const q = `INSERT INTO trip_batches (trip_id, start_date, end_date, capacity, price_override_paise, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, seats_booked, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, b.TripID, b.StartDate, b.EndDate, b.Capacity, b.PriceOverridePaise, string(b.Status)).
		Scan(&b.ID, &b.SeatsBooked, &b.CreatedAt, &b.UpdatedAt)
}

// GetBatch returns a batch by ID.
func (r *Repository) GetBatch(ctx context.Context, id uuid.UUID) (*models.TripBatch, error) {
	return r.getBatch(ctx, r.pool, id)
}

// GetBatchForUpdate loads a batch with a row lock inside a transaction.
func (r *Repository) GetBatchForUpdate(ctx context.Context, db DB, id uuid.UUID) (*models.TripBatch, error) {
	var b models.TripBatch
	err := db.QueryRow(ctx, `SELECT `+batchColumns+` FROM trip_batches WHERE id = $1 FOR UPDATE`, id).
		Scan(&b.ID, &b.TripID, &b.StartDate, &b.EndDate, &b.Capacity, &b.SeatsBooked, &b.PriceOverridePaise, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) getBatch(ctx context.Context, db DB, id uuid.UUID) (*models.TripBatch, error) {
	var b models.TripBatch
	err := db.QueryRow(ctx, `SELECT `+batchColumns+` FROM trip_batches WHERE id = $1`, id).
		Scan(&b.ID, &b.TripID, &b.StartDate, &b.EndDate, &b.Capacity, &b.SeatsBooked, &b.PriceOverridePaise, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BatchesByTrip returns batches of a trip ordered by start date.
func (r *Repository) BatchesByTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripBatch, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+batchColumns+` FROM trip_batches WHERE trip_id = $1 ORDER BY start_date ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.TripBatch
	for rows.Next() {
		var b models.TripBatch
		if err := rows.Scan(&b.ID, &b.TripID, &b.StartDate, &b.EndDate, &b.Capacity, &b.SeatsBooked, &b.PriceOverridePaise, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateBatch rewrites batch fields (dates, capacity, price override, status).
// Capacity cannot shrink below seats already booked.
func (r *Repository) UpdateBatch(ctx context.Context, b *models.TripBatch) error {
	const q = `UPDATE trip_batches SET start_date = $1, end_date = $2, capacity = $3,
		price_override_paise = $4, status = $5, updated_at = NOW()
		WHERE id = $6 AND seats_booked <= $3`
	tag, err := r.pool.Exec(ctx, q, b.StartDate, b.EndDate, b.Capacity, b.PriceOverridePaise, string(b.Status), b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("capacity below booked seats")
	}
	return nil
}

// ReserveSeats atomically takes n seats on a batch. The conditional update is
// the oversell guard: concurrent bookings race on this single row and the
// loser gets ErrSoldOut.
func (r *Repository) ReserveSeats(ctx context.Context, db DB, batchID uuid.UUID, n int) error {
	if db == nil {
		db = r.pool
	}
	tag, err := db.Exec(ctx,
		`UPDATE trip_batches SET seats_booked = seats_booked + $1, updated_at = NOW()
		 WHERE id = $2 AND seats_booked + $1 <= capacity`,
		n, batchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSoldOut
	}
	return nil
}

// ReleaseSeats returns n seats to a batch on cancellation.
func (r *Repository) ReleaseSeats(ctx context.Context, db DB, batchID uuid.UUID, n int) error {
	if db == nil {
		db = r.pool
	}
	_, err := db.Exec(ctx,
		`UPDATE trip_batches SET seats_booked = GREATEST(0, seats_booked - $1), updated_at = NOW() WHERE id = $2`,
		n, batchID)
	return err
}
