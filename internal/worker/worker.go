package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/pkg/queue"
)

// Processor consumes email and revenue-accrual jobs. Email outcomes are
// recorded in email_logs; accrual jobs upsert the batch_revenue snapshot.
type Processor struct {
	pool   *pgxpool.Pool
	mailer *Mailer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewProcessor creates a worker processor.
func NewProcessor(pool *pgxpool.Pool, mailer *Mailer, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{pool: pool, mailer: mailer, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeBookingEmail:
		return p.processBookingEmail(ctx, job)
	case queue.JobTypePayoutEmail:
		return p.processPayoutEmail(ctx, job)
	case queue.JobTypeBatchAccrual:
		return p.processAccrual(ctx, job)
	}
	return fmt.Errorf("unknown job type: %s", job.Type)
}

func (p *Processor) processBookingEmail(ctx context.Context, job *queue.Job) error {
	var payload queue.BookingEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject := "Booking confirmed: " + payload.TripTitle
	body := fmt.Sprintf(
		"Your booking for %s is confirmed.\r\n\r\nAmount paid: %s\r\nBooking reference: %s\r\n\r\nHappy travels!\r\nTeam Travonex",
		payload.TripTitle, rupees(payload.TotalPaise), payload.BookingID)

	sendErr := p.mailer.Send(payload.RecipientEmail, subject, body)
	p.logEmail(ctx, "booking_confirmation", &payload.BookingID, nil, payload.RecipientEmail, subject, sendErr)
	if sendErr != nil {
		return fmt.Errorf("send booking email: %w", sendErr)
	}
	return nil
}

func (p *Processor) processPayoutEmail(ctx context.Context, job *queue.Job) error {
	var payload queue.PayoutEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject := "Payout settled: " + rupees(payload.NetPaise)
	body := fmt.Sprintf(
		"Your payout of %s has been transferred.\r\n\r\nUTR: %s\r\nPayout reference: %s\r\n\r\nTeam Travonex",
		rupees(payload.NetPaise), payload.UTR, payload.PayoutID)

	sendErr := p.mailer.Send(payload.RecipientEmail, subject, body)
	p.logEmail(ctx, "payout_settled", nil, &payload.PayoutID, payload.RecipientEmail, subject, sendErr)
	if sendErr != nil {
		return fmt.Errorf("send payout email: %w", sendErr)
	}
	return nil
}

// processAccrual recomputes the settleable gross for a batch and upserts the
// batch_revenue snapshot. Recomputing from bookings makes the job idempotent,
// so replaying after a retry cannot drift the snapshot.
func (p *Processor) processAccrual(ctx context.Context, job *queue.Job) error {
	var payload queue.BatchAccrualPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	const q = `
		INSERT INTO batch_revenue (batch_id, trip_id, gross_paise, booking_count, updated_at)
		SELECT $1, $2,
		       COALESCE(SUM(total_paise), 0), COUNT(id), NOW()
		FROM bookings
		WHERE batch_id = $1 AND status IN ('confirmed', 'completed')
		ON CONFLICT (batch_id) DO UPDATE SET
			gross_paise = EXCLUDED.gross_paise,
			booking_count = EXCLUDED.booking_count,
			updated_at = EXCLUDED.updated_at`
	if _, err := p.pool.Exec(ctx, q, payload.BatchID, payload.TripID); err != nil {
		return fmt.Errorf("upsert batch revenue: %w", err)
	}

	p.logger.Debug("batch revenue accrued", zap.String("batch_id", payload.BatchID.String()))
	return nil
}

func (p *Processor) logEmail(ctx context.Context, emailType string, bookingID, payoutID *uuid.UUID, recipient, subject string, sendErr error) {
	status := models.EmailStatusSent
	errMsg := ""
	var sentAt *time.Time
	if sendErr != nil {
		status = models.EmailStatusFailed
		errMsg = sendErr.Error()
	} else {
		now := time.Now()
		sentAt = &now
	}
	const q = `INSERT INTO email_logs (email_type, booking_id, payout_id, recipient_email, subject, status, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`
	if _, err := p.pool.Exec(ctx, q, emailType, bookingID, payoutID, recipient, subject, status, errMsg, sentAt); err != nil {
		p.logger.Warn("email log insert failed", zap.Error(err))
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, origin, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job, origin); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
