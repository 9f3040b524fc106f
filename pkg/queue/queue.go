package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueEmails is the Redis list key for transactional email jobs.
	QueueEmails = "worker:emails"
	// QueueAccrual is the Redis list key for batch revenue accrual jobs.
	QueueAccrual = "worker:accrual"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeBookingEmail  JobType = "booking_email"
	JobTypePayoutEmail   JobType = "payout_email"
	JobTypeBatchAccrual  JobType = "batch_accrual"
)

// BookingEmailPayload is the payload for booking confirmation email jobs.
type BookingEmailPayload struct {
	BookingID      uuid.UUID `json:"booking_id"`
	RecipientEmail string    `json:"recipient_email"`
	TripTitle      string    `json:"trip_title"`
	TotalPaise     int64     `json:"total_paise"`
}

// PayoutEmailPayload is the payload for payout settlement email jobs.
type PayoutEmailPayload struct {
	PayoutID       uuid.UUID `json:"payout_id"`
	RecipientEmail string    `json:"recipient_email"`
	NetPaise       int64     `json:"net_paise"`
	UTR            string    `json:"utr,omitempty"`
}

// BatchAccrualPayload is the payload for batch revenue snapshot jobs.
type BatchAccrualPayload struct {
	BatchID uuid.UUID `json:"batch_id"`
	TripID  uuid.UUID `json:"trip_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueBookingEmail enqueues a booking confirmation email job.
func (q *Queue) EnqueueBookingEmail(ctx context.Context, payload BookingEmailPayload) error {
	return q.enqueue(ctx, QueueEmails, JobTypeBookingEmail, payload)
}

// EnqueuePayoutEmail enqueues a payout settled email job.
func (q *Queue) EnqueuePayoutEmail(ctx context.Context, payload PayoutEmailPayload) error {
	return q.enqueue(ctx, QueueEmails, JobTypePayoutEmail, payload)
}

// EnqueueBatchAccrual enqueues a batch revenue accrual job.
func (q *Queue) EnqueueBatchAccrual(ctx context.Context, payload BatchAccrualPayload) error {
	return q.enqueue(ctx, QueueAccrual, JobTypeBatchAccrual, payload)
}

func (q *Queue) enqueue(ctx context.Context, key string, typ JobType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(typ)))
	return nil
}

// Dequeue blocks until a job is available on any worker queue or ctx is done.
// Returns the job and the queue key it came from.
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, 0, QueueEmails, QueueAccrual).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job on its origin queue with incremented attempt.
// If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job, origin string) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if origin == "" {
		origin = QueueEmails
	}
	if err := q.client.RPush(ctx, origin, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
