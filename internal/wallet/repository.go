package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travonex/backend/internal/models"
)

// ErrInsufficientBalance is returned when a debit would push the balance negative.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// DB is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx, so the
// same ledger writes can run standalone or inside a booking transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the single write path to wallet balances. Every balance
// mutation pairs a users.wallet_balance update with a ledger insert in the
// same transaction, so balance always equals the ledger sum.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a wallet repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Entry describes one ledger mutation.
type Entry struct {
	UserID      uuid.UUID
	AmountPaise int64 // positive
	Source      string
	BookingID   *uuid.UUID
	Note        string
}

// Credit adds funds to a wallet. With a nil db it runs in its own
// transaction; pass an open tx to join a larger one.
func (r *Repository) Credit(ctx context.Context, db DB, e Entry) error {
	if db == nil {
		return r.withTx(ctx, func(tx pgx.Tx) error { return r.Credit(ctx, tx, e) })
	}
	if _, err := db.Exec(ctx,
		`UPDATE users SET wallet_balance = wallet_balance + $1, updated_at = NOW() WHERE id = $2`,
		e.AmountPaise, e.UserID); err != nil {
		return err
	}
	return r.appendLedger(ctx, db, e, models.WalletCredit)
}

// CreditReferral grants a referral reward in its own transaction.
func (r *Repository) CreditReferral(ctx context.Context, userID uuid.UUID, amountPaise int64, note string) error {
	return r.Credit(ctx, nil, Entry{
		UserID:      userID,
		AmountPaise: amountPaise,
		Source:      models.WalletSourceReferral,
		Note:        note,
	})
}

// Debit removes funds, guarded against a negative balance.
func (r *Repository) Debit(ctx context.Context, db DB, e Entry) error {
	if db == nil {
		return r.withTx(ctx, func(tx pgx.Tx) error { return r.Debit(ctx, tx, e) })
	}
	tag, err := db.Exec(ctx,
		`UPDATE users SET wallet_balance = wallet_balance - $1, updated_at = NOW()
		 WHERE id = $2 AND wallet_balance >= $1`,
		e.AmountPaise, e.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}
	return r.appendLedger(ctx, db, e, models.WalletDebit)
}

func (r *Repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) appendLedger(ctx context.Context, db DB, e Entry, typ string) error {
	_, err := db.Exec(ctx,
		`INSERT INTO wallet_transactions (user_id, amount_paise, type, source, booking_id, note)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6,''))`,
		e.UserID, e.AmountPaise, typ, e.Source, e.BookingID, e.Note)
	return err
}

// Balance returns the current wallet balance.
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	return balance, err
}

// Transactions returns the ledger for a user, newest first.
func (r *Repository) Transactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, amount_paise, type, source, booking_id, COALESCE(note,''), created_at
		 FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AmountPaise, &t.Type, &t.Source, &t.BookingID, &t.Note, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
