package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/travonex/backend/config"
	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/bookings"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/internal/organizers"
	"github.com/travonex/backend/internal/payouts"
	"github.com/travonex/backend/internal/trips"
	"github.com/travonex/backend/internal/wallet"
	"github.com/travonex/backend/pkg/queue"
	"github.com/travonex/backend/pkg/response"
)

// RejectRequest carries the reason for a trip rejection.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// KYCRequest is the body for POST /admin/organizers/:id/kyc.
type KYCRequest struct {
	Status string `json:"status" binding:"required,oneof=verified rejected suspended"`
}

// PayRequest is the body for POST /admin/payouts/:id/pay.
type PayRequest struct {
	UTR        string `json:"utr" binding:"required"`
	InvoiceRef string `json:"invoice_ref"`
}

// FailRequest is the body for POST /admin/payouts/:id/fail.
type FailRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Handler handles admin-only endpoints. Every mutation appends to audit_logs.
type Handler struct {
	pool        *pgxpool.Pool
	repo        *Repository
	tripRepo    *trips.Repository
	orgRepo     *organizers.Repository
	payoutRepo  *payouts.Repository
	bookingRepo *bookings.Repository
	walletRepo  *wallet.Repository
	jobs        *queue.Queue
	platform    config.PlatformConfig
	logger      *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(pool *pgxpool.Pool, repo *Repository, tripRepo *trips.Repository,
	orgRepo *organizers.Repository, payoutRepo *payouts.Repository,
	bookingRepo *bookings.Repository, walletRepo *wallet.Repository,
	jobs *queue.Queue, platform config.PlatformConfig, logger *zap.Logger) *Handler {
	return &Handler{
		pool:        pool,
		repo:        repo,
		tripRepo:    tripRepo,
		orgRepo:     orgRepo,
		payoutRepo:  payoutRepo,
		bookingRepo: bookingRepo,
		walletRepo:  walletRepo,
		jobs:        jobs,
		platform:    platform,
		logger:      logger,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.repo.Dashboard(c.Request.Context(), h.platform.DashboardRecentLimit)
	if err != nil {
		h.logger.Error("admin dashboard failed", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	response.OK(c, stats)
}

// ListTrips handles GET /admin/trips?status=pending_approval.
func (h *Handler) ListTrips(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.TripPendingApproval))
	list, err := h.tripRepo.ListByStatus(c.Request.Context(), models.TripStatus(status))
	if err != nil {
		response.Internal(c, "failed to list trips")
		return
	}
	response.OK(c, list)
}

// ApproveTrip handles POST /admin/trips/:id/approve.
func (h *Handler) ApproveTrip(c *gin.Context) {
	h.moderateTrip(c, models.TripPublished, "trip.approve", "")
}

// RejectTrip handles POST /admin/trips/:id/reject.
func (h *Handler) RejectTrip(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "rejection reason is required")
		return
	}
	h.moderateTrip(c, models.TripRejected, "trip.reject", req.Reason)
}

func (h *Handler) moderateTrip(c *gin.Context, to models.TripStatus, action, reason string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid trip id")
		return
	}
	ctx := c.Request.Context()
	trip, err := h.tripRepo.GetByID(ctx, id)
	if err != nil {
		response.NotFound(c, "trip not found")
		return
	}
	if trip.Status != models.TripPendingApproval {
		response.Conflict(c, "trip is not awaiting review")
		return
	}
	if err := h.tripRepo.UpdateStatus(ctx, id, to, reason); err != nil {
		response.Internal(c, "failed to update trip")
		return
	}
	trip.Status = to
	trip.RejectionReason = reason
	h.audit(c, action, "trip", id, gin.H{"reason": reason})
	response.OK(c, trip)
}

// ListOrganizers handles GET /admin/organizers?kyc_status=pending.
func (h *Handler) ListOrganizers(c *gin.Context) {
	list, err := h.orgRepo.List(c.Request.Context(), c.Query("kyc_status"))
	if err != nil {
		response.Internal(c, "failed to list organizers")
		return
	}
	response.OK(c, list)
}

// ReviewKYC handles POST /admin/organizers/:id/kyc.
func (h *Handler) ReviewKYC(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organizer id")
		return
	}
	var req KYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status must be verified, rejected or suspended")
		return
	}
	ctx := c.Request.Context()
	o, err := h.orgRepo.GetByID(ctx, id)
	if err != nil {
		response.NotFound(c, "organizer not found")
		return
	}
	if err := h.orgRepo.UpdateKYC(ctx, id, models.KYCStatus(req.Status)); err != nil {
		response.Internal(c, "failed to update KYC status")
		return
	}
	o.KYCStatus = models.KYCStatus(req.Status)
	h.audit(c, "organizer.kyc", "organizer", id, gin.H{"status": req.Status})
	response.OK(c, o)
}

// ListPayouts handles GET /admin/payouts?status=pending.
func (h *Handler) ListPayouts(c *gin.Context) {
	list, err := h.payoutRepo.List(c.Request.Context(), models.PayoutStatus(c.Query("status")))
	if err != nil {
		response.Internal(c, "failed to list payouts")
		return
	}
	response.OK(c, list)
}

// PayPayout handles POST /admin/payouts/:id/pay: records the bank transfer
// against a pending payout.
func (h *Handler) PayPayout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payout id")
		return
	}
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "utr is required")
		return
	}
	ctx := c.Request.Context()
	p, err := h.payoutRepo.MarkPaid(ctx, id, req.UTR, req.InvoiceRef)
	if err != nil {
		response.Conflict(c, "payout not found or not pending")
		return
	}
	h.audit(c, "payout.pay", "payout", id, gin.H{"utr": req.UTR})
	h.notifyPayout(c, p)
	response.OK(c, p)
}

// FailPayout handles POST /admin/payouts/:id/fail: rejects a pending payout
// so the organizer can request the batch again.
func (h *Handler) FailPayout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payout id")
		return
	}
	var req FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "failure reason is required")
		return
	}
	p, err := h.payoutRepo.MarkFailed(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Conflict(c, "payout not found or not pending")
		return
	}
	h.audit(c, "payout.fail", "payout", id, gin.H{"reason": req.Reason})
	response.OK(c, p)
}

// RefundBooking handles POST /admin/bookings/:id/refund: credits the paid
// amount to the traveler's wallet and marks the refund processed, atomically.
func (h *Handler) RefundBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	ctx := c.Request.Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		response.Internal(c, "failed to start refund")
		return
	}
	defer tx.Rollback(ctx)

	b, err := h.bookingRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		response.NotFound(c, "booking not found")
		return
	}
	if b.Status != models.BookingCancelled || b.RefundStatus != models.RefundPending {
		response.Conflict(c, "booking has no pending refund")
		return
	}

	if err := h.bookingRepo.MarkRefundProcessed(ctx, tx, b.ID); err != nil {
		response.Internal(c, "failed to mark refund processed")
		return
	}
	if b.TotalPaise > 0 {
		err := h.walletRepo.Credit(ctx, tx, wallet.Entry{
			UserID:      b.UserID,
			AmountPaise: b.TotalPaise,
			Source:      models.WalletSourceRefund,
			BookingID:   &b.ID,
			Note:        "booking refund",
		})
		if err != nil {
			response.Internal(c, "failed to credit refund")
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("refund commit failed", zap.Error(err), zap.String("booking_id", id.String()))
		response.Internal(c, "failed to process refund")
		return
	}

	b.RefundStatus = models.RefundProcessed
	h.audit(c, "booking.refund", "booking", id, gin.H{"amount_paise": b.TotalPaise})
	response.OK(c, b)
}

// AuditLogs handles GET /admin/audit-logs.
func (h *Handler) AuditLogs(c *gin.Context) {
	list, err := h.repo.AuditLogs(c.Request.Context(), queryLimit(c, 100))
	if err != nil {
		response.Internal(c, "failed to list audit logs")
		return
	}
	response.OK(c, list)
}

// EmailLogs handles GET /admin/email-logs.
func (h *Handler) EmailLogs(c *gin.Context) {
	list, err := h.repo.EmailLogs(c.Request.Context(), queryLimit(c, 100))
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}

func (h *Handler) audit(c *gin.Context, action, entityType string, entityID uuid.UUID, detail any) {
	adminID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	if err := h.repo.Audit(c.Request.Context(), adminID, action, entityType, entityID, detail); err != nil {
		h.logger.Warn("audit append failed", zap.Error(err), zap.String("action", action))
	}
}

func (h *Handler) notifyPayout(c *gin.Context, p *models.Payout) {
	o, err := h.orgRepo.GetByID(c.Request.Context(), p.OrganizerID)
	if err != nil {
		return
	}
	err = h.jobs.EnqueuePayoutEmail(c.Request.Context(), queue.PayoutEmailPayload{
		PayoutID:       p.ID,
		RecipientEmail: o.ContactEmail,
		NetPaise:       p.NetPaise,
		UTR:            p.UTR,
	})
	if err != nil {
		h.logger.Warn("enqueue payout email failed", zap.Error(err), zap.String("payout_id", p.ID.String()))
	}
}

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 1 || n > 500 {
		return def
	}
	return n
}
