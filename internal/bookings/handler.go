package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/travonex/backend/config"
	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/coupons"
	"github.com/travonex/backend/internal/fare"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/internal/payments"
	"github.com/travonex/backend/internal/trips"
	"github.com/travonex/backend/internal/wallet"
	"github.com/travonex/backend/pkg/queue"
	"github.com/travonex/backend/pkg/response"
)

// ErrFareMismatch is returned when the client's asserted total does not match
// the server-side fare computation.
var ErrFareMismatch = errors.New("posted total does not match computed fare")

// CreateRequest is the body for POST /bookings. TotalPaise is the client's
// assertion of what it was quoted; the server recomputes and must agree.
type CreateRequest struct {
	TripID     string            `json:"trip_id" binding:"required,uuid"`
	BatchID    string            `json:"batch_id" binding:"required,uuid"`
	OrderID    string            `json:"order_id" binding:"required"`
	Travelers  []models.Traveler `json:"travelers" binding:"required,min=1,dive"`
	CouponCode string            `json:"coupon_code"`
	UseWallet  bool              `json:"use_wallet"`
	TotalPaise int64             `json:"total_paise" binding:"min=0"`
}

// UserGetter loads users for confirmation emails.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Handler handles booking HTTP endpoints. Creation runs as one transaction so
// payment capture, the seat guard, coupon redemption, the wallet debit and the
// booking row commit or roll back together.
type Handler struct {
	pool       *pgxpool.Pool
	repo       *Repository
	tripRepo   *trips.Repository
	couponRepo *coupons.Repository
	walletRepo *wallet.Repository
	payRepo    *payments.Repository
	users      UserGetter
	jobs       *queue.Queue
	platform   config.PlatformConfig
	logger     *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(pool *pgxpool.Pool, repo *Repository, tripRepo *trips.Repository,
	couponRepo *coupons.Repository, walletRepo *wallet.Repository, payRepo *payments.Repository,
	users UserGetter, jobs *queue.Queue, platform config.PlatformConfig, logger *zap.Logger) *Handler {
	return &Handler{
		pool:       pool,
		repo:       repo,
		tripRepo:   tripRepo,
		couponRepo: couponRepo,
		walletRepo: walletRepo,
		payRepo:    payRepo,
		users:      users,
		jobs:       jobs,
		platform:   platform,
		logger:     logger,
	}
}

// Create handles POST /bookings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	tripID, _ := uuid.Parse(req.TripID)
	batchID, _ := uuid.Parse(req.BatchID)
	now := time.Now()

	trip, err := h.tripRepo.GetByID(ctx, tripID)
	if err != nil || trip.Status != models.TripPublished {
		response.NotFound(c, "trip not found")
		return
	}

	var couponDiscount int64
	if req.CouponCode != "" {
		cp, err := h.couponRepo.GetByCode(ctx, req.CouponCode)
		if err != nil || !cp.RedeemableAt(now) {
			response.BadRequest(c, "coupon not found or expired")
			return
		}
		couponDiscount = cp.DiscountPaise
	}

	var walletBalance int64
	if req.UseWallet {
		walletBalance, err = h.walletRepo.Balance(ctx, userID)
		if err != nil {
			response.Internal(c, "failed to load wallet balance")
			return
		}
	}

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		response.Internal(c, "failed to start booking")
		return
	}
	defer tx.Rollback(ctx)

	batch, err := h.tripRepo.GetBatchForUpdate(ctx, tx, batchID)
	if err != nil || batch.TripID != trip.ID {
		response.NotFound(c, "batch not found")
		return
	}
	if !batch.Bookable(now) {
		response.BadRequest(c, "batch is not open for booking")
		return
	}

	quote, err := fare.Compute(fare.Input{
		BasePricePaise:      batch.EffectivePricePaise(trip),
		TravelerCount:       len(req.Travelers),
		CouponDiscountPaise: couponDiscount,
		UseWallet:           req.UseWallet,
		WalletBalancePaise:  walletBalance,
		TaxPercent:          h.platform.TaxPercent,
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if quote.TotalPaise != req.TotalPaise {
		response.BadRequest(c, ErrFareMismatch.Error())
		return
	}

	payment, err := h.payRepo.Capture(ctx, tx, req.OrderID)
	if err != nil {
		if errors.Is(err, payments.ErrNotAuthorized) {
			response.Conflict(c, "payment is not verified for this order")
			return
		}
		h.logger.Error("payment capture failed", zap.Error(err), zap.String("order_id", req.OrderID))
		response.Internal(c, "failed to capture payment")
		return
	}
	if payment.UserID != userID || payment.BatchID != batch.ID || payment.AmountPaise != quote.TotalPaise {
		response.Conflict(c, "payment does not match this booking")
		return
	}

	if err := h.tripRepo.ReserveSeats(ctx, tx, batch.ID, len(req.Travelers)); err != nil {
		if errors.Is(err, trips.ErrSoldOut) {
			response.Conflict(c, "batch is sold out")
			return
		}
		response.Internal(c, "failed to reserve seats")
		return
	}

	booking := &models.Booking{
		UserID:              userID,
		TripID:              trip.ID,
		BatchID:             batch.ID,
		Travelers:           req.Travelers,
		SubtotalPaise:       quote.SubtotalPaise,
		CouponCode:          req.CouponCode,
		CouponDiscountPaise: quote.CouponDiscountPaise,
		WalletUsedPaise:     quote.WalletDiscountPaise,
		TaxPaise:            quote.TaxPaise,
		TotalPaise:          quote.TotalPaise,
		PaymentID:           &payment.ID,
		Status:              models.BookingConfirmed,
		RefundStatus:        models.RefundNone,
	}
	if err := h.repo.Create(ctx, tx, booking); err != nil {
		h.logger.Error("insert booking failed", zap.Error(err))
		response.Internal(c, "failed to create booking")
		return
	}

	if req.CouponCode != "" {
		if err := h.couponRepo.Redeem(ctx, tx, req.CouponCode); err != nil {
			response.Conflict(c, "coupon is no longer redeemable")
			return
		}
	}

	if quote.WalletDiscountPaise > 0 {
		err := h.walletRepo.Debit(ctx, tx, wallet.Entry{
			UserID:      userID,
			AmountPaise: quote.WalletDiscountPaise,
			Source:      models.WalletSourceBooking,
			BookingID:   &booking.ID,
			Note:        "applied to booking",
		})
		if err != nil {
			if errors.Is(err, wallet.ErrInsufficientBalance) {
				response.Conflict(c, "wallet balance changed, please retry")
				return
			}
			response.Internal(c, "failed to debit wallet")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("booking commit failed", zap.Error(err))
		response.Internal(c, "failed to create booking")
		return
	}

	h.enqueueFollowups(booking, trip)
	response.Created(c, booking)
}

// Cancel handles POST /bookings/:id/cancel. Repeated cancels are no-ops;
// completed bookings are immutable.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(auth.ContextUserRole).(string)
	ctx := c.Request.Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		response.Internal(c, "failed to start cancellation")
		return
	}
	defer tx.Rollback(ctx)

	booking, err := h.repo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		response.NotFound(c, "booking not found")
		return
	}
	if booking.UserID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not your booking")
		return
	}

	if booking.Status == models.BookingCancelled {
		response.OK(c, booking)
		return
	}
	if !booking.Cancellable() {
		response.Conflict(c, "booking cannot be cancelled in status "+string(booking.Status))
		return
	}

	if err := h.repo.UpdateStatus(ctx, tx, booking.ID, models.BookingCancelled, models.RefundPending); err != nil {
		response.Internal(c, "failed to cancel booking")
		return
	}
	if err := h.tripRepo.ReleaseSeats(ctx, tx, booking.BatchID, booking.SeatCount()); err != nil {
		response.Internal(c, "failed to release seats")
		return
	}
	// wallet portion goes straight back; the gateway amount follows the
	// admin-driven refund flow
	if booking.WalletUsedPaise > 0 {
		err := h.walletRepo.Credit(ctx, tx, wallet.Entry{
			UserID:      booking.UserID,
			AmountPaise: booking.WalletUsedPaise,
			Source:      models.WalletSourceRefund,
			BookingID:   &booking.ID,
			Note:        "wallet amount returned on cancellation",
		})
		if err != nil {
			response.Internal(c, "failed to return wallet amount")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("cancel commit failed", zap.Error(err))
		response.Internal(c, "failed to cancel booking")
		return
	}

	booking.Status = models.BookingCancelled
	booking.RefundStatus = models.RefundPending
	h.enqueueAccrual(booking)
	response.OK(c, booking)
}

// List handles GET /bookings (current user's bookings).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// Get handles GET /bookings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(auth.ContextUserRole).(string)

	booking, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "booking not found")
		return
	}
	if booking.UserID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not your booking")
		return
	}
	response.OK(c, booking)
}

func (h *Handler) enqueueFollowups(b *models.Booking, trip *models.Trip) {
	ctx := context.Background()
	if user, err := h.users.GetByID(ctx, b.UserID); err == nil {
		if err := h.jobs.EnqueueBookingEmail(ctx, queue.BookingEmailPayload{
			BookingID:      b.ID,
			RecipientEmail: user.Email,
			TripTitle:      trip.Title,
			TotalPaise:     b.TotalPaise,
		}); err != nil {
			h.logger.Warn("enqueue booking email failed", zap.Error(err), zap.String("booking_id", b.ID.String()))
		}
	}
	h.enqueueAccrual(b)
}

func (h *Handler) enqueueAccrual(b *models.Booking) {
	ctx := context.Background()
	if err := h.jobs.EnqueueBatchAccrual(ctx, queue.BatchAccrualPayload{
		BatchID: b.BatchID,
		TripID:  b.TripID,
	}); err != nil {
		h.logger.Warn("enqueue accrual failed", zap.Error(err), zap.String("batch_id", b.BatchID.String()))
	}
}
