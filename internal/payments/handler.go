package payments

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travonex/backend/config"
	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/coupons"
	"github.com/travonex/backend/internal/fare"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/internal/trips"
	"github.com/travonex/backend/internal/wallet"
	"github.com/travonex/backend/pkg/response"
)

// CreateOrderRequest is the body for POST /payments/create-order. The fare is
// recomputed here from trusted state; the client never posts an amount.
type CreateOrderRequest struct {
	TripID        string `json:"trip_id" binding:"required,uuid"`
	BatchID       string `json:"batch_id" binding:"required,uuid"`
	TravelerCount int    `json:"traveler_count" binding:"required,min=1"`
	CouponCode    string `json:"coupon_code"`
	UseWallet     bool   `json:"use_wallet"`
}

// VerifyRequest is the body for POST /payments/verify.
type VerifyRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// Handler handles payment HTTP endpoints.
type Handler struct {
	repo       *Repository
	tripRepo   *trips.Repository
	couponRepo *coupons.Repository
	walletRepo *wallet.Repository
	gateway    *RazorpayClient
	keyID      string
	platform   config.PlatformConfig
	logger     *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(repo *Repository, tripRepo *trips.Repository, couponRepo *coupons.Repository,
	walletRepo *wallet.Repository, gateway *RazorpayClient, keyID string,
	platform config.PlatformConfig, logger *zap.Logger) *Handler {
	return &Handler{
		repo:       repo,
		tripRepo:   tripRepo,
		couponRepo: couponRepo,
		walletRepo: walletRepo,
		gateway:    gateway,
		keyID:      keyID,
		platform:   platform,
		logger:     logger,
	}
}

// CreateOrder handles POST /payments/create-order.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	tripID, _ := uuid.Parse(req.TripID)
	batchID, _ := uuid.Parse(req.BatchID)

	trip, err := h.tripRepo.GetByID(ctx, tripID)
	if err != nil || trip.Status != models.TripPublished {
		response.NotFound(c, "trip not found")
		return
	}
	batch, err := h.tripRepo.GetBatch(ctx, batchID)
	if err != nil || batch.TripID != trip.ID {
		response.NotFound(c, "batch not found")
		return
	}
	now := time.Now()
	if !batch.Bookable(now) {
		response.BadRequest(c, "batch is not open for booking")
		return
	}
	if batch.AvailableSlots() < req.TravelerCount {
		response.Conflict(c, "not enough seats available")
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

	quote, err := fare.Compute(fare.Input{
		BasePricePaise:      batch.EffectivePricePaise(trip),
		TravelerCount:       req.TravelerCount,
		CouponDiscountPaise: couponDiscount,
		UseWallet:           req.UseWallet,
		WalletBalancePaise:  walletBalance,
		TaxPercent:          h.platform.TaxPercent,
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	receipt := uuid.New().String()

	// Razorpay rejects zero-amount orders, so a fully wallet-covered quote
	// skips the gateway and is recorded as authorized immediately.
	if quote.TotalPaise == 0 {
		p := &models.Payment{
			UserID:          userID,
			TripID:          trip.ID,
			BatchID:         batch.ID,
			ProviderOrderID: "wallet_" + receipt,
			AmountPaise:     0,
			Currency:        "INR",
			Status:          models.PaymentStatusAuthorized,
		}
		if err := h.repo.Create(ctx, p); err != nil {
			h.logger.Error("persist payment failed", zap.Error(err), zap.String("order_id", p.ProviderOrderID))
			response.Internal(c, "failed to record payment")
			return
		}
		response.Created(c, gin.H{
			"order_id":    p.ProviderOrderID,
			"wallet_only": true,
			"quote":       quote,
		})
		return
	}

	order, err := h.gateway.CreateOrder(ctx, quote.TotalPaise, "INR", receipt)
	if err != nil {
		if errors.Is(err, ErrAmountBelowMinimum) {
			response.BadRequest(c, "payable amount is below the gateway minimum of 100 paise")
			return
		}
		h.logger.Error("gateway order failed", zap.Error(err))
		response.ServiceUnavailable(c, "payment gateway unavailable")
		return
	}

	p := &models.Payment{
		UserID:          userID,
		TripID:          trip.ID,
		BatchID:         batch.ID,
		ProviderOrderID: order.ID,
		AmountPaise:     quote.TotalPaise,
		Currency:        order.Currency,
		Status:          models.PaymentStatusCreated,
	}
	if err := h.repo.Create(ctx, p); err != nil {
		h.logger.Error("persist payment failed", zap.Error(err), zap.String("order_id", order.ID))
		response.Internal(c, "failed to record payment")
		return
	}

	response.Created(c, gin.H{
		"order_id": order.ID,
		"key_id":   h.keyID,
		"quote":    quote,
	})
}

// Verify handles POST /payments/verify. Checks the gateway callback signature
// and marks the payment authorized; booking creation happens separately and
// requires the authorized payment.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	if _, err := h.repo.GetByOrderID(ctx, req.OrderID); err != nil {
		response.NotFound(c, "order not found")
		return
	}

	if !h.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		_ = h.repo.MarkFailed(ctx, req.OrderID)
		response.OK(c, gin.H{"valid": false})
		return
	}

	if err := h.repo.MarkAuthorized(ctx, req.OrderID, req.PaymentID); err != nil {
		h.logger.Error("mark authorized failed", zap.Error(err), zap.String("order_id", req.OrderID))
		response.Internal(c, "failed to record verification")
		return
	}
	response.OK(c, gin.H{"valid": true})
}
