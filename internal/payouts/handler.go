package payouts

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/travonex/backend/config"
	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/internal/organizers"
	"github.com/travonex/backend/pkg/response"
)

// RequestPayout is the body for POST /payouts.
type RequestPayout struct {
	BatchID string `json:"batch_id" binding:"required,uuid"`
}

// Handler handles organizer payout endpoints. Admin settlement lives with the
// admin handlers.
type Handler struct {
	repo     *Repository
	orgRepo  *organizers.Repository
	platform config.PlatformConfig
	logger   *zap.Logger
}

// NewHandler creates a payouts handler.
func NewHandler(repo *Repository, orgRepo *organizers.Repository, platform config.PlatformConfig, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgRepo: orgRepo, platform: platform, logger: logger}
}

// Eligible handles GET /payouts/eligible: ended batches with settleable
// revenue and no live payout, with the commission split applied.
func (h *Handler) Eligible(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	if !o.CanRequestPayout() {
		response.Forbidden(c, "KYC verification required before requesting payouts")
		return
	}
	list, err := h.repo.EligibleBatches(c.Request.Context(), o.ID)
	if err != nil {
		response.Internal(c, "failed to list eligible batches")
		return
	}
	for i := range list {
		list[i].CommissionPaise, list[i].NetPaise = Split(list[i].GrossPaise, h.platform.CommissionPercent)
	}
	response.OK(c, list)
}

// Request handles POST /payouts: freezes the batch revenue split into a
// pending payout row.
func (h *Handler) Request(c *gin.Context) {
	var req RequestPayout
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	if !o.CanRequestPayout() {
		response.Forbidden(c, "KYC verification required before requesting payouts")
		return
	}

	batchID, _ := uuid.Parse(req.BatchID)
	rev, err := h.repo.Revenue(c.Request.Context(), o.ID, batchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "batch not found or not yet completed")
			return
		}
		response.Internal(c, "failed to compute batch revenue")
		return
	}
	if rev.GrossPaise <= 0 {
		response.BadRequest(c, "batch has no settleable revenue")
		return
	}

	commission, net := Split(rev.GrossPaise, h.platform.CommissionPercent)
	payout := &models.Payout{
		OrganizerID:     o.ID,
		TripID:          rev.TripID,
		BatchID:         rev.BatchID,
		GrossPaise:      rev.GrossPaise,
		CommissionPaise: commission,
		NetPaise:        net,
		Status:          models.PayoutPending,
	}
	if err := h.repo.Create(c.Request.Context(), payout); err != nil {
		if errors.Is(err, ErrAlreadyRequested) {
			response.Conflict(c, "a payout for this batch is already pending or paid")
			return
		}
		h.logger.Error("create payout failed", zap.Error(err), zap.String("batch_id", batchID.String()))
		response.Internal(c, "failed to create payout")
		return
	}
	response.Created(c, payout)
}

// List handles GET /payouts: the organizer's payout history.
func (h *Handler) List(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByOrganizer(c.Request.Context(), o.ID)
	if err != nil {
		response.Internal(c, "failed to list payouts")
		return
	}
	response.OK(c, list)
}

func (h *Handler) currentOrganizer(c *gin.Context) (*models.Organizer, bool) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	o, err := h.orgRepo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "organizer profile not found")
		return nil, false
	}
	return o, true
}
