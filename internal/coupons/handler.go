package coupons

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/pkg/response"
)

// ValidateRequest is the body for POST /coupons/validate.
type ValidateRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateRequest is the body for POST /admin/coupons.
type CreateRequest struct {
	Code          string `json:"code" binding:"required"`
	DiscountPaise int64  `json:"discount_paise" binding:"required,min=1"`
	MaxUses       int    `json:"max_uses" binding:"min=0"`
	ExpiresAt     string `json:"expires_at" binding:"required"`
}

// Handler handles coupon HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a coupons handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Validate handles POST /coupons/validate. Expired, exhausted and unknown
// codes all answer 404 so callers cannot probe which codes exist.
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cp, err := h.repo.GetByCode(c.Request.Context(), req.Code)
	if err != nil || !cp.RedeemableAt(time.Now()) {
		response.NotFound(c, "coupon not found or expired")
		return
	}
	response.OK(c, gin.H{"code": cp.Code, "discount_paise": cp.DiscountPaise})
}

// Create handles POST /admin/coupons.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		response.BadRequest(c, "invalid expires_at")
		return
	}
	cp := &models.Coupon{
		Code:          req.Code,
		DiscountPaise: req.DiscountPaise,
		MaxUses:       req.MaxUses,
		ExpiresAt:     expires,
	}
	if err := h.repo.Create(c.Request.Context(), cp); err != nil {
		response.Conflict(c, "coupon code already exists")
		return
	}
	response.Created(c, cp)
}

// List handles GET /admin/coupons.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list coupons")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /admin/coupons/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete coupon")
		return
	}
	response.NoContent(c)
}
