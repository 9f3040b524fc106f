package organizers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/pkg/response"
)

// RegisterRequest is the body for POST /organizers.
type RegisterRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
}

// UpdateRequest is the body for PUT /organizers/me. KYC fields (PAN, GSTIN,
// bank details) reset verification to pending when changed.
type UpdateRequest struct {
	BusinessName    *string `json:"business_name"`
	ContactEmail    *string `json:"contact_email"`
	ContactPhone    *string `json:"contact_phone"`
	Address         *string `json:"address"`
	PAN             *string `json:"pan"`
	GSTIN           *string `json:"gstin"`
	BankAccount     *string `json:"bank_account"`
	BankIFSC        *string `json:"bank_ifsc"`
	AgreementSigned *bool   `json:"agreement_signed"`
}

// Handler handles organizer HTTP endpoints.
type Handler struct {
	repo        *Repository
	recentLimit int
	logger      *zap.Logger
}

// NewHandler creates an organizers handler.
func NewHandler(repo *Repository, recentLimit int, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, recentLimit: recentLimit, logger: logger}
}

// Register handles POST /organizers: creates the organizer profile for the
// current user with KYC incomplete.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	if _, err := h.repo.GetByUserID(ctx, userID); err == nil {
		response.Conflict(c, "organizer profile already exists")
		return
	}

	o := &models.Organizer{
		UserID:       userID,
		BusinessName: req.BusinessName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		KYCStatus:    models.KYCIncomplete,
	}
	if err := h.repo.Create(ctx, o); err != nil {
		h.logger.Error("create organizer failed", zap.Error(err))
		response.Internal(c, "failed to create organizer profile")
		return
	}
	response.Created(c, o)
}

// Me handles GET /organizers/me.
func (h *Handler) Me(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	response.OK(c, o)
}

// Update handles PUT /organizers/me.
func (h *Handler) Update(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	kycChanged := false
	setStr := func(dst *string, v *string, kyc bool) {
		if v != nil && *v != *dst {
			*dst = *v
			if kyc {
				kycChanged = true
			}
		}
	}
	setStr(&o.BusinessName, req.BusinessName, false)
	setStr(&o.ContactEmail, req.ContactEmail, false)
	setStr(&o.ContactPhone, req.ContactPhone, false)
	setStr(&o.Address, req.Address, false)
	setStr(&o.PAN, req.PAN, true)
	setStr(&o.GSTIN, req.GSTIN, true)
	setStr(&o.BankAccount, req.BankAccount, true)
	setStr(&o.BankIFSC, req.BankIFSC, true)
	if req.AgreementSigned != nil {
		o.AgreementSigned = *req.AgreementSigned
	}

	if kycChanged && o.KYCStatus == models.KYCVerified {
		o.KYCStatus = models.KYCPending
	}

	if err := h.repo.Update(c.Request.Context(), o); err != nil {
		h.logger.Error("update organizer failed", zap.Error(err))
		response.Internal(c, "failed to update organizer profile")
		return
	}
	response.OK(c, o)
}

// SubmitKYC handles POST /organizers/me/kyc: moves incomplete/rejected
// profiles into the review queue.
func (h *Handler) SubmitKYC(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	switch o.KYCStatus {
	case models.KYCIncomplete, models.KYCRejected:
	default:
		response.Conflict(c, "kyc already "+string(o.KYCStatus))
		return
	}
	if o.PAN == "" || o.BankAccount == "" || o.BankIFSC == "" {
		response.BadRequest(c, "pan and bank details are required before kyc submission")
		return
	}
	if err := h.repo.UpdateKYC(c.Request.Context(), o.ID, models.KYCPending); err != nil {
		response.Internal(c, "failed to submit kyc")
		return
	}
	o.KYCStatus = models.KYCPending
	response.OK(c, o)
}

// Dashboard handles GET /organizers/me/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	stats, err := h.repo.Dashboard(c.Request.Context(), o.ID, h.recentLimit)
	if err != nil {
		h.logger.Error("organizer dashboard failed", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	response.OK(c, stats)
}

func (h *Handler) currentOrganizer(c *gin.Context) (*models.Organizer, bool) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	o, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "organizer profile not found")
		return nil, false
	}
	return o, true
}
