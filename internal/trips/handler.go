package trips

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/internal/organizers"
	"github.com/travonex/backend/pkg/response"
	"github.com/travonex/backend/pkg/utils"
)

// CreateRequest is the body for POST /trips.
type CreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location" binding:"required"`
	PricePaise  int64  `json:"price_paise" binding:"required,min=0"`
}

// UpdateRequest is the body for PUT /trips/:id.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	PricePaise  *int64  `json:"price_paise"`
}

// BatchRequest is the body for POST /trips/:id/batches and PUT /trips/:id/batches/:batchId.
type BatchRequest struct {
	StartDate          string `json:"start_date" binding:"required"`
	EndDate            string `json:"end_date" binding:"required"`
	Capacity           int    `json:"capacity" binding:"required,min=1"`
	PriceOverridePaise *int64 `json:"price_override_paise"`
	Status             string `json:"status"`
}

// Handler handles trip HTTP endpoints.
type Handler struct {
	repo    *Repository
	orgRepo *organizers.Repository
	logger  *zap.Logger
}

// NewHandler creates a trips handler.
func NewHandler(repo *Repository, orgRepo *organizers.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgRepo: orgRepo, logger: logger}
}

// List handles GET /trips: published trips only, with optional location/q filters.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListPublished(c.Request.Context(), c.Query("location"), c.Query("q"))
	if err != nil {
		response.Internal(c, "failed to list trips")
		return
	}
	response.OK(c, list)
}

// GetBySlug handles GET /trips/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	t, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil || t.Status != models.TripPublished {
		response.NotFound(c, "trip not found")
		return
	}
	response.OK(c, t)
}

// ListMine handles GET /organizers/me/trips.
func (h *Handler) ListMine(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByOrganizer(c.Request.Context(), o.ID)
	if err != nil {
		response.Internal(c, "failed to list trips")
		return
	}
	response.OK(c, list)
}

// Create handles POST /trips (organizer). New trips start as drafts.
func (h *Handler) Create(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	t := &models.Trip{
		OrganizerID: o.ID,
		Title:       req.Title,
		Slug:        utils.Slugify(req.Title),
		Description: req.Description,
		Location:    req.Location,
		PricePaise:  req.PricePaise,
		Status:      models.TripDraft,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		// slug collisions get a random suffix rather than an error
		if !isUniqueViolation(err) {
			h.logger.Error("create trip failed", zap.Error(err))
			response.Internal(c, "failed to create trip")
			return
		}
		t.Slug = t.Slug + "-" + uuid.New().String()[:8]
		if err := h.repo.Create(c.Request.Context(), t); err != nil {
			h.logger.Error("create trip failed", zap.Error(err))
			response.Internal(c, "failed to create trip")
			return
		}
	}
	response.Created(c, t)
}

// Update handles PUT /trips/:id (organizer). Editing a published trip drops
// it back to pending approval.
func (h *Handler) Update(c *gin.Context) {
	t, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	if !t.Editable() {
		response.Conflict(c, "trip is not editable in status "+string(t.Status))
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Title != nil {
		t.Title = *req.Title
		t.Slug = utils.Slugify(*req.Title)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Location != nil {
		t.Location = *req.Location
	}
	if req.PricePaise != nil {
		if *req.PricePaise < 0 {
			response.BadRequest(c, "price must be non-negative")
			return
		}
		t.PricePaise = *req.PricePaise
	}
	if t.Status == models.TripPublished {
		t.Status = models.TripPendingApproval
	}
	if err := h.repo.Update(c.Request.Context(), t); err != nil {
		h.logger.Error("update trip failed", zap.Error(err))
		response.Internal(c, "failed to update trip")
		return
	}
	response.OK(c, t)
}

// Submit handles POST /trips/:id/submit: draft/rejected/unlisted -> pending approval.
// Requires verified KYC and a signed vendor agreement.
func (h *Handler) Submit(c *gin.Context) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return
	}
	if !o.CanPublish() {
		response.Forbidden(c, "kyc verification and signed agreement required to publish trips")
		return
	}
	t, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	switch t.Status {
	case models.TripDraft, models.TripRejected, models.TripUnlisted:
	default:
		response.Conflict(c, "trip cannot be submitted from status "+string(t.Status))
		return
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), t.ID, models.TripPendingApproval, ""); err != nil {
		response.Internal(c, "failed to submit trip")
		return
	}
	t.Status = models.TripPendingApproval
	response.OK(c, t)
}

// Unlist handles POST /trips/:id/unlist: published -> unlisted.
func (h *Handler) Unlist(c *gin.Context) {
	t, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	if t.Status != models.TripPublished {
		response.Conflict(c, "only published trips can be unlisted")
		return
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), t.ID, models.TripUnlisted, ""); err != nil {
		response.Internal(c, "failed to unlist trip")
		return
	}
	t.Status = models.TripUnlisted
	response.OK(c, t)
}

// CreateBatch handles POST /trips/:id/batches (organizer).
func (h *Handler) CreateBatch(c *gin.Context) {
	t, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	b, ok := h.bindBatch(c)
	if !ok {
		return
	}
	b.TripID = t.ID
	if err := h.repo.CreateBatch(c.Request.Context(), b); err != nil {
		h.logger.Error("create batch failed", zap.Error(err))
		response.Internal(c, "failed to create batch")
		return
	}
	response.Created(c, b)
}

// UpdateBatch handles PUT /trips/:id/batches/:batchId (organizer).
func (h *Handler) UpdateBatch(c *gin.Context) {
	t, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		response.BadRequest(c, "invalid batch id")
		return
	}
	existing, err := h.repo.GetBatch(c.Request.Context(), batchID)
	if err != nil || existing.TripID != t.ID {
		response.NotFound(c, "batch not found")
		return
	}
	b, ok := h.bindBatch(c)
	if !ok {
		return
	}
	b.ID = existing.ID
	b.TripID = t.ID
	if err := h.repo.UpdateBatch(c.Request.Context(), b); err != nil {
		response.BadRequest(c, "failed to update batch: "+err.Error())
		return
	}
	updated, _ := h.repo.GetBatch(c.Request.Context(), b.ID)
	response.OK(c, updated)
}

func (h *Handler) bindBatch(c *gin.Context) (*models.TripBatch, bool) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return nil, false
	}
	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		response.BadRequest(c, "invalid start_date")
		return nil, false
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		response.BadRequest(c, "invalid end_date")
		return nil, false
	}
	if !end.After(start) {
		response.BadRequest(c, "end_date must be after start_date")
		return nil, false
	}
	status := models.BatchActive
	if req.Status == string(models.BatchInactive) {
		status = models.BatchInactive
	}
	return &models.TripBatch{
		StartDate:          start,
		EndDate:            end,
		Capacity:           req.Capacity,
		PriceOverridePaise: req.PriceOverridePaise,
		Status:             status,
	}, true
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

func (h *Handler) ownedTrip(c *gin.Context) (*models.Trip, bool) {
	o, ok := h.currentOrganizer(c)
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid trip id")
		return nil, false
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "trip not found")
		return nil, false
	}
	if t.OrganizerID != o.ID {
		response.Forbidden(c, "not your trip")
		return nil, false
	}
	return t, true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
