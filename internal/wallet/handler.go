package wallet

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travonex/backend/internal/auth"
	"github.com/travonex/backend/pkg/response"
)

// Handler handles wallet HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a wallet handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Get handles GET /wallet. Returns balance plus the transaction ledger, newest first.
func (h *Handler) Get(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	balance, err := h.repo.Balance(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load wallet")
		return
	}
	txns, err := h.repo.Transactions(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load wallet transactions")
		return
	}
	response.OK(c, gin.H{"balance_paise": balance, "transactions": txns})
}
