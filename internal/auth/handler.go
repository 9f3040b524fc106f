package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travonex/backend/config"
	"github.com/travonex/backend/internal/models"
	"github.com/travonex/backend/pkg/response"
	"github.com/travonex/backend/pkg/utils"
)

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	FullName     string `json:"full_name" binding:"required"`
	Phone        string `json:"phone"`
	Role         string `json:"role"` // optional, defaults to traveler
	ReferralCode string `json:"referral_code"`
}

// OTPSignupRequest is the body for POST /auth/otp-signup. The phone number
// arrives already verified by the external identity provider.
type OTPSignupRequest struct {
	Phone        string `json:"phone" binding:"required"`
	FullName     string `json:"full_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest is the body for POST /auth/login. Identifier is email or phone.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token        string            `json:"token"`
	User         models.UserPublic `json:"user"`
	RedirectPath string            `json:"redirect_path"`
}

// WalletCreditor grants referral rewards. Satisfied by wallet.Repository.
type WalletCreditor interface {
	CreditReferral(ctx context.Context, userID uuid.UUID, amountPaise int64, note string) error
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo     *Repository
	wallet   WalletCreditor
	jwt      *JWTService
	platform config.PlatformConfig
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, wallet WalletCreditor, jwt *JWTService, platform config.PlatformConfig, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, wallet: wallet, jwt: jwt, platform: platform, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleTraveler
	switch req.Role {
	case "", "traveler":
	case "organizer":
		role = models.RoleOrganizer
	default:
		response.BadRequest(c, "invalid role")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetByEmail(ctx, req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.createUser(ctx, CreateUserParams{
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
	}, req.ReferralCode)
	if err != nil {
		h.logger.Error("signup failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	h.respondWithToken(c, user, true)
}

// OTPSignup handles POST /auth/otp-signup for phone-verified account creation.
func (h *Handler) OTPSignup(c *gin.Context) {
	var req OTPSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetByPhone(ctx, req.Phone); err == nil {
		response.BadRequest(c, "phone already registered")
		return
	}

	user, err := h.createUser(ctx, CreateUserParams{
		Email:    req.Email,
		Phone:    req.Phone,
		FullName: req.FullName,
		Role:     models.RoleTraveler,
	}, req.ReferralCode)
	if err != nil {
		h.logger.Error("otp signup failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	h.respondWithToken(c, user, true)
}

// Login handles POST /auth/login. Accepts email or phone as identifier.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.repo.GetByEmail(ctx, req.Identifier)
	if err != nil {
		user, err = h.repo.GetByPhone(ctx, req.Identifier)
	}
	if err != nil || user.Password == "" || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	h.respondWithToken(c, user, false)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(ContextUserID).(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// List handles GET /admin/users.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

func (h *Handler) createUser(ctx context.Context, p CreateUserParams, referralCode string) (*models.User, error) {
	var referrer *models.User
	if referralCode != "" {
		if u, err := h.repo.GetByReferralCode(ctx, referralCode); err == nil {
			referrer = u
			p.ReferredBy = &u.ID
		}
	}

	code, err := utils.NewReferralCode()
	if err != nil {
		return nil, err
	}
	p.ReferralCode = code

	user, err := h.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	// Referral credits are best-effort; a failed credit must not lose the signup.
	if referrer != nil {
		if err := h.wallet.CreditReferral(ctx, user.ID, h.platform.ReferralCreditPaise, "signup referral bonus"); err != nil {
			h.logger.Warn("referral credit failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		}
		if err := h.wallet.CreditReferral(ctx, referrer.ID, h.platform.ReferrerCreditPaise, "referred "+user.Email); err != nil {
			h.logger.Warn("referrer credit failed", zap.Error(err), zap.String("user_id", referrer.ID.String()))
		}
		user.WalletBalance += h.platform.ReferralCreditPaise
	}
	return user, nil
}

func (h *Handler) respondWithToken(c *gin.Context, user *models.User, created bool) {
	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	resp := TokenResponse{Token: token, User: user.ToPublic(), RedirectPath: user.RedirectPath()}
	if created {
		response.Created(c, resp)
		return
	}
	response.OK(c, resp)
}
