package public

import (
	"errors"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/http/response"
	"github.com/facturio/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the client portal login payload.
type LoginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// Login authenticates a client portal account.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(service.UserLoginInput{
		Email:       req.Email,
		Password:    req.Password,
		CaptchaID:   req.CaptchaID,
		CaptchaCode: req.CaptchaCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCaptchaRequired), errors.Is(err, service.ErrCaptchaInvalid):
			respondError(c, response.CodeBadRequest, "error.captcha_invalid", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, response.CodeForbidden, "error.account_disabled", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			requestLog(c).Warnw("user_login_failed", "email", req.Email, "client_ip", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "error.login_failed", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("user_login_success", "user_id", user.ID)
	response.Success(c, gin.H{
		"token":       token,
		"expires_at":  expiresAt.Unix(),
		"destination": service.RoleDestination(constants.RoleClient),
		"user": gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"locale":       user.Locale,
		},
	})
}

// Captcha issues an image captcha challenge for the login form.
func (h *Handler) Captcha(c *gin.Context) {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		response.Success(c, gin.H{"enabled": false})
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"enabled":      true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}

// Destination resolves the portal landing path for the authenticated role.
func (h *Handler) Destination(c *gin.Context) {
	response.Success(c, gin.H{
		"role":        constants.RoleClient,
		"destination": service.RoleDestination(constants.RoleClient),
	})
}

// Profile returns the authenticated client's account.
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserRepo.GetByID(userID)
	if err != nil || user == nil {
		respondError(c, response.CodeUnauthorized, "error.token_invalid", err)
		return
	}
	response.Success(c, user)
}
