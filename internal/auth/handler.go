// File: internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"
	"time"

	"afyaclinic_backend/internal/common"
	"afyaclinic_backend/internal/config"
	"afyaclinic_backend/internal/shared"
	"afyaclinic_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// LoginRequest carries password-login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest carries the email a reset link should be sent to.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries the replacement password; the token travels in
// the URL path.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the payload returned by password and federated logins.
type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresAt   string            `json:"expires_at"`
	User        user.UserResponse `json:"user"`
}

// Handler handles HTTP requests for authentication.
type Handler struct {
	cfg          *config.Config
	userService  shared.Service
	oauthService OAuthService
	logger       *zap.Logger
}

// NewHandler creates a new authentication handler.
func NewHandler(cfg *config.Config, userService shared.Service, oauthService OAuthService, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:          cfg,
		userService:  userService,
		oauthService: oauthService,
		logger:       logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the authentication routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/login/google", h.GoogleLogin)
	router.GET("/callback/google", h.GoogleCallback)
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/reset-password/:token", h.ResetPassword)
}

// Login handles password authentication.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	appUser, tokenResp, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	setSessionCookie(c, h.cfg, tokenResp.AccessToken)
	common.RespondOK(c, "Login successful.", LoginResponse{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   tokenResp.ExpiresAt.UTC().Format(time.RFC3339),
		User:        user.ToUserResponse(appUser),
	})
}

// Logout clears the session cookie. Bearer tokens are not tracked server-side,
// so the response is a plain acknowledgement.
func (h *Handler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cfg)
	common.RespondOK(c, "Logged out successfully.", nil)
}

// GoogleLogin redirects the browser to the provider consent screen.
func (h *Handler) GoogleLogin(c *gin.Context) {
	url, err := h.oauthService.GetGoogleLoginURL(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes the federated login after provider consent.
func (h *Handler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	appUser, tokenResp, err := h.oauthService.HandleGoogleCallback(c, code, state)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Login successful.", LoginResponse{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   tokenResp.ExpiresAt.UTC().Format(time.RFC3339),
		User:        user.ToUserResponse(appUser),
	})
}

// ForgotPassword sends a password reset link to the given email.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Password reset link sent to your email.", nil)
}

// ResetPassword redeems a reset token from the URL path and sets a new password.
func (h *Handler) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		common.RespondWithError(c, common.ErrInvalidToken)
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Password has been reset successfully.", nil)
}
