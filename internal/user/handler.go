// File: internal/user/handler.go
package user

import (
	"errors"

	"afyaclinic_backend/internal/common"
	"afyaclinic_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for account registration.
type Handler struct {
	userService shared.Service
	logger      *zap.Logger
}

// NewHandler creates a new account handler.
func NewHandler(userService shared.Service, logger *zap.Logger) *Handler {
	return &Handler{
		userService: userService,
		logger:      logger.Named("UserHandler"),
	}
}

// RegisterRoutes sets up the registration routes. Self-registration is public
// and always yields a Patient; staff registration sits behind the admin gate.
func (h *Handler) RegisterRoutes(router *gin.Engine, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	router.POST("/register", h.RegisterPatient)

	admin := router.Group("/admin")
	admin.Use(authMW, adminMW)
	{
		admin.POST("/register-admin", h.registerWithRole(common.RoleAdmin))
		admin.POST("/register-doctor", h.registerWithRole(common.RoleDoctor))
		admin.POST("/register-nurse", h.registerWithRole(common.RoleNurse))
		admin.POST("/register-receptionist", h.registerWithRole(common.RoleReceptionist))
	}
}

// RegisterPatient handles public self-registration.
func (h *Handler) RegisterPatient(c *gin.Context) {
	h.register(c, common.RolePatient)
}

func (h *Handler) registerWithRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.register(c, role)
	}
}

func (h *Handler) register(c *gin.Context, role string) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	createdUser, err := h.userService.Register(c.Request.Context(), shared.CreateUserRequest{
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		FullNames:   req.FullNames,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	}, role)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "User registered successfully.", ToUserResponse(createdUser))
}
