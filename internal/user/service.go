// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"afyaclinic_backend/internal/common"
	"afyaclinic_backend/internal/config"
	"afyaclinic_backend/internal/mail"
	"afyaclinic_backend/internal/shared"
	"afyaclinic_backend/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceImplementation implements the shared.Service interface.
type ServiceImplementation struct {
	repo         Repository
	tokenService shared.TokenService
	mailer       mail.Sender
	cfg          *config.Config
	logger       *zap.Logger
}

var _ shared.Service = (*ServiceImplementation)(nil)

// NewService creates a new account service.
func NewService(
	repo Repository,
	tokenService shared.TokenService,
	mailer mail.Sender,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		tokenService: tokenService,
		mailer:       mailer,
		cfg:          cfg,
		logger:       logger.Named("UserService"),
	}
}

// Register runs the registration workflow for the given target role.
// Checks run in a fixed order and short-circuit on the first failure:
// required fields, email, phone, password strength, combined uniqueness.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.CreateUserRequest, role string) (*shared.User, error) {
	if !common.IsValidRole(role) {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown role %q.", role))
	}

	if req.Email == "" || req.Phone == "" || req.Password == "" || req.FullNames == "" {
		return nil, common.NewValidationAPIError("Email, phone, password, and full names are required.")
	}

	if !validation.IsValidEmail(req.Email, s.cfg.EmailCheckDeliverability) {
		return nil, common.NewValidationAPIError("Invalid email address.")
	}

	if !validation.IsValidCarrierPhoneInRegion(req.Phone, s.cfg.PhoneDefaultRegion) {
		return nil, common.NewValidationAPIError("Invalid phone number. Must be a valid Safaricom number.")
	}

	if !validation.ValidatePasswordStrength(req.Password) {
		return nil, common.NewValidationAPIError("Password must be at least 8 characters long, contain letters and numbers.")
	}

	phone := validation.NormalizePhone(req.Phone)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Fast path: a clean 400 before touching the hash. The database unique
	// constraints remain the authoritative guard; the repository maps a
	// commit-time violation to the same conflict error.
	exists, err := s.repo.ExistsByEmailOrPhone(ctx, email, phone)
	if err != nil {
		s.logger.Error("Failed uniqueness pre-check", zap.Error(err), zap.String("email", email))
		return nil, common.ErrInternalServer
	}
	if exists {
		return nil, common.ErrConflict
	}

	hashedPassword, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, common.ErrInternalServer
	}

	dbUser := &User{
		FullNames:    req.FullNames,
		Email:        &email,
		PhoneNumber:  &phone,
		PasswordHash: &hashedPassword,
		Role:         role,
		AuthProvider: "email",
	}
	if req.Gender != "" {
		gender := req.Gender
		dbUser.Gender = &gender
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, common.NewValidationAPIError("Invalid date of birth, expected YYYY-MM-DD.")
		}
		dbUser.DateOfBirth = &dob
	}
	if req.Address != "" {
		address := req.Address
		dbUser.Address = &address
	}

	if err := s.repo.Create(ctx, dbUser); err != nil {
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		s.logger.Error("Failed to create account", zap.Error(err), zap.String("email", email))
		return nil, common.ErrInternalServer
	}

	s.logger.Info("Account registered",
		zap.String("userID", dbUser.ID.String()),
		zap.String("role", role),
	)
	return DBToShared(dbUser), nil
}

// Login authenticates email/password credentials and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	invalidCredentials := common.ErrUnauthorized.WithDetails("Invalid email or password.")

	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, invalidCredentials
		}
		s.logger.Error("Error finding account during login", zap.Error(err), zap.String("email", email))
		return nil, nil, common.ErrInternalServer
	}

	if dbUser.PasswordHash == nil || *dbUser.PasswordHash == "" {
		// Federated-only identity; no password login configured.
		s.logger.Warn("Password login attempted on federated account", zap.String("userID", dbUser.ID.String()))
		return nil, nil, invalidCredentials
	}

	if !common.CheckPasswordHash(password, *dbUser.PasswordHash) {
		s.logger.Warn("Invalid password attempt", zap.String("userID", dbUser.ID.String()))
		return nil, nil, invalidCredentials
	}

	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(dbUser)
	if err != nil {
		s.logger.Error("Failed to generate access token on login", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return nil, nil, common.ErrInternalServer
	}

	tokenResponse := &shared.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}

	s.logger.Info("Login successful", zap.String("userID", dbUser.ID.String()))
	return DBToShared(dbUser), tokenResponse, nil
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// FindOrCreateOAuthUser resolves a federated profile to an account, creating a
// passwordless Patient account on first login.
func (s *ServiceImplementation) FindOrCreateOAuthUser(ctx context.Context, profile shared.OAuthUserProfile) (*shared.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, false, common.ErrProvider.WithDetails("Identity provider returned no email address.")
	}

	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return DBToShared(dbUser), false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Error finding account for OAuth profile", zap.Error(err), zap.String("email", email))
		return nil, false, common.ErrInternalServer
	}

	providerID := profile.ProviderID
	newUser := &User{
		FullNames:    profile.Name,
		Email:        &email,
		Role:         common.RolePatient,
		AuthProvider: profile.Provider,
	}
	if providerID != "" {
		newUser.ProviderID = &providerID
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Lost a race against a concurrent first login; the winner's row is ours.
			if existing, findErr := s.repo.FindByEmail(ctx, email); findErr == nil {
				return DBToShared(existing), false, nil
			}
		}
		s.logger.Error("Failed to auto-provision federated account", zap.Error(err), zap.String("email", email))
		return nil, false, common.ErrInternalServer
	}

	s.logger.Info("Federated account auto-provisioned",
		zap.String("userID", newUser.ID.String()),
		zap.String("provider", profile.Provider),
	)
	return DBToShared(newUser), true, nil
}

// RequestPasswordReset issues a reset token for the account and mails the
// reset link. An unknown email yields 404, matching the existing API contract
// even though it discloses account existence.
func (s *ServiceImplementation) RequestPasswordReset(ctx context.Context, email string) error {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("Email not found.")
		}
		s.logger.Error("Error finding account for password reset", zap.Error(err), zap.String("email", email))
		return common.ErrInternalServer
	}

	token, err := s.tokenService.GenerateResetToken(*dbUser.Email)
	if err != nil {
		s.logger.Error("Failed to generate reset token", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return common.ErrInternalServer
	}

	resetLink := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/reset-password/" + token
	if err := s.mailer.SendPasswordReset(ctx, *dbUser.Email, resetLink); err != nil {
		s.logger.Error("Failed to dispatch reset mail", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return common.ErrInternalServer
	}

	s.logger.Info("Password reset requested", zap.String("userID", dbUser.ID.String()))
	return nil
}

// ResetPassword redeems a reset token and overwrites the stored password.
// Expired, tampered and malformed tokens all fail with the same message.
// The 6-character minimum is deliberately weaker than the registration rule;
// it matches the established API contract.
func (s *ServiceImplementation) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokenService.VerifyResetToken(token)
	if err != nil {
		return common.ErrInvalidToken
	}

	if len(newPassword) < 6 {
		return common.NewValidationAPIError("Password must be at least 6 characters long.")
	}

	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("User not found.")
		}
		s.logger.Error("Error finding account during password reset", zap.Error(err))
		return common.ErrInternalServer
	}

	hashedPassword, err := common.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("Failed to hash new password", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return common.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, dbUser.ID, hashedPassword); err != nil {
		s.logger.Error("Failed to persist new password", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return common.ErrInternalServer
	}

	s.logger.Info("Password reset completed", zap.String("userID", dbUser.ID.String()))
	return nil
}
