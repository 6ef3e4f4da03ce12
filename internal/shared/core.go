// File: internal/shared/core.go
package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is the cross-package view of an account, stripped of persistence details.
type User struct {
	ID          uuid.UUID
	FullNames   string
	Email       *string
	Phone       *string
	Role        string
	Gender      *string
	DateOfBirth *time.Time
	Address     *string
	AuthProvider string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserRequest carries the validated registration input into the service layer.
type CreateUserRequest struct {
	Email       string
	Phone       string
	Password    string
	FullNames   string
	Gender      string
	DateOfBirth string
	Address     string
}

// TokenResponse represents the response containing the access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims represents the JWT claims structure for access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() *string
	GetRole() string
}

// TokenService defines the interface for signed-token operations.
type TokenService interface {
	// GenerateAccessToken mints a 30-day bearer token carrying sub, email and role claims.
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
	// GenerateResetToken mints a short-lived token scoped to password resets for the given email.
	GenerateResetToken(email string) (string, error)
	// VerifyResetToken checks signature, purpose and age, returning the embedded email.
	VerifyResetToken(tokenString string) (string, error)
}

// Service defines the interface for account-related business logic.
type Service interface {
	Register(ctx context.Context, req CreateUserRequest, role string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, *TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	FindOrCreateOAuthUser(ctx context.Context, profile OAuthUserProfile) (*User, bool, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// OAuthUserProfile holds common profile data from OAuth providers.
type OAuthUserProfile struct {
	Provider      string
	ProviderID    string
	Email         string
	Name          string
	EmailVerified bool
}
