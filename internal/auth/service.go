// File: internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"afyaclinic_backend/internal/config"
	"afyaclinic_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const tokenIssuer = "afyaclinic_backend"

// resetTokenPurpose is the fixed namespace baked into every password-reset
// token; access tokens can never be replayed as reset tokens or vice versa.
const resetTokenPurpose = "password-reset"

// JWTService mints and validates the application's signed tokens.
type JWTService struct {
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg *config.Config, logger *zap.Logger) shared.TokenService {
	return &JWTService{cfg: cfg, logger: logger.Named("JWTService"), now: time.Now}
}

// GenerateAccessToken mints a bearer token with subject, email and role claims
// and an absolute expiry 30 days out (configurable).
func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	now := s.now()
	expirationTime := now.Add(s.cfg.JWTAccessTokenExpiry)

	userEmail := ""
	if userData.GetEmail() != nil {
		userEmail = *userData.GetEmail()
	}

	claims := &shared.Claims{
		Email: userEmail,
		Role:  userData.GetRole(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userData.GetID().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateResetToken mints a self-contained password-reset token embedding the
// target email, valid for one hour (configurable).
func (s *JWTService) GenerateResetToken(email string) (string, error) {
	now := s.now()
	claims := &resetClaims{
		Purpose: resetTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.PasswordResetTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign reset token", zap.Error(err))
		return "", fmt.Errorf("could not sign reset token: %w", err)
	}
	return tokenString, nil
}

// VerifyResetToken checks signature, purpose and age and returns the embedded
// email. Expired, tampered and wrong-purpose tokens are indistinguishable to
// the caller.
func (s *JWTService) VerifyResetToken(tokenString string) (string, error) {
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("invalid reset token: %w", err)
	}
	if !token.Valid || claims.Purpose != resetTokenPurpose || claims.Subject == "" {
		return "", errors.New("invalid reset token claims")
	}
	return claims.Subject, nil
}
