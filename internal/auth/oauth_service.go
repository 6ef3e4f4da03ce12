// File: internal/auth/oauth_service.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"afyaclinic_backend/internal/common"
	"afyaclinic_backend/internal/config"
	"afyaclinic_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OAuthProvider represents an OAuth provider type.
type OAuthProvider string

const ProviderGoogle OAuthProvider = "google"

// OAuthService defines the interface for the federation workflow.
type OAuthService interface {
	GetGoogleLoginURL(c *gin.Context) (string, error)
	HandleGoogleCallback(c *gin.Context, code, state string) (*shared.User, *shared.TokenResponse, error)
}

type oauthService struct {
	cfg          *config.Config
	userService  shared.Service
	tokenService shared.TokenService
	logger       *zap.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(
	cfg *config.Config,
	userService shared.Service,
	tokenService shared.TokenService,
	logger *zap.Logger,
) OAuthService {
	return &oauthService{
		cfg:          cfg,
		userService:  userService,
		tokenService: tokenService,
		logger:       logger.Named("OAuthService"),
	}
}

// GetGoogleLoginURL generates a fresh state value, stores it in the state
// cookie and returns the provider authorization URL.
func (s *oauthService) GetGoogleLoginURL(c *gin.Context) (string, error) {
	state, err := generateAndSetOAuthState(c, s.cfg)
	if err != nil {
		s.logger.Error("Failed to generate OAuth state", zap.Error(err))
		return "", common.ErrInternalServer
	}
	googleCfg := getGoogleOAuthConfig(s.cfg)
	return googleCfg.AuthCodeURL(state), nil
}

// HandleGoogleCallback processes the provider callback. Each step returns a
// typed error: CSRF rejection before anything else, provider errors for
// exchange/userinfo failures, internal errors for everything unexpected.
func (s *oauthService) HandleGoogleCallback(c *gin.Context, code, state string) (*shared.User, *shared.TokenResponse, error) {
	storedState, err := consumeOAuthCookie(c, s.cfg, s.cfg.OAuthStateCookieName)
	if err != nil || storedState == "" || state == "" || state != storedState {
		s.logger.Warn("OAuth state mismatch",
			zap.Bool("cookie_present", err == nil),
			zap.Bool("state_present", state != ""),
		)
		return nil, nil, common.ErrCSRF
	}

	// The provider round trip runs under its own deadline; the flow has no
	// partial results, so a timeout fails the whole callback.
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.OAuthProviderTimeout)
	defer cancel()

	googleCfg := getGoogleOAuthConfig(s.cfg)
	token, err := googleCfg.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("Failed to exchange authorization code", zap.Error(err))
		return nil, nil, common.ErrProvider.WithDetails("Could not exchange authorization code.")
	}

	profile, err := s.fetchGoogleProfile(ctx, googleCfg, token)
	if err != nil {
		return nil, nil, err
	}

	appUser, created, err := s.userService.FindOrCreateOAuthUser(c.Request.Context(), *profile)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, nil, err
		}
		s.logger.Error("Failed to resolve federated account", zap.Error(err))
		return nil, nil, common.ErrInternalServer
	}

	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(&tokenUserAdapter{appUser})
	if err != nil {
		s.logger.Error("Failed to generate access token after federation", zap.Error(err), zap.String("userID", appUser.ID.String()))
		return nil, nil, common.ErrInternalServer
	}

	setSessionCookie(c, s.cfg, accessToken)

	s.logger.Info("Google login successful",
		zap.String("userID", appUser.ID.String()),
		zap.Bool("provisioned", created),
	)
	return appUser, &shared.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *oauthService) fetchGoogleProfile(ctx context.Context, googleCfg *oauth2.Config, token *oauth2.Token) (*shared.OAuthUserProfile, error) {
	client := googleCfg.Client(ctx, token)
	resp, err := client.Get(s.cfg.GoogleUserInfoURL)
	if err != nil {
		s.logger.Error("Failed to fetch user info", zap.Error(err))
		return nil, common.ErrProvider.WithDetails("Could not fetch user info from the identity provider.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("User info request failed", zap.Int("status", resp.StatusCode))
		return nil, common.ErrProvider.WithDetails("Identity provider rejected the user info request.")
	}

	var googleUser struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		s.logger.Error("Failed to decode user info", zap.Error(err))
		return nil, common.ErrProvider.WithDetails("Could not process user information from the identity provider.")
	}

	if googleUser.Email == "" {
		return nil, common.ErrProvider.WithDetails("Failed to retrieve user information.")
	}

	return &shared.OAuthUserProfile{
		Provider:      string(ProviderGoogle),
		ProviderID:    googleUser.Sub,
		Email:         strings.ToLower(googleUser.Email),
		Name:          googleUser.Name,
		EmailVerified: googleUser.EmailVerified,
	}, nil
}

// tokenUserAdapter exposes a shared.User as shared.UserDataForToken.
type tokenUserAdapter struct {
	u *shared.User
}

func (a *tokenUserAdapter) GetID() uuid.UUID  { return a.u.ID }
func (a *tokenUserAdapter) GetEmail() *string { return a.u.Email }
func (a *tokenUserAdapter) GetRole() string   { return a.u.Role }
