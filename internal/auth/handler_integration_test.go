// File: internal/auth/handler_integration_test.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"afyaclinic_backend/internal/common"
	"afyaclinic_backend/internal/config"
	"afyaclinic_backend/internal/middleware"
	"afyaclinic_backend/internal/shared"
	"afyaclinic_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type captureMailer struct {
	to   string
	link string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, resetLink string) error {
	m.to = to
	m.link = resetLink
	return nil
}

type testEnv struct {
	cfg     *config.Config
	router  *gin.Engine
	repo    user.Repository
	mailer  *captureMailer
	userSvc shared.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecretKey:             "integration-test-secret",
		JWTAccessTokenExpiry:     30 * 24 * time.Hour,
		PasswordResetTokenExpiry: time.Hour,
		EmailCheckDeliverability: false,
		PhoneDefaultRegion:       "KE",
		PublicBaseURL:            "http://localhost:8080",
		GoogleClientID:           "test-client",
		GoogleClientSecret:       "test-secret",
		GoogleRedirectURI:        "http://localhost:8080/callback/google",
		OAuthProviderTimeout:     5 * time.Second,
		OAuthStateCookieName:     "oauth_state",
		SessionCookieName:        "afyaclinic_session",
		OAuthCookieMaxAgeMinutes: 10,
		OAuthCookieSameSite:      "Lax",
	}

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, user.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	logger := zap.NewNop()
	mailer := &captureMailer{}
	repo := user.NewGORMRepository(db)
	tokenSvc := NewJWTService(cfg, logger)
	userSvc := user.NewService(repo, tokenSvc, mailer, cfg, logger)
	oauthSvc := NewOAuthService(cfg, userSvc, tokenSvc, logger)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))

	NewHandler(cfg, userSvc, oauthSvc, logger).RegisterRoutes(router)
	user.NewHandler(userSvc, logger).RegisterRoutes(router,
		middleware.AuthMiddleware(tokenSvc, logger),
		middleware.RequireRole(common.RoleAdmin),
	)

	return &testEnv{cfg: cfg, router: router, repo: repo, mailer: mailer, userSvc: userSvc}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerPatient(t *testing.T, email, phone, password string) {
	t.Helper()
	w := e.postJSON(t, "/register", gin.H{
		"email":         email,
		"phone":         phone,
		"password":      password,
		"userfullnames": "Test Patient",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.postJSON(t, "/login", gin.H{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func (e *testEnv) seedAdmin(t *testing.T, email, password string) {
	t.Helper()
	_, err := e.userSvc.Register(context.Background(), shared.CreateUserRequest{
		Email:     email,
		Phone:     "0722000001",
		Password:  password,
		FullNames: "Seed Admin",
	}, common.RoleAdmin)
	require.NoError(t, err)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

// --- Registration ---

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.registerPatient(t, "patient@example.com", "0712345678", "abc12345")

	t.Run("duplicate email", func(t *testing.T) {
		w := env.postJSON(t, "/register", gin.H{
			"email":         "patient@example.com",
			"phone":         "0723456789",
			"password":      "abc12345",
			"userfullnames": "Other Patient",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ALREADY_REGISTERED", errorCode(t, w))
	})

	t.Run("non-carrier phone", func(t *testing.T) {
		w := env.postJSON(t, "/register", gin.H{
			"email":         "other@example.com",
			"phone":         "0700000000",
			"password":      "abc12345",
			"userfullnames": "Other Patient",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("missing fields", func(t *testing.T) {
		w := env.postJSON(t, "/register", gin.H{"email": "x@example.com"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// --- Login / logout ---

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "patient@example.com", "0712345678", "abc12345")

	token := env.login(t, "patient@example.com", "abc12345")
	assert.NotEmpty(t, token)

	t.Run("wrong password", func(t *testing.T) {
		w := env.postJSON(t, "/login", gin.H{"email": "patient@example.com", "password": "wrong1234"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		w := env.postJSON(t, "/login", gin.H{"email": "nobody@example.com", "password": "abc12345"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout", func(t *testing.T) {
		w := env.postJSON(t, "/logout", gin.H{}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// --- Admin role gate ---

func TestAdminRegistrationGate(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", "admin1234")
	env.registerPatient(t, "patient@example.com", "0712345678", "abc12345")

	staffBody := gin.H{
		"email":         "doctor@example.com",
		"phone":         "0723456789",
		"password":      "doc12345",
		"userfullnames": "Dr. Jane",
	}

	t.Run("no token", func(t *testing.T) {
		w := env.postJSON(t, "/admin/register-doctor", staffBody, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := env.postJSON(t, "/admin/register-doctor", staffBody, map[string]string{
			"Authorization": "Token abc",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("patient token is forbidden", func(t *testing.T) {
		patientToken := env.login(t, "patient@example.com", "abc12345")
		w := env.postJSON(t, "/admin/register-doctor", staffBody, map[string]string{
			"Authorization": "Bearer " + patientToken,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	})

	t.Run("admin token succeeds", func(t *testing.T) {
		adminToken := env.login(t, "admin@example.com", "admin1234")
		w := env.postJSON(t, "/admin/register-doctor", staffBody, map[string]string{
			"Authorization": "Bearer " + adminToken,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data struct {
				Role string `json:"role"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, common.RoleDoctor, resp.Data.Role)
	})
}

// --- Password reset flow ---

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "patient@example.com", "0712345678", "abc12345")

	t.Run("unknown email yields 404", func(t *testing.T) {
		w := env.postJSON(t, "/forgot-password", gin.H{"email": "nobody@example.com"}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w := env.postJSON(t, "/forgot-password", gin.H{"email": "patient@example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "patient@example.com", env.mailer.to)

	prefix := env.cfg.PublicBaseURL + "/reset-password/"
	require.True(t, strings.HasPrefix(env.mailer.link, prefix), env.mailer.link)
	token := strings.TrimPrefix(env.mailer.link, prefix)

	t.Run("garbage token", func(t *testing.T) {
		w := env.postJSON(t, "/reset-password/garbage", gin.H{"password": "newpass1"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
	})

	t.Run("too short password", func(t *testing.T) {
		w := env.postJSON(t, "/reset-password/"+token, gin.H{"password": "ab1"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	w = env.postJSON(t, "/reset-password/"+token, gin.H{"password": "newpass1"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old credentials are dead, new ones work.
	resp := env.postJSON(t, "/login", gin.H{"email": "patient@example.com", "password": "abc12345"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env.login(t, "patient@example.com", "newpass1")
}

// --- Google OAuth flow ---

// fakeGoogle stands in for the provider's token and userinfo endpoints.
func fakeGoogle(t *testing.T, email, sub, name string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fake-provider-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":            sub,
			"email":          email,
			"email_verified": true,
			"name":           name,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (e *testEnv) startGoogleLogin(t *testing.T) (state string, cookie *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/login/google", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state = location.Query().Get("state")
	require.NotEmpty(t, state)

	for _, c := range w.Result().Cookies() {
		if c.Name == e.cfg.OAuthStateCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "state cookie must be set")
	return state, cookie
}

func TestGoogleOAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	provider := fakeGoogle(t, "oauth.patient@example.com", "google-sub-1", "OAuth Patient")
	env.cfg.GoogleAuthURL = provider.URL + "/auth"
	env.cfg.GoogleTokenURL = provider.URL + "/token"
	env.cfg.GoogleUserInfoURL = provider.URL + "/userinfo"

	state, cookie := env.startGoogleLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/callback/google?code=fake-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
			User        struct {
				Email        string `json:"email"`
				Role         string `json:"role"`
				AuthProvider string `json:"auth_provider"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.Equal(t, "oauth.patient@example.com", resp.Data.User.Email)
	assert.Equal(t, common.RolePatient, resp.Data.User.Role)
	assert.Equal(t, "google", resp.Data.User.AuthProvider)

	// A second login with the same provider identity resolves to the same account.
	state2, cookie2 := env.startGoogleLogin(t)
	req2 := httptest.NewRequest(http.MethodGet, "/callback/google?code=fake-code&state="+url.QueryEscape(state2), nil)
	req2.AddCookie(cookie2)
	w2 := httptest.NewRecorder()
	env.router.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())
}

func TestGoogleOAuthStateMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, cookie := env.startGoogleLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/callback/google?code=fake-code&state=forged-state", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSRF_STATE_MISMATCH", errorCode(t, w))
}

func TestGoogleOAuthMissingStateCookie(t *testing.T) {
	env := newTestEnv(t)

	state, _ := env.startGoogleLogin(t)

	// Replaying the callback without the browser-held cookie fails even with
	// the correct state value.
	req := httptest.NewRequest(http.MethodGet, "/callback/google?code=fake-code&state="+url.QueryEscape(state), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSRF_STATE_MISMATCH", errorCode(t, w))
}

func TestGoogleOAuthProviderWithoutEmail(t *testing.T) {
	env := newTestEnv(t)
	provider := fakeGoogle(t, "", "google-sub-2", "No Email")
	env.cfg.GoogleTokenURL = provider.URL + "/token"
	env.cfg.GoogleUserInfoURL = provider.URL + "/userinfo"

	state, cookie := env.startGoogleLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/callback/google?code=fake-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PROVIDER_ERROR", errorCode(t, w))
}
