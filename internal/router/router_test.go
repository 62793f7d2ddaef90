package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"acquisitions/internal/auth"
	"acquisitions/internal/config"
	apperrors "acquisitions/internal/errors"
	"acquisitions/internal/handler"
	"acquisitions/internal/middleware"
	"acquisitions/internal/model"
	"acquisitions/internal/service"
)

const testSecret = "test-secret"

// --- Mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uint, update service.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password, role string) (*model.User, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *auth.Claims, *model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(2) == nil {
		return "", nil, nil, args.Error(3)
	}
	return args.String(0), args.Get(1).(*auth.Claims), args.Get(2).(*model.User), args.Error(3)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

type stubSessions struct {
	revoked map[string]bool
}

func (s *stubSessions) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	if s.revoked == nil {
		s.revoked = map[string]bool{}
	}
	s.revoked[tokenID] = true
	return nil
}

func (s *stubSessions) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], nil
}

// --- Helpers ---

type testServer struct {
	userSvc  *MockUserService
	authSvc  *MockAuthService
	sessions *stubSessions
	handler  http.Handler
}

func newTestServer(t *testing.T, env string) *testServer {
	t.Helper()

	cfg := &config.Config{Port: "3000", Env: env, JWTSecret: testSecret}
	log := zerolog.Nop()
	userSvc := new(MockUserService)
	authSvc := new(MockAuthService)
	sessions := &stubSessions{}

	jwtService := auth.NewJWTService(testSecret)
	cookies := auth.NewCookieManager(false)

	e := New(
		cfg,
		log,
		middleware.New(testSecret, sessions, log),
		handler.NewAuthHandler(authSvc, jwtService, cookies, log),
		handler.NewUserHandler(userSvc, sessions, cookies, log),
	)

	return &testServer{userSvc: userSvc, authSvc: authSvc, sessions: sessions, handler: e}
}

func (s *testServer) do(method, target string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, user *model.User) (*http.Cookie, *auth.Claims) {
	t.Helper()
	token, claims, err := auth.NewJWTService(testSecret).GenerateToken(user)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.TokenCookieName, Value: token}, claims
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func tokenCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == auth.TokenCookieName {
			return c
		}
	}
	return nil
}

var (
	adminUser = &model.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	plainUser = &model.User{ID: 5, Name: "Bee", Email: "bee@example.com", Role: model.RoleUser}
)

// --- Root surface ---

func TestWelcomeRoute(t *testing.T) {
	s := newTestServer(t, "test")
	rec := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the Acquisitions Service", rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "test")
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- Authentication gate ---

func TestUsers_Unauthenticated(t *testing.T) {
	s := newTestServer(t, "test")

	for _, target := range []string{"/api/users", "/api/users/5"} {
		rec := s.do(http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		body := decodeBody(t, rec)
		assert.Equal(t, "Unauthorized", body["error"])
		assert.Equal(t, "Missing token", body["message"])
	}
}

func TestUsers_InvalidToken(t *testing.T) {
	s := newTestServer(t, "test")
	rec := s.do(http.MethodGet, "/api/users/5", "", &http.Cookie{Name: auth.TokenCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

// --- List users ---

func TestListUsers_AdminOnly(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	rec := s.do(http.MethodGet, "/api/users", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.userSvc.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestListUsers_Admin(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, adminUser)
	s.userSvc.On("ListUsers", mock.Anything).Return([]model.User{*adminUser, *plainUser}, nil)

	rec := s.do(http.MethodGet, "/api/users", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Successfully fetched all users", body["message"])
	assert.Equal(t, float64(2), body["count"])
	users := body["users"].([]interface{})
	assert.Len(t, users, 2)
	// Projections never include the password hash.
	first := users[0].(map[string]interface{})
	_, leaked := first["password"]
	assert.False(t, leaked)
}

// --- Get user ---

func TestGetUser_InvalidID(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, adminUser)

	for _, target := range []string{"/api/users/abc", "/api/users/-1", "/api/users/0"} {
		rec := s.do(http.MethodGet, target, "", cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		body := decodeBody(t, rec)
		assert.Equal(t, "Validation failed", body["error"])
		details := body["details"].([]interface{})
		require.Len(t, details, 1)
		assert.Equal(t, "id", details[0].(map[string]interface{})["field"])
	}
}

func TestGetUser_SelfAndAdmin(t *testing.T) {
	s := newTestServer(t, "test")
	s.userSvc.On("GetUser", mock.Anything, uint(5)).Return(plainUser, nil)

	selfCookie, _ := sessionCookie(t, plainUser)
	rec := s.do(http.MethodGet, "/api/users/5", "", selfCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	adminCookie, _ := sessionCookie(t, adminUser)
	rec = s.do(http.MethodGet, "/api/users/5", "", adminCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Successfully fetched user", body["message"])
}

func TestGetUser_OtherUserForbidden(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	rec := s.do(http.MethodGet, "/api/users/1", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.userSvc.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, adminUser)
	s.userSvc.On("GetUser", mock.Anything, uint(42)).Return(nil, apperrors.ErrUserNotFound)

	rec := s.do(http.MethodGet, "/api/users/42", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User not found", body["error"])
}

// --- Update user ---

func TestUpdateUser_EmptyBody(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	rec := s.do(http.MethodPut, "/api/users/5", `{}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "At least one field must be provided", body["message"])
}

func TestUpdateUser_FieldValidation(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"short name", `{"name":"x"}`, "name"},
		{"bad email", `{"email":"not-an-email"}`, "email"},
		{"short password", `{"password":"abc"}`, "password"},
		{"unknown role", `{"role":"superuser"}`, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPut, "/api/users/5", tt.body, cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, "Validation failed", body["error"])
			details := body["details"].([]interface{})
			require.NotEmpty(t, details)
			assert.Equal(t, tt.field, details[0].(map[string]interface{})["field"])
		})
	}
}

func TestUpdateUser_SelfName(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	updated := &model.User{ID: 5, Name: "Bee", Email: "bee@example.com", Role: model.RoleUser}
	s.userSvc.On("UpdateUser", mock.Anything, uint(5), mock.MatchedBy(func(u service.UserUpdate) bool {
		return u.Name != nil && *u.Name == "Bee" && u.Role == nil
	})).Return(updated, nil)

	rec := s.do(http.MethodPut, "/api/users/5", `{"name":"Bee"}`, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User updated", body["message"])
	s.userSvc.AssertExpectations(t)
}

func TestUpdateUser_EmailNormalized(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	updated := &model.User{ID: 5, Name: "Bee", Email: "new@example.com", Role: model.RoleUser}
	s.userSvc.On("UpdateUser", mock.Anything, uint(5), mock.MatchedBy(func(u service.UserUpdate) bool {
		return u.Email != nil && *u.Email == "new@example.com"
	})).Return(updated, nil)

	rec := s.do(http.MethodPut, "/api/users/5", `{"email":"  NEW@Example.COM "}`, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "new@example.com", user["email"])
}

func TestUpdateUser_RoleChangeByNonAdmin(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	// Even re-asserting the existing role is rejected.
	rec := s.do(http.MethodPut, "/api/users/5", `{"role":"user"}`, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Only admins can change user roles", body["message"])
	s.userSvc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUser_AdminChangesOwnRole(t *testing.T) {
	s := newTestServer(t, "test")
	admin5 := &model.User{ID: 5, Name: "Root", Email: "root@example.com", Role: model.RoleAdmin}
	cookie, _ := sessionCookie(t, admin5)

	s.userSvc.On("UpdateUser", mock.Anything, uint(5), mock.MatchedBy(func(u service.UserUpdate) bool {
		return u.Role != nil && *u.Role == model.RoleAdmin
	})).Return(admin5, nil)

	rec := s.do(http.MethodPut, "/api/users/5", `{"role":"admin"}`, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateUser_OtherUserForbidden(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	rec := s.do(http.MethodPut, "/api/users/1", `{"name":"Hijack"}`, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)
	s.userSvc.On("UpdateUser", mock.Anything, uint(5), mock.Anything).Return(nil, apperrors.ErrEmailTaken)

	rec := s.do(http.MethodPut, "/api/users/5", `{"email":"taken@example.com"}`, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Email already exists", body["error"])
}

// --- Delete user ---

func TestDeleteUser_NotFound(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, adminUser)
	s.userSvc.On("DeleteUser", mock.Anything, uint(42)).Return(nil, apperrors.ErrUserNotFound)

	rec := s.do(http.MethodDelete, "/api/users/42", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser_SelfClearsCookieAndRevokes(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, claims := sessionCookie(t, plainUser)
	s.userSvc.On("DeleteUser", mock.Anything, uint(5)).Return(plainUser, nil)

	rec := s.do(http.MethodDelete, "/api/users/5", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "User deleted", body["message"])

	cleared := tokenCookieFrom(rec)
	require.NotNil(t, cleared, "self-delete must clear the session cookie")
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	assert.True(t, s.sessions.revoked[claims.ID], "self-delete must revoke the session")
}

func TestDeleteUser_AdminDeletingOtherKeepsOwnCookie(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, claims := sessionCookie(t, adminUser)
	s.userSvc.On("DeleteUser", mock.Anything, uint(5)).Return(plainUser, nil)

	rec := s.do(http.MethodDelete, "/api/users/5", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, tokenCookieFrom(rec), "admin's own cookie must not be touched")
	assert.False(t, s.sessions.revoked[claims.ID])
}

func TestDeleteUser_OtherUserForbidden(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, _ := sessionCookie(t, plainUser)

	rec := s.do(http.MethodDelete, "/api/users/1", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.userSvc.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

// --- Auth endpoints ---

func TestSignUp(t *testing.T) {
	s := newTestServer(t, "test")
	created := &model.User{ID: 9, Name: "New User", Email: "new@example.com", Role: model.RoleUser}
	s.authSvc.On("Register", mock.Anything, "New User", "new@example.com", "password123", "").Return(created, nil)

	rec := s.do(http.MethodPost, "/api/auth/sign-up", `{"name":"New User","email":"NEW@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	set := tokenCookieFrom(rec)
	require.NotNil(t, set, "sign-up must set the session cookie")
	assert.NotEmpty(t, set.Value)
	assert.True(t, set.HttpOnly)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, "test")
	s.authSvc.On("Register", mock.Anything, "New User", "taken@example.com", "password123", "").Return(nil, apperrors.ErrEmailTaken)

	rec := s.do(http.MethodPost, "/api/auth/sign-up", `{"name":"New User","email":"taken@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignIn(t *testing.T) {
	s := newTestServer(t, "test")
	token, claims, err := auth.NewJWTService(testSecret).GenerateToken(plainUser)
	require.NoError(t, err)
	s.authSvc.On("Login", mock.Anything, "bee@example.com", "password123").Return(token, claims, plainUser, nil)

	rec := s.do(http.MethodPost, "/api/auth/sign-in", `{"email":"bee@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tokenCookieFrom(rec))
}

func TestSignIn_BadCredentials(t *testing.T) {
	s := newTestServer(t, "test")
	s.authSvc.On("Login", mock.Anything, "bee@example.com", "wrong").Return("", nil, nil, apperrors.ErrInvalidCredentials)

	rec := s.do(http.MethodPost, "/api/auth/sign-in", `{"email":"bee@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, tokenCookieFrom(rec))
}

func TestSignOut(t *testing.T) {
	s := newTestServer(t, "test")
	cookie, claims := sessionCookie(t, plainUser)
	s.authSvc.On("Logout", mock.Anything, mock.MatchedBy(func(c *auth.Claims) bool {
		return c.ID == claims.ID
	})).Return(nil)

	rec := s.do(http.MethodPost, "/api/auth/sign-out", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	cleared := tokenCookieFrom(rec)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

// --- Error verbosity ---

func TestInternalError_Verbosity(t *testing.T) {
	t.Run("development echoes detail", func(t *testing.T) {
		s := newTestServer(t, "development")
		cookie, _ := sessionCookie(t, adminUser)
		s.userSvc.On("ListUsers", mock.Anything).Return(nil, assert.AnError)

		rec := s.do(http.MethodGet, "/api/users", "", cookie)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Internal server error", body["error"])
		assert.Contains(t, body["message"], assert.AnError.Error())
	})

	t.Run("production is generic", func(t *testing.T) {
		s := newTestServer(t, "production")
		cookie, _ := sessionCookie(t, adminUser)
		s.userSvc.On("ListUsers", mock.Anything).Return(nil, assert.AnError)

		rec := s.do(http.MethodGet, "/api/users", "", cookie)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Internal server error", body["error"])
		_, hasMessage := body["message"]
		assert.False(t, hasMessage)
	})
}
