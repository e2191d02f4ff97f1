package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/auth"
	"github.com/go-authgate/keygate/internal/cache"
	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/metrics"
	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/token"
	"github.com/go-authgate/keygate/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "s3cret-pass"

// testServer is the full API over an in-memory store.
type testServer struct {
	router   *gin.Engine
	store    *store.Store
	bindings *services.DeviceBindingService
	codec    *token.Codec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New("sqlite", ":memory:", &config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := zap.NewNop()
	m := metrics.NewNoopMetrics()
	audit := services.NewAuditService(s, logger, false, 0)
	users := services.NewUserService(
		s,
		auth.NewLocalAuthProvider(s),
		nil,
		services.AuthModeLocal,
		m,
		cache.NewMemoryCache[models.User](),
		time.Minute,
		logger,
	)
	validator := access.NewValidator(s)
	codec := token.NewCodec("handler-test-secret-0123456789abcdef", token.WithTTL(time.Hour))
	bindings := services.NewDeviceBindingService(s, validator, audit, m, logger, time.Second)
	sessionService := services.NewSessionService(s, users, bindings, validator, codec, audit, m, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bindings.Wait(ctx)
	})

	cookieCfg := TokenCookieConfig{MaxAge: time.Hour}
	authHandler := NewAuthHandler(users, sessionService, audit, cookieCfg, logger)
	sessionHandler := NewSessionHandler(sessionService, cookieCfg, logger)
	credentialHandler := NewCredentialHandler(services.NewCredentialService(s, audit), logger)
	adminHandler := NewAdminHandler(
		services.NewKeyService(s, audit, 10),
		services.NewAssignmentService(s, audit),
		bindings,
		logger,
	)
	auditHandler := NewAuditHandler(audit, logger)

	r := gin.New()
	r.Use(util.RequestMetaMiddleware())
	r.Use(sessions.Sessions("keygate_session", cookie.NewStore([]byte("test-session-secret"))))

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/activate", middleware.RequireAuth(), sessionHandler.Activate)
	api.POST("/validate-device", middleware.RequireAuth(), sessionHandler.ValidateDevice)

	device := api.Group("", middleware.RequireDeviceSession(sessionService, logger))
	device.GET("/validate-session", sessionHandler.ValidateSession)
	device.GET("/credentials", credentialHandler.ListCredentials)
	device.POST("/credentials", credentialHandler.CreateCredential)
	device.POST("/credentials/bulk", credentialHandler.BulkCreateCredentials)
	device.GET("/credentials/:id", credentialHandler.GetCredential)
	device.PUT("/credentials/:id", credentialHandler.UpdateCredential)
	device.DELETE("/credentials/:id", credentialHandler.DeleteCredential)

	admin := api.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin(users))
	admin.GET("/keys", adminHandler.ListKeys)
	admin.POST("/keys", adminHandler.CreateKey)
	admin.PATCH("/keys/:id", adminHandler.UpdateKey)
	admin.DELETE("/keys/:id", adminHandler.DeleteKey)
	admin.POST("/keys/:id/revoke-device", adminHandler.RevokeKeyDevice)
	admin.GET("/assignments", adminHandler.ListAssignments)
	admin.POST("/assignments", adminHandler.CreateAssignment)
	admin.PATCH("/assignments/:id", adminHandler.UpdateAssignment)
	admin.DELETE("/assignments/:id", adminHandler.DeleteAssignment)
	admin.POST("/devices/:id/revoke", adminHandler.RevokeDevice)
	admin.GET("/audit", auditHandler.ListAuditLogs)
	admin.GET("/audit/export", auditHandler.ExportAuditLogs)

	return &testServer{router: r, store: s, bindings: bindings, codec: codec}
}

func (ts *testServer) createUser(t *testing.T, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New().String(),
		Username:     "user-" + uuid.New().String()[:8],
		Email:        uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		AuthSource:   models.AuthSourceLocal,
	}
	require.NoError(t, ts.store.CreateUser(context.Background(), u))
	return u
}

// client replays cookies between requests the way a browser would.
type client struct {
	ts      *testServer
	cookies map[string]*http.Cookie
	bearer  string
}

func (ts *testServer) newClient() *client {
	return &client{ts: ts, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.ts.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return w
}

func (cl *client) login(t *testing.T, username string) map[string]any {
	t.Helper()
	w := cl.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// adminClient returns a client logged in as a fresh admin.
func (ts *testServer) adminClient(t *testing.T) *client {
	t.Helper()
	admin := ts.createUser(t, models.RoleAdmin)
	cl := ts.newClient()
	body := cl.login(t, admin.Username)
	require.Equal(t, "admin", body["status"])
	return cl
}

// provision creates a key with the given limit and assigns it to a fresh
// USER account. It returns the user and the key value.
func (ts *testServer) provision(t *testing.T, admin *client, limit int) (*models.User, map[string]any, map[string]any) {
	t.Helper()
	user := ts.createUser(t, models.RoleUser)

	w := admin.do(t, http.MethodPost, "/api/admin/keys", gin.H{"deviceLimit": limit})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	key := decode(t, w)

	w = admin.do(t, http.MethodPost, "/api/admin/assignments", gin.H{
		"userId": user.ID,
		"keyId":  key["id"],
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return user, key, decode(t, w)
}

// activate logs the user in and binds deviceID, returning the session token.
func (ts *testServer) activate(t *testing.T, user *models.User, keyValue, deviceID string) (*client, string) {
	t.Helper()
	cl := ts.newClient()
	cl.login(t, user.Username)

	w := cl.do(t, http.MethodPost, "/api/activate", gin.H{
		"activationKey": keyValue,
		"deviceId":      deviceID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode(t, w)["session"].(map[string]any)
	return cl, session["token"].(string)
}
