package handler

/*
FEATURE: API Surface Integration
DOMAIN: Routing, Authentication, CORS

ACCEPTANCE CRITERIA:
===================

AC-API-001: Health Endpoint Public
  GIVEN the bridge is running
  WHEN a client calls GET /api/health without credentials
  THEN the request succeeds

AC-API-002: Experiments Require Token
  GIVEN no Authorization header
  WHEN a client calls GET /api/v1/experiments
  THEN the request fails with 401

AC-API-003: Valid Token Grants Access
  GIVEN a token signed by the identity key
  WHEN the client lists experiments
  THEN the request succeeds with the caller's experiments

AC-API-004: Callback Requires Engine Key
  GIVEN no X-API-Key header
  WHEN the engine posts a progress report
  THEN the request fails with 401

AC-API-005: Admin Listing Requires Admin Role
  GIVEN a token carrying the user role
  WHEN the client lists runs across users
  THEN the request fails with 403
  AND an admin-role token succeeds

AC-API-006: Dashboard Origin Allowed
  GIVEN a request from the hosted dashboard origin
  WHEN it hits an /api/ path
  THEN CORS headers echo the origin
*/

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolution-ecosystem/bridge/internal/middleware"
	"github.com/evolution-ecosystem/bridge/internal/model"
	"github.com/evolution-ecosystem/bridge/pkg/token"
)

type stubPinger struct{}

func (stubPinger) Ping(ctx context.Context) error { return nil }

type stubBreaker struct{}

func (stubBreaker) BreakerState() string { return "closed" }

// newTestAPI assembles the routed API the way the server entrypoint does,
// with in-memory services behind it.
func newTestAPI(t *testing.T) (*httptest.Server, *token.Service) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokenService := token.NewServiceFromKey(key, "auth.evolution-ecosystem.web.app", time.Hour)

	experimentHandler := NewExperimentHandler(&mockExperimentService{
		listFunc: func(ctx context.Context, ownerID string) ([]*model.Experiment, error) {
			return []*model.Experiment{{ID: "experiment:1", OwnerID: ownerID}}, nil
		},
	})
	runHandler := NewRunHandler(&mockRunService{})
	adminHandler := NewAdminHandler(&mockAdminRunService{}, 0)
	healthHandler := NewHealthHandler(stubPinger{}, stubBreaker{}, "test")

	callbackKey := "engine-secret"
	verifyCallback := func(key string) error {
		if key != callbackKey {
			return assert.AnError
		}
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	authMiddleware := middleware.Auth(tokenService)
	mux.Handle("GET /api/v1/experiments", authMiddleware(http.HandlerFunc(experimentHandler.List)))

	callbackMiddleware := middleware.APIKey(verifyCallback)
	mux.Handle("POST /api/v1/engine/callback", callbackMiddleware(http.HandlerFunc(runHandler.Callback)))

	mux.Handle("GET /api/v1/admin/runs", authMiddleware(middleware.AdminOnly(http.HandlerFunc(adminHandler.ListRuns))))

	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Recovery,
		middleware.CORS([]string{"https://evolution-ecosystem.web.app", "http://localhost:5000"}),
	)

	srv := httptest.NewServer(wrapped)
	t.Cleanup(srv.Close)
	return srv, tokenService
}

func TestAPI_HealthIsPublic(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAPI_ExperimentsRequireToken(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/v1/experiments")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ValidTokenGrantsAccess(t *testing.T) {
	t.Parallel()

	srv, tokenService := newTestAPI(t)

	signed, err := tokenService.Sign(token.Claims{Subject: "user:alice"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/experiments", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CallbackRequiresEngineKey(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	body := strings.NewReader(`{"job_id":"job-1","status":"running","generation":1}`)
	resp, err := http.Post(srv.URL+"/api/v1/engine/callback", "application/json", body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CallbackAcceptsEngineKey(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/engine/callback",
		strings.NewReader(`{"job_id":"job-1","status":"running","generation":1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "engine-secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_AdminListingRequiresAdminRole(t *testing.T) {
	t.Parallel()

	srv, tokenService := newTestAPI(t)

	cases := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"user role forbidden", token.RoleUser, http.StatusForbidden},
		{"admin role allowed", token.RoleAdmin, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signed, err := tokenService.Sign(token.Claims{Subject: "user:op", Role: tc.role})
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/admin/runs", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+signed)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestAPI_DashboardOriginAllowed(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evolution-ecosystem.web.app")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "https://evolution-ecosystem.web.app",
		resp.Header.Get("Access-Control-Allow-Origin"))
}
