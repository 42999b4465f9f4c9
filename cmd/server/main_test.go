package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"vetting/internal/blob"
	jwttoken "vetting/internal/jwt_token"
	"vetting/internal/platform/config"
	progresshandler "vetting/internal/progress/handler"
	progressservice "vetting/internal/progress/service"
	ratelimitmw "vetting/internal/ratelimit/middleware"
	ratelimitmodels "vetting/internal/ratelimit/models"
	"vetting/internal/ratelimit/store/bucket"
	sectionhandler "vetting/internal/sections/handler"
	sectionservice "vetting/internal/sections/service"
	userservice "vetting/internal/users/service"
	userstore "vetting/internal/users/store"
	verificationhandler "vetting/internal/verification/handler"
	verificationservice "vetting/internal/verification/service"
	wizardhandler "vetting/internal/wizard/handler"
	id "vetting/pkg/domain"
)

const testSigningKey = "router-test-key"

type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	jwt    *jwttoken.JWTService
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

// SetupSuite builds the router once; the HTTP metrics register globally.
func (s *RouterSuite) SetupSuite() {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Server{
		JWTSigningKey:  testSigningKey,
		JWTIssuer:      "vetting",
		RequestTimeout: 5 * time.Second,
	}

	store, err := openStorage(ctx, cfg, log)
	s.Require().NoError(err)
	s.Require().NoError(userstore.Seed(ctx, store.users, time.Now()))

	users := userservice.New(store.users)
	sections := sectionservice.New(store.sections, blob.NewMemoryStore(""))
	verification := verificationservice.New(store.tx, store.records, store.auditLog, users)
	progress := progressservice.New(store.records, store.records, sections, users)

	s.jwt = jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	limiter := ratelimitmw.New(bucket.NewInMemoryBucketStore(), log,
		ratelimitmw.WithLimit(ratelimitmodels.ClassBulk, ratelimitmodels.Limit{Requests: 2, Window: time.Minute}),
	)
	router := newRouter(cfg, log, jwttoken.NewJWTServiceAdapter(s.jwt), limiter, routes{
		sections:     sectionhandler.New(sections, users, log),
		verification: verificationhandler.New(verification, log),
		progress:     progresshandler.New(progress, log),
		wizard:       wizardhandler.New(sections, verification, users, log),
	})
	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownSuite() {
	s.server.Close()
}

func (s *RouterSuite) do(method, path, token, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *RouterSuite) token(userID id.UserID, role id.Role) string {
	token, err := s.jwt.GenerateAccessToken(userID, role, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) TestHealthAndMetricsArePublic() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", "", "").StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/metrics", "", "").StatusCode)
}

func (s *RouterSuite) TestMissingTokenIsUnauthorized() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/me/verification", "", "").StatusCode)
}

func (s *RouterSuite) TestApplicantRoutes() {
	token := s.token(userstore.SeedApplicantID, id.RoleUser)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/me/verification", token, "").StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/me/verification/progress", token, "").StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/me/verification/wizard", token, "").StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/me/sections", token, "").StatusCode)
}

func (s *RouterSuite) TestAdminRoutesRequireAdminRole() {
	user := s.token(userstore.SeedApplicantID, id.RoleUser)
	admin := s.token(userstore.SeedAdminID, id.RoleAdmin)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/stats", user, "").StatusCode)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/verifications", user, "").StatusCode)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/admin/stats", admin, "").StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/admin/verifications", admin, "").StatusCode)
}

func (s *RouterSuite) TestBulkRejectsWrongContentType() {
	admin := s.token(userstore.SeedAdminID, id.RoleAdmin)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/admin/verifications/bulk", strings.NewReader(`{}`))
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
}

func (s *RouterSuite) TestBulkBudgetPerCaller() {
	// A dedicated caller keeps this budget apart from the other tests.
	admin := s.token(userstore.SeedEmployeeID, id.RoleAdmin)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/admin/verifications/export", admin, "").StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/admin/verifications/export", admin, "").StatusCode)
	resp := s.do(http.MethodGet, "/admin/verifications/export", admin, "")
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	s.NotEmpty(resp.Header.Get("Retry-After"))
}

func TestHealthzReportsFailingBackends(t *testing.T) {
	handler := healthz([]healthCheck{
		{name: "postgres", check: func(context.Context) error { return nil }},
		{name: "redis", check: func(context.Context) error { return errors.New("connection refused") }},
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","failing":["redis"]}`, rr.Body.String())
}

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		method string
		path   string
		class  ratelimitmodels.EndpointClass
		ok     bool
	}{
		{http.MethodGet, "/me/verification", "", false},
		{http.MethodGet, "/admin/verifications/export", ratelimitmodels.ClassBulk, true},
		{http.MethodPost, "/admin/verifications/bulk", ratelimitmodels.ClassBulk, true},
		{http.MethodPost, "/me/sections/document/front/upload", ratelimitmodels.ClassUpload, true},
		{http.MethodPost, "/admin/verifications/abc/approve", ratelimitmodels.ClassAdmin, true},
		{http.MethodPut, "/me/sections/personal-info", ratelimitmodels.ClassWrite, true},
		{http.MethodDelete, "/me/sections/document/back", ratelimitmodels.ClassWrite, true},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			class, ok := classifyRequest(httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.class, class)
		})
	}
}
