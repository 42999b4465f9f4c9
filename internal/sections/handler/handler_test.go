package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"vetting/internal/blob"
	"vetting/internal/sections/models"
	"vetting/internal/sections/service"
	"vetting/internal/sections/store"
	userservice "vetting/internal/users/service"
	userstore "vetting/internal/users/store"
	"vetting/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	blobs  *blob.MemoryStore
	userID string
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()
	users := userstore.NewInMemory()
	s.Require().NoError(userstore.Seed(ctx, users, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	s.blobs = blob.NewMemoryStore("https://blobs.test")

	svc := service.New(store.NewInMemory(), s.blobs)
	h := New(svc, userservice.New(users), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
	s.userID = userstore.SeedApplicantID.String()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithUser(req, s.userID))
}

func (s *HandlerSuite) TestRequiresAuthentication() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/me/sections"))
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *HandlerSuite) TestGetSectionsEmpty() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/me/sections"))
	s.Require().Equal(http.StatusOK, rr.Code)

	resp := testutil.DecodeJSON[SectionsResponse](s.T(), rr)
	s.Equal("applicant", string(resp.UserType))
	s.Equal("Not started", resp.Completeness.PersonalInfo.Summary)
	s.False(resp.Completeness.IsAllComplete)
}

func (s *HandlerSuite) TestPersonalInfoRoundTrip() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/me/sections/personal-info"))
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/me/sections/personal-info",
		models.PersonalInfoRequest{FirstName: "Alex", LastName: "Applicant", Gender: "other"}))
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/me/sections"))
	resp := testutil.DecodeJSON[SectionsResponse](s.T(), rr)
	s.True(resp.Completeness.PersonalInfo.IsComplete)
	s.Equal("Alex Applicant", resp.Completeness.PersonalInfo.Summary)
}

func (s *HandlerSuite) TestSaveRejectsNonJSON() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPut, "/me/sections/education", "level=master")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := s.do(req)
	s.Equal(http.StatusUnsupportedMediaType, rr.Code)
}

func (s *HandlerSuite) TestJobHistoryValidation() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/me/sections/job-history",
		models.JobHistoryRequest{Jobs: []models.JobEntryRequest{{Company: "Acme"}}}))
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestUploadAndRemove() {
	s.Run("raw body upload", func() {
		rr := s.do(testutil.NewImageUpload(s.T(), "/me/sections/document/front/upload", "image/png", []byte("png")))
		s.Require().Equal(http.StatusCreated, rr.Code)

		resp := testutil.DecodeJSON[UploadResponse](s.T(), rr)
		s.Equal(models.SideFront, resp.Side)
		s.Contains(resp.URL, "https://blobs.test/")
	})

	s.Run("multipart upload", func() {
		rr := s.do(testutil.NewMultipartImageUpload(s.T(), "/me/sections/document/back/upload", "back.jpg", "image/jpeg", []byte("jpg")))
		s.Require().Equal(http.StatusCreated, rr.Code)
	})

	s.Run("unknown side", func() {
		rr := s.do(testutil.NewImageUpload(s.T(), "/me/sections/document/left/upload", "image/png", []byte("png")))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unsupported type", func() {
		rr := s.do(testutil.NewImageUpload(s.T(), "/me/sections/document/front/upload", "image/gif", []byte("gif")))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("remove without document", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/me/sections/document/front"))
		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("save draft then remove front", func() {
		front := "https://blobs.test/f"
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/me/sections/document",
			models.DocumentDraft{DocumentType: models.DocumentPassport, FrontImageURL: &front}))
		s.Require().Equal(http.StatusOK, rr.Code)

		rr = s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/me/sections/document/front"))
		s.Require().Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"document":null}`, rr.Body.String())
	})
}
