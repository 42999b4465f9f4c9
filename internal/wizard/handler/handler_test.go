package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetting/internal/blob"
	"vetting/internal/sections/models"
	sectionservice "vetting/internal/sections/service"
	sectionstore "vetting/internal/sections/store"
	usermodels "vetting/internal/users/models"
	userservice "vetting/internal/users/service"
	userstore "vetting/internal/users/store"
	"vetting/internal/wizard"
	id "vetting/pkg/domain"
	"vetting/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	sections *sectionstore.InMemorySectionStore
	users    *userstore.InMemoryUserStore
	router   chi.Router
	now      time.Time
}

func (s *HandlerSuite) SetupTest() {
	s.sections = sectionstore.NewInMemory()
	s.users = userstore.NewInMemory()
	s.now = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	svc := sectionservice.New(s.sections, blob.NewMemoryStore("https://blobs.test"))
	h := New(svc, nil, userservice.New(s.users), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) user(userType id.UserType) id.Caller {
	userID := id.UserID(uuid.New())
	u, err := usermodels.NewUser(userID, "w@example.com", "W", "Z", id.RoleUser, userType, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Save(context.Background(), u))
	return id.Caller{UserID: userID, Role: id.RoleUser}
}

func (s *HandlerSuite) get(caller id.Caller) (*httptest.ResponseRecorder, Response) {
	req := httptest.NewRequest(http.MethodGet, "/me/verification/wizard", nil)
	req = req.WithContext(requestcontext.WithCaller(context.Background(), caller))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var resp Response
	if w.Code == http.StatusOK {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *HandlerSuite) TestFreshApplicant() {
	w, resp := s.get(s.user(id.UserTypeApplicant))
	s.Equal(http.StatusOK, w.Code)
	s.Len(resp.Steps, 5)
	s.Equal(wizard.StepPersonalInfo, resp.State.Current)
	s.False(resp.CanContinue)
}

func (s *HandlerSuite) TestResumesAtUpload() {
	caller := s.user(id.UserTypeEmployee)
	s.Require().NoError(s.sections.SavePersonalInfo(context.Background(), &models.PersonalInfo{
		UserID: caller.UserID, FirstName: "A", LastName: "B", Gender: "female",
	}))

	w, resp := s.get(caller)
	s.Equal(http.StatusOK, w.Code)
	s.Equal([]wizard.Step{wizard.StepPersonalInfo, wizard.StepUpload, wizard.StepReview}, resp.Steps)
	s.Equal(wizard.StepUpload, resp.State.Current)
	s.True(resp.Completeness.PersonalInfo.IsComplete)
	s.Equal("A", resp.State.PersonalInfo.Data.FirstName)
}

func (s *HandlerSuite) TestUnknownUser() {
	w, _ := s.get(id.Caller{UserID: id.UserID(uuid.New()), Role: id.RoleUser})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestAnonymous() {
	w, _ := s.get(id.Caller{})
	s.Equal(http.StatusUnauthorized, w.Code)
}
