package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vetting/internal/users/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// Fixed IDs for the development seed so tokens can be minted ahead of time.
var (
	SeedAdminID     = id.UserID(uuid.MustParse("00000000-0000-4000-8000-000000000001"))
	SeedApplicantID = id.UserID(uuid.MustParse("00000000-0000-4000-8000-000000000002"))
	SeedEmployeeID  = id.UserID(uuid.MustParse("00000000-0000-4000-8000-000000000003"))
)

type seeder interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// Seed inserts one admin, one applicant and one employee for local runs.
// Users that already exist are left untouched.
func Seed(ctx context.Context, s seeder, now time.Time) error {
	seeds := []struct {
		id       id.UserID
		email    string
		first    string
		last     string
		role     id.Role
		userType id.UserType
	}{
		{SeedAdminID, "admin@vetting.local", "Ada", "Admin", id.RoleAdmin, id.UserTypeEmployee},
		{SeedApplicantID, "applicant@vetting.local", "Alex", "Applicant", id.RoleUser, id.UserTypeApplicant},
		{SeedEmployeeID, "employee@vetting.local", "Eve", "Employee", id.RoleUser, id.UserTypeEmployee},
	}
	for _, sd := range seeds {
		if _, err := s.FindByID(ctx, sd.id); err == nil {
			continue
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		u, err := models.NewUser(sd.id, sd.email, sd.first, sd.last, sd.role, sd.userType, now)
		if err != nil {
			return err
		}
		if err := s.Save(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
