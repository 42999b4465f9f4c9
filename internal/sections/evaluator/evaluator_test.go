package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
)

func strPtr(s string) *string { return &s }

func TestPersonalInfo(t *testing.T) {
	tests := []struct {
		name     string
		in       *models.PersonalInfo
		complete bool
		summary  string
	}{
		{"nil", nil, false, "Not started"},
		{"first name only", &models.PersonalInfo{FirstName: "A"}, false, "Incomplete"},
		{"blank gender", &models.PersonalInfo{FirstName: "A", LastName: "B", Gender: "  "}, false, "Incomplete"},
		{"complete", &models.PersonalInfo{FirstName: "A", LastName: "B", Gender: "male"}, true, "A B"},
		{"trims names", &models.PersonalInfo{FirstName: " Ada ", LastName: "Lovelace ", Gender: "female"}, true, "Ada Lovelace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PersonalInfo(tt.in)
			assert.Equal(t, tt.complete, got.IsComplete)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestEducation(t *testing.T) {
	tests := []struct {
		name     string
		in       *models.Education
		complete bool
		summary  string
	}{
		{"nil", nil, false, "Not started"},
		{"missing school", &models.Education{Level: models.LevelBachelor}, false, "Incomplete"},
		{"degree summary", &models.Education{Level: models.LevelBachelor, SchoolName: "MIT", Degree: "BSc Physics"}, true, "BSc Physics at MIT"},
		{"level fallback", &models.Education{Level: models.LevelMaster, SchoolName: "ETH"}, true, "Master's Degree at ETH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Education(tt.in)
			assert.Equal(t, tt.complete, got.IsComplete)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestDocument(t *testing.T) {
	tests := []struct {
		name     string
		in       *models.IdentityDocument
		complete bool
		summary  string
	}{
		{"nil", nil, false, "Not uploaded"},
		{"no images", &models.IdentityDocument{DocumentType: models.DocumentPassport}, false, "Not uploaded"},
		{"front only", &models.IdentityDocument{DocumentType: models.DocumentPassport, FrontImageURL: strPtr("f")}, false, "Passport: back image missing"},
		{"back only", &models.IdentityDocument{DocumentType: models.DocumentNationalID, BackImageURL: strPtr("b")}, false, "National ID: front image missing"},
		{"both", &models.IdentityDocument{DocumentType: models.DocumentDriversLicense, FrontImageURL: strPtr("f"), BackImageURL: strPtr("b")}, true, "Driver's License: front and back uploaded"},
		{"blank url counts as missing", &models.IdentityDocument{DocumentType: models.DocumentPassport, FrontImageURL: strPtr("f"), BackImageURL: strPtr(" ")}, false, "Passport: back image missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Document(tt.in)
			assert.Equal(t, tt.complete, got.IsComplete)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestJobHistory(t *testing.T) {
	older := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.SectionStatus{Summary: "No positions added"}, JobHistory(nil))

	one := JobHistory([]models.JobEntry{{Company: "Acme", Title: "Engineer"}})
	assert.True(t, one.IsComplete)
	assert.Equal(t, "1 position, latest: Engineer at Acme", one.Summary)

	many := JobHistory([]models.JobEntry{
		{Company: "Old Co", Title: "Junior", StartDate: &older},
		{Company: "New Co", Title: "Senior", StartDate: &newer},
	})
	assert.Equal(t, "2 positions, latest: Senior at New Co", many.Summary)

	current := JobHistory([]models.JobEntry{
		{Company: "New Co", Title: "Senior", StartDate: &newer},
		{Company: "Side Co", Title: "Advisor", StartDate: &older, Current: true},
	})
	assert.Equal(t, "2 positions, latest: Advisor at Side Co", current.Summary)
}

func TestEvaluate(t *testing.T) {
	complete := models.Sections{
		PersonalInfo: &models.PersonalInfo{FirstName: "A", LastName: "B", Gender: "male"},
		Education:    &models.Education{Level: models.LevelDiploma, SchoolName: "School"},
		Document:     &models.IdentityDocument{DocumentType: models.DocumentPassport, FrontImageURL: strPtr("f"), BackImageURL: strPtr("b")},
		JobHistory:   []models.JobEntry{{Company: "C", Title: "T"}},
	}

	t.Run("applicant with everything is complete", func(t *testing.T) {
		got := Evaluate(complete, id.UserTypeApplicant)
		assert.True(t, got.IsAllComplete)
		assert.True(t, got.ProfileComplete)
	})

	t.Run("applicant without jobs is incomplete", func(t *testing.T) {
		s := complete
		s.JobHistory = nil
		got := Evaluate(s, id.UserTypeApplicant)
		assert.False(t, got.IsAllComplete)
		assert.False(t, got.ProfileComplete)
	})

	t.Run("employee skips history sections", func(t *testing.T) {
		s := models.Sections{PersonalInfo: complete.PersonalInfo, Document: complete.Document}
		got := Evaluate(s, id.UserTypeEmployee)
		assert.True(t, got.IsAllComplete)
		assert.Equal(t, "Not required", got.Education.Summary)
		assert.Equal(t, "Not required", got.JobHistory.Summary)
	})

	t.Run("profile complete without document", func(t *testing.T) {
		s := complete
		s.Document = nil
		got := Evaluate(s, id.UserTypeApplicant)
		assert.True(t, got.ProfileComplete)
		assert.False(t, got.IsAllComplete)
	})
}
