package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

func TestPersonalInfoIsComplete(t *testing.T) {
	assert.True(t, (&PersonalInfo{FirstName: "A", LastName: "B", Gender: "male"}).IsComplete())
	assert.False(t, (&PersonalInfo{FirstName: "A"}).IsComplete())
	assert.False(t, (*PersonalInfo)(nil).IsComplete())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Bachelor's Degree", LevelBachelor.Label())
	assert.Equal(t, "custom", EducationLevel("custom").Label())
	assert.Equal(t, "National ID", DocumentNationalID.Label())
	assert.Equal(t, "Document", DocumentType("").Label())
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide(" Front ")
	require.NoError(t, err)
	assert.Equal(t, SideFront, side)

	_, err = ParseSide("top")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestIdentityDocumentApplyDraft(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	doc := NewIdentityDocument(id.UserID(uuid.New()), now)
	front := " https://blob/front "
	blank := ""

	doc.ApplyDraft(DocumentDraft{DocumentType: DocumentPassport, FrontImageURL: &front, BackImageURL: &blank}, now)

	require.NotNil(t, doc.FrontImageURL)
	assert.Equal(t, "https://blob/front", *doc.FrontImageURL)
	assert.Nil(t, doc.BackImageURL)
	assert.Equal(t, DocumentStatusPending, doc.Status)

	removed := doc.ClearBack(now)
	assert.Nil(t, removed)
}

func TestApplyDraftReportsDroppedImages(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	doc := NewIdentityDocument(id.UserID(uuid.New()), now)
	a, b, c := "https://blob/a", "https://blob/b", "https://blob/c"

	assert.Empty(t, doc.ApplyDraft(DocumentDraft{DocumentType: DocumentPassport, FrontImageURL: &a, BackImageURL: &b}, now))
	assert.Empty(t, doc.ApplyDraft(DocumentDraft{DocumentType: DocumentPassport, FrontImageURL: &b, BackImageURL: &a}, now))
	assert.Equal(t, []string{"https://blob/b"}, doc.ApplyDraft(DocumentDraft{DocumentType: DocumentPassport, FrontImageURL: &c, BackImageURL: &a}, now))
	assert.ElementsMatch(t, []string{"https://blob/c", "https://blob/a"}, doc.ApplyDraft(DocumentDraft{DocumentType: DocumentPassport}, now))
}

func TestLatestJob(t *testing.T) {
	assert.Nil(t, LatestJob(nil))

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []JobEntry{{Title: "first"}, {Title: "dated", StartDate: &start}}
	assert.Equal(t, "dated", LatestJob(jobs).Title)
}

func TestJobHistoryRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     JobHistoryRequest
		wantErr bool
	}{
		{"empty list", JobHistoryRequest{}, false},
		{"valid", JobHistoryRequest{Jobs: []JobEntryRequest{{Company: "A", Title: "T", StartDate: "2020-01-01", EndDate: "2021-01-01"}}}, false},
		{"missing title", JobHistoryRequest{Jobs: []JobEntryRequest{{Company: "A"}}}, true},
		{"bad date", JobHistoryRequest{Jobs: []JobEntryRequest{{Company: "A", Title: "T", StartDate: "01/01/2020"}}}, true},
		{"end before start", JobHistoryRequest{Jobs: []JobEntryRequest{{Company: "A", Title: "T", StartDate: "2021-01-01", EndDate: "2020-01-01"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJobHistoryRequestToModelsDropsEndDateForCurrent(t *testing.T) {
	req := JobHistoryRequest{Jobs: []JobEntryRequest{{Company: "A", Title: "T", EndDate: "2024-01-01", Current: true}}}
	require.NoError(t, req.Validate())
	jobs := req.ToModels(id.UserID(uuid.New()))
	require.Len(t, jobs, 1)
	assert.Nil(t, jobs[0].EndDate)
}

func TestEducationRequestValidate(t *testing.T) {
	req := EducationRequest{Level: " Master ", SchoolName: "ETH"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "master", req.Level)

	bad := EducationRequest{Level: "kindergarten"}
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}

func TestDocumentDraftValidate(t *testing.T) {
	d := DocumentDraft{DocumentType: "PASSPORT"}
	require.NoError(t, d.Validate())
	assert.Equal(t, DocumentPassport, d.DocumentType)

	bad := DocumentDraft{DocumentType: "library_card"}
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}
