package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
)

func TestStepsFor(t *testing.T) {
	assert.Equal(t, []Step{StepPersonalInfo, StepEducation, StepUpload, StepJobHistory, StepReview}, StepsFor(id.UserTypeApplicant))
	assert.Equal(t, []Step{StepPersonalInfo, StepUpload, StepReview}, StepsFor(id.UserTypeEmployee))

	steps := StepsFor(id.UserTypeEmployee)
	steps[0] = StepReview
	assert.Equal(t, StepPersonalInfo, StepsFor(id.UserTypeEmployee)[0])
}

func TestReduceNavigation(t *testing.T) {
	s := NewState(id.UserTypeEmployee)
	assert.Equal(t, StepPersonalInfo, s.Current)

	t.Run("back at first step is a no-op", func(t *testing.T) {
		assert.Equal(t, s, Reduce(s, GoBack{}))
	})

	t.Run("next is gated by validity", func(t *testing.T) {
		assert.Equal(t, StepPersonalInfo, Reduce(s, GoNext{}).Current)
		valid := Reduce(s, SetPersonalInfoValid{Valid: true})
		assert.Equal(t, StepUpload, Reduce(valid, GoNext{}).Current)
	})

	t.Run("next at last step is a no-op", func(t *testing.T) {
		last := Reduce(s, SetStep{Step: StepReview})
		assert.True(t, last.IsLast())
		assert.Equal(t, last, Reduce(last, GoNext{}))
	})

	t.Run("set step outside the flow is ignored", func(t *testing.T) {
		assert.Equal(t, s, Reduce(s, SetStep{Step: StepEducation}))
		assert.Equal(t, s, Reduce(s, SetStep{Step: "bogus"}))
	})

	t.Run("back walks the full flow", func(t *testing.T) {
		full := Reduce(NewState(id.UserTypeApplicant), SetStep{Step: StepJobHistory})
		full = Reduce(full, GoBack{})
		assert.Equal(t, StepUpload, full.Current)
		full = Reduce(full, GoBack{})
		assert.Equal(t, StepEducation, full.Current)
	})

	t.Run("nil action", func(t *testing.T) {
		assert.Equal(t, s, Reduce(s, nil))
	})
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewState(id.UserTypeApplicant)
	jobs := models.JobHistoryRequest{Jobs: []models.JobEntryRequest{{Company: "Acme", Title: "Eng"}}}
	next := Reduce(s, SetJobHistoryData{Data: jobs})
	jobs.Jobs[0].Company = "Changed"

	assert.Nil(t, s.JobHistory.Data)
	assert.Equal(t, "Acme", next.JobHistory.Data.Jobs[0].Company)

	next2 := Reduce(next, SetPersonalInfoData{Data: models.PersonalInfoRequest{FirstName: "A"}})
	assert.Nil(t, next.PersonalInfo.Data)
	assert.Equal(t, "A", next2.PersonalInfo.Data.FirstName)
}

func TestCanContinueUpload(t *testing.T) {
	s := Reduce(NewState(id.UserTypeEmployee), SetStep{Step: StepUpload})
	statuses := []UploadStatus{UploadIdle, UploadUploading, UploadSuccess, UploadError}
	for _, front := range statuses {
		for _, back := range statuses {
			st := Reduce(s, SetUpload{Side: models.SideFront, Upload: Upload{Status: front}})
			st = Reduce(st, SetUpload{Side: models.SideBack, Upload: Upload{Status: back}})
			want := front == UploadSuccess && back == UploadSuccess
			assert.Equal(t, want, CanContinue(st), "front=%q back=%q", front, back)
		}
	}
}

func TestCanContinueForms(t *testing.T) {
	s := NewState(id.UserTypeApplicant)
	assert.False(t, CanContinue(s))

	edu := Reduce(s, SetStep{Step: StepEducation})
	assert.False(t, CanContinue(edu))
	assert.True(t, CanContinue(Reduce(edu, SetEducationValid{Valid: true})))

	jobs := Reduce(s, SetStep{Step: StepJobHistory})
	assert.True(t, CanContinue(Reduce(jobs, SetJobHistoryValid{Valid: true})))

	assert.True(t, CanContinue(Reduce(s, SetStep{Step: StepReview})))
}

func TestResumeStep(t *testing.T) {
	done := models.SectionStatus{IsComplete: true}
	tests := []struct {
		name     string
		userType id.UserType
		c        models.Completeness
		want     Step
	}{
		{"nothing done", id.UserTypeApplicant, models.Completeness{}, StepPersonalInfo},
		{"education missing", id.UserTypeApplicant, models.Completeness{PersonalInfo: done}, StepEducation},
		{"upload missing", id.UserTypeApplicant, models.Completeness{PersonalInfo: done, Education: done}, StepUpload},
		{"jobs missing", id.UserTypeApplicant, models.Completeness{PersonalInfo: done, Education: done, Document: done}, StepJobHistory},
		{"employee skips history", id.UserTypeEmployee, models.Completeness{PersonalInfo: done}, StepUpload},
		{"all done", id.UserTypeEmployee, models.Completeness{PersonalInfo: done, Document: done}, StepReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResumeStep(tt.userType, tt.c))
		})
	}
}
