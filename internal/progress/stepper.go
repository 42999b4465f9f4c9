// Package progress derives the user-facing review stepper and the time
// windows used for dashboard counts.
package progress

import (
	"time"

	"vetting/internal/progress/models"
	sectionmodels "vetting/internal/sections/models"
	verificationmodels "vetting/internal/verification/models"
)

const week = 7 * 24 * time.Hour

// Stepper returns the four review steps for a record status. While the user
// is still drafting, profile and documents follow section completeness.
func Stepper(status verificationmodels.Status, c sectionmodels.Completeness) []models.Step {
	return []models.Step{
		{Key: models.StepEmail, State: models.StepCompleted},
		{Key: models.StepProfile, State: profileState(status, c)},
		{Key: models.StepDocuments, State: documentsState(status, c)},
		{Key: models.StepReview, State: reviewState(status)},
	}
}

func profileState(status verificationmodels.Status, c sectionmodels.Completeness) models.StepState {
	switch {
	case status.InReview():
		return models.StepCompleted
	case status.AwaitingUser():
		return models.StepCurrent
	case c.ProfileComplete:
		return models.StepCompleted
	default:
		return models.StepCurrent
	}
}

func documentsState(status verificationmodels.Status, c sectionmodels.Completeness) models.StepState {
	switch {
	case status.InReview():
		return models.StepCompleted
	case status.AwaitingUser():
		return models.StepCurrent
	case c.Document.IsComplete:
		return models.StepCompleted
	case c.ProfileComplete:
		return models.StepCurrent
	default:
		return models.StepPending
	}
}

func reviewState(status verificationmodels.Status) models.StepState {
	switch status {
	case verificationmodels.StatusVerified:
		return models.StepCompleted
	case verificationmodels.StatusSubmitted:
		return models.StepCurrent
	default:
		return models.StepPending
	}
}

// Windows returns the start of the local calendar day containing now and the
// instant seven days before now.
func Windows(now time.Time, loc *time.Location) (today, lastWeek time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return today, now.Add(-week)
}
