// Package wizard models the multi-step verification form as a finite state
// machine with debounced autosave of each section.
package wizard

import (
	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
)

// Step identifies one page of the wizard.
type Step string

const (
	StepPersonalInfo Step = "personal_info"
	StepEducation    Step = "education"
	StepUpload       Step = "upload"
	StepJobHistory   Step = "job_history"
	StepReview       Step = "review"
)

var (
	fullSteps    = []Step{StepPersonalInfo, StepEducation, StepUpload, StepJobHistory, StepReview}
	reducedSteps = []Step{StepPersonalInfo, StepUpload, StepReview}
)

// StepsFor returns the ordered steps that apply to a user type.
func StepsFor(userType id.UserType) []Step {
	src := reducedSteps
	if userType.RequiresHistory() {
		src = fullSteps
	}
	out := make([]Step, len(src))
	copy(out, src)
	return out
}

func indexOf(steps []Step, step Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}

// ResumeStep is the first step whose section is incomplete, or review when
// everything is in place.
func ResumeStep(userType id.UserType, c models.Completeness) Step {
	for _, step := range StepsFor(userType) {
		switch step {
		case StepPersonalInfo:
			if !c.PersonalInfo.IsComplete {
				return step
			}
		case StepEducation:
			if !c.Education.IsComplete {
				return step
			}
		case StepUpload:
			if !c.Document.IsComplete {
				return step
			}
		case StepJobHistory:
			if !c.JobHistory.IsComplete {
				return step
			}
		}
	}
	return StepReview
}
