package models

import (
	"time"

	sectionmodels "vetting/internal/sections/models"
	verificationmodels "vetting/internal/verification/models"
)

// StepState is the display state of one stepper item.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
)

// StepKey names the fixed steps shown to a user waiting on review.
type StepKey string

const (
	StepEmail     StepKey = "email"
	StepProfile   StepKey = "profile"
	StepDocuments StepKey = "documents"
	StepReview    StepKey = "review"
)

type Step struct {
	Key   StepKey   `json:"key"`
	State StepState `json:"state"`
}

// Progress is a user's position in the verification flow.
type Progress struct {
	Status       verificationmodels.Status  `json:"status"`
	Steps        []Step                     `json:"steps"`
	Completeness sectionmodels.Completeness `json:"completeness"`
}

// Stats are the admin dashboard counts. ApprovedThisWeek is never below
// ApprovedToday when both are computed against the same clock.
type Stats struct {
	Pending          int       `json:"pending"`
	ApprovedToday    int       `json:"approved_today"`
	ApprovedThisWeek int       `json:"approved_this_week"`
	RejectedToday    int       `json:"rejected_today"`
	RejectedThisWeek int       `json:"rejected_this_week"`
	AwaitingResponse int       `json:"awaiting_response"`
	Total            int       `json:"total"`
	GeneratedAt      time.Time `json:"generated_at"`
}
