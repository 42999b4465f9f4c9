package wizard

import (
	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
)

type UploadStatus string

const (
	UploadIdle      UploadStatus = ""
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// Upload tracks one document image. URL is only meaningful on success.
type Upload struct {
	Status   UploadStatus `json:"status"`
	Progress int          `json:"progress"`
	URL      string       `json:"url,omitempty"`
	Err      string       `json:"error,omitempty"`
}

// Form is the draft of one section and whether the form considers it valid.
type Form[T any] struct {
	Valid bool `json:"valid"`
	Data  *T   `json:"data,omitempty"`
}

// State is the wizard snapshot. Values are replaced, never mutated in place,
// so a State can be shared after Reduce returns.
type State struct {
	UserType     id.UserType                      `json:"user_type"`
	Current      Step                             `json:"current_step"`
	PersonalInfo Form[models.PersonalInfoRequest] `json:"personal_info"`
	Education    Form[models.EducationRequest]    `json:"education"`
	JobHistory   Form[models.JobHistoryRequest]   `json:"job_history"`
	DocumentType models.DocumentType              `json:"document_type,omitempty"`
	Front        Upload                           `json:"front"`
	Back         Upload                           `json:"back"`
}

func NewState(userType id.UserType) State {
	return State{UserType: userType, Current: StepsFor(userType)[0]}
}

func (s State) Steps() []Step {
	return StepsFor(s.UserType)
}

func (s State) IsFirst() bool {
	return indexOf(s.Steps(), s.Current) == 0
}

func (s State) IsLast() bool {
	steps := s.Steps()
	return indexOf(steps, s.Current) == len(steps)-1
}

// CanContinue reports whether the current step lets the user move on. Review
// is always continuable; it submits instead of navigating.
func CanContinue(s State) bool {
	switch s.Current {
	case StepPersonalInfo:
		return s.PersonalInfo.Valid
	case StepEducation:
		return s.Education.Valid
	case StepJobHistory:
		return s.JobHistory.Valid
	case StepUpload:
		return s.Front.Status == UploadSuccess && s.Back.Status == UploadSuccess
	case StepReview:
		return true
	default:
		return false
	}
}

// Action is a wizard event. The set is closed to this package.
type Action interface {
	apply(State) State
}

type GoNext struct{}

type GoBack struct{}

// SetStep jumps directly to a step, for deep links and resume.
type SetStep struct{ Step Step }

type SetPersonalInfoValid struct{ Valid bool }

type SetPersonalInfoData struct{ Data models.PersonalInfoRequest }

type SetEducationValid struct{ Valid bool }

type SetEducationData struct{ Data models.EducationRequest }

type SetJobHistoryValid struct{ Valid bool }

type SetJobHistoryData struct{ Data models.JobHistoryRequest }

type SetDocumentType struct{ Type models.DocumentType }

type SetUpload struct {
	Side   models.Side
	Upload Upload
}

// Reduce applies a to s and returns the next state. It has no side effects.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func (GoNext) apply(s State) State {
	steps := s.Steps()
	i := indexOf(steps, s.Current)
	if i < 0 || i == len(steps)-1 || !CanContinue(s) {
		return s
	}
	s.Current = steps[i+1]
	return s
}

func (GoBack) apply(s State) State {
	steps := s.Steps()
	i := indexOf(steps, s.Current)
	if i <= 0 {
		return s
	}
	s.Current = steps[i-1]
	return s
}

func (a SetStep) apply(s State) State {
	if indexOf(s.Steps(), a.Step) < 0 {
		return s
	}
	s.Current = a.Step
	return s
}

func (a SetPersonalInfoValid) apply(s State) State {
	s.PersonalInfo.Valid = a.Valid
	return s
}

func (a SetPersonalInfoData) apply(s State) State {
	data := a.Data
	s.PersonalInfo.Data = &data
	return s
}

func (a SetEducationValid) apply(s State) State {
	s.Education.Valid = a.Valid
	return s
}

func (a SetEducationData) apply(s State) State {
	data := a.Data
	s.Education.Data = &data
	return s
}

func (a SetJobHistoryValid) apply(s State) State {
	s.JobHistory.Valid = a.Valid
	return s
}

func (a SetJobHistoryData) apply(s State) State {
	data := a.Data
	data.Jobs = append([]models.JobEntryRequest(nil), a.Data.Jobs...)
	s.JobHistory.Data = &data
	return s
}

func (a SetDocumentType) apply(s State) State {
	s.DocumentType = a.Type
	return s
}

func (a SetUpload) apply(s State) State {
	switch a.Side {
	case models.SideFront:
		s.Front = a.Upload
	case models.SideBack:
		s.Back = a.Upload
	}
	return s
}
