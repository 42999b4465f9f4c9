package models

import (
	"strings"
	"time"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

const (
	maxNameLength        = 100
	maxFieldLength       = 255
	maxDescriptionLength = 2000
	maxJobEntries        = 50
)

// Section requests are drafts: fields may be blank. Validate only rejects
// malformed values, not missing ones.

type PersonalInfoRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (r *PersonalInfoRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Gender = strings.ToLower(strings.TrimSpace(r.Gender))
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
}

func (r *PersonalInfoRequest) Validate() error {
	r.Normalize()
	if len(r.FirstName) > maxNameLength || len(r.LastName) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if len(r.Phone) > maxFieldLength || len(r.Address) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "contact details are too long")
	}
	if _, err := parseDate(r.DateOfBirth, "date_of_birth"); err != nil {
		return err
	}
	return nil
}

// ToModel builds the section for userID. Call after Validate.
func (r *PersonalInfoRequest) ToModel(userID id.UserID, now time.Time) *PersonalInfo {
	dob, _ := parseDate(r.DateOfBirth, "date_of_birth")
	return &PersonalInfo{
		UserID:      userID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Gender:      r.Gender,
		DateOfBirth: dob,
		Phone:       r.Phone,
		Address:     r.Address,
		UpdatedAt:   now,
	}
}

type EducationRequest struct {
	Level          string `json:"level"`
	SchoolName     string `json:"school_name"`
	Degree         string `json:"degree"`
	FieldOfStudy   string `json:"field_of_study"`
	GraduationYear *int   `json:"graduation_year,omitempty"`
}

func (r *EducationRequest) Normalize() {
	r.Level = strings.ToLower(strings.TrimSpace(r.Level))
	r.SchoolName = strings.TrimSpace(r.SchoolName)
	r.Degree = strings.TrimSpace(r.Degree)
	r.FieldOfStudy = strings.TrimSpace(r.FieldOfStudy)
}

func (r *EducationRequest) Validate() error {
	r.Normalize()
	if r.Level != "" && !EducationLevel(r.Level).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid education level")
	}
	if len(r.SchoolName) > maxFieldLength || len(r.Degree) > maxFieldLength || len(r.FieldOfStudy) > maxFieldLength {
		return dErrors.New(dErrors.CodeValidation, "education field is too long")
	}
	if r.GraduationYear != nil && (*r.GraduationYear < 1900 || *r.GraduationYear > 2200) {
		return dErrors.New(dErrors.CodeValidation, "graduation_year is out of range")
	}
	return nil
}

func (r *EducationRequest) ToModel(userID id.UserID, now time.Time) *Education {
	return &Education{
		ID:             id.NewEducationID(),
		UserID:         userID,
		Level:          EducationLevel(r.Level),
		SchoolName:     r.SchoolName,
		Degree:         r.Degree,
		FieldOfStudy:   r.FieldOfStudy,
		GraduationYear: r.GraduationYear,
		UpdatedAt:      now,
	}
}

type JobEntryRequest struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type JobHistoryRequest struct {
	Jobs []JobEntryRequest `json:"jobs"`
}

func (r *JobHistoryRequest) Normalize() {
	for i := range r.Jobs {
		j := &r.Jobs[i]
		j.Company = strings.TrimSpace(j.Company)
		j.Title = strings.TrimSpace(j.Title)
		j.StartDate = strings.TrimSpace(j.StartDate)
		j.EndDate = strings.TrimSpace(j.EndDate)
		j.Description = strings.TrimSpace(j.Description)
	}
}

// Validate requires company and title on every entry; an entry without them
// cannot be shown in the history summary.
func (r *JobHistoryRequest) Validate() error {
	r.Normalize()
	if len(r.Jobs) > maxJobEntries {
		return dErrors.New(dErrors.CodeValidation, "too many job entries")
	}
	for _, j := range r.Jobs {
		if j.Company == "" || j.Title == "" {
			return dErrors.New(dErrors.CodeValidation, "company and title are required")
		}
		if len(j.Company) > maxFieldLength || len(j.Title) > maxFieldLength || len(j.Description) > maxDescriptionLength {
			return dErrors.New(dErrors.CodeValidation, "job field is too long")
		}
		start, err := parseDate(j.StartDate, "start_date")
		if err != nil {
			return err
		}
		end, err := parseDate(j.EndDate, "end_date")
		if err != nil {
			return err
		}
		if start != nil && end != nil && end.Before(*start) {
			return dErrors.New(dErrors.CodeValidation, "end_date must not be before start_date")
		}
	}
	return nil
}

func (r *JobHistoryRequest) ToModels(userID id.UserID) []JobEntry {
	out := make([]JobEntry, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		start, _ := parseDate(j.StartDate, "start_date")
		end, _ := parseDate(j.EndDate, "end_date")
		if j.Current {
			end = nil
		}
		out = append(out, JobEntry{
			ID:          id.NewJobID(),
			UserID:      userID,
			Company:     j.Company,
			Title:       j.Title,
			StartDate:   start,
			EndDate:     end,
			Current:     j.Current,
			Description: j.Description,
		})
	}
	return out
}

func (d *DocumentDraft) Normalize() {
	d.DocumentType = DocumentType(strings.ToLower(strings.TrimSpace(string(d.DocumentType))))
	d.FrontImageURL = normalizeURL(d.FrontImageURL)
	d.BackImageURL = normalizeURL(d.BackImageURL)
}

func (d *DocumentDraft) Validate() error {
	d.Normalize()
	if d.DocumentType != "" && !d.DocumentType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid document type")
	}
	return nil
}

func parseDate(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}
