package models

import (
	"time"

	id "vetting/pkg/domain"
)

// EducationLevel is the highest completed level of education.
type EducationLevel string

const (
	LevelHighSchool EducationLevel = "high_school"
	LevelDiploma    EducationLevel = "diploma"
	LevelBachelor   EducationLevel = "bachelor"
	LevelMaster     EducationLevel = "master"
	LevelDoctorate  EducationLevel = "doctorate"
	LevelOther      EducationLevel = "other"
)

var levelLabels = map[EducationLevel]string{
	LevelHighSchool: "High School",
	LevelDiploma:    "Diploma",
	LevelBachelor:   "Bachelor's Degree",
	LevelMaster:     "Master's Degree",
	LevelDoctorate:  "Doctorate",
	LevelOther:      "Other",
}

// Label is the display name; unknown levels are shown as stored.
func (l EducationLevel) Label() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return string(l)
}

func (l EducationLevel) IsValid() bool {
	_, ok := levelLabels[l]
	return ok
}

// Education is the single active education record of a user.
type Education struct {
	ID             id.EducationID `json:"id"`
	UserID         id.UserID      `json:"user_id"`
	Level          EducationLevel `json:"level"`
	SchoolName     string         `json:"school_name"`
	Degree         string         `json:"degree"`
	FieldOfStudy   string         `json:"field_of_study"`
	GraduationYear *int           `json:"graduation_year,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsComplete holds when level and school name are present.
func (e *Education) IsComplete() bool {
	if e == nil {
		return false
	}
	return present(string(e.Level)) && present(e.SchoolName)
}
