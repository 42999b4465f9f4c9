package models

import (
	"strings"
	"time"

	id "vetting/pkg/domain"
)

// PersonalInfo is the profile section of the verification wizard.
type PersonalInfo struct {
	UserID      id.UserID  `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Gender      string     `json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsComplete holds when first name, last name and gender are present.
func (p *PersonalInfo) IsComplete() bool {
	if p == nil {
		return false
	}
	return present(p.FirstName) && present(p.LastName) && present(p.Gender)
}

// FullName joins the trimmed name parts.
func (p *PersonalInfo) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
