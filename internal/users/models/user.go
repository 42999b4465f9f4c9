package models

import (
	"strings"
	"time"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

// User is an account that goes through verification. Verified mirrors the
// latest approval so other parts of the product can gate on it without
// reading verification records.
type User struct {
	ID        id.UserID   `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      id.Role     `json:"role"`
	Type      id.UserType `json:"user_type"`
	Verified  bool        `json:"verified"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewUser constructs a user, normalizing the email.
func NewUser(userID id.UserID, email, firstName, lastName string, role id.Role, userType id.UserType, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "valid email required")
	}
	if role == "" {
		role = id.RoleUser
	}
	if userType == "" {
		userType = id.UserTypeEmployee
	}
	return &User{
		ID:        userID,
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Role:      role,
		Type:      userType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DisplayName falls back to the email when no name is on file.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// ApplyVerified sets the denormalized verified flag.
func (u *User) ApplyVerified(now time.Time) {
	u.Verified = true
	u.UpdatedAt = now
}
