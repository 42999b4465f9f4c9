package domain

import dErrors "vetting/pkg/domain-errors"

// UserType decides which verification sections apply to a user.
//
// Applicants go through the full wizard (education and job history included);
// employees already on staff only confirm personal details and identity.
type UserType string

const (
	UserTypeApplicant UserType = "applicant"
	UserTypeEmployee  UserType = "employee"
)

// ParseUserType validates a user type from external input.
func ParseUserType(s string) (UserType, error) {
	switch UserType(s) {
	case UserTypeApplicant, UserTypeEmployee:
		return UserType(s), nil
	case "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "user type cannot be empty")
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid user type")
	}
}

// RequiresHistory reports whether education and job history are part of
// verification for this user type.
func (t UserType) RequiresHistory() bool {
	return t == UserTypeApplicant
}

func (t UserType) String() string { return string(t) }
