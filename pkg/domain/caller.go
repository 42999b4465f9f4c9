package domain

import dErrors "vetting/pkg/domain-errors"

// Role is the authorization role carried by an authenticated caller.
// Invariant: one of RoleAdmin or RoleUser.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole constructs a Role from token claims or stored rows. An empty value
// defaults to RoleUser; anything else outside the set is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleAdmin, RoleUser:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
}

func (r Role) String() string { return string(r) }

// Caller is the identity on whose behalf an operation runs. It is resolved once
// at the transport boundary and passed down explicitly.
type Caller struct {
	UserID UserID
	Role   Role
}

// IsAuthenticated reports whether the caller carries a user identity.
func (c Caller) IsAuthenticated() bool {
	return !c.UserID.IsNil()
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.IsAuthenticated() && c.Role == RoleAdmin
}

// RequireAuthenticated returns CodeUnauthorized for an anonymous caller.
func (c Caller) RequireAuthenticated() error {
	if !c.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

// RequireAdmin returns CodeUnauthorized for an anonymous caller and
// CodeForbidden for an authenticated non-admin.
func (c Caller) RequireAdmin() error {
	if err := c.RequireAuthenticated(); err != nil {
		return err
	}
	if c.Role != RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}
