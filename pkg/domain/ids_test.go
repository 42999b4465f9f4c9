package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vetting/pkg/domain-errors"
)

// TestParseUUID_Invariants validates that IDs must be valid, non-empty,
// non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVerificationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseVerificationID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, VerificationID(validUUID), id)
	})
}

func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestIDs_JSON(t *testing.T) {
	raw := uuid.New()
	out, err := json.Marshal(struct {
		ID VerificationID `json:"id"`
	}{ID: VerificationID(raw)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+raw.String()+`"}`, string(out))
}

func TestCaller(t *testing.T) {
	admin := Caller{UserID: UserID(uuid.New()), Role: RoleAdmin}
	user := Caller{UserID: UserID(uuid.New()), Role: RoleUser}

	t.Run("anonymous caller is unauthorized", func(t *testing.T) {
		err := Caller{}.RequireAdmin()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.True(t, dErrors.HasCode(Caller{}.RequireAuthenticated(), dErrors.CodeUnauthorized))
	})

	t.Run("non-admin is forbidden on privileged checks", func(t *testing.T) {
		assert.NoError(t, user.RequireAuthenticated())
		assert.True(t, dErrors.HasCode(user.RequireAdmin(), dErrors.CodeForbidden))
	})

	t.Run("admin passes", func(t *testing.T) {
		assert.NoError(t, admin.RequireAdmin())
		assert.True(t, admin.IsAdmin())
	})

	t.Run("role parsing", func(t *testing.T) {
		r, err := ParseRole("")
		require.NoError(t, err)
		assert.Equal(t, RoleUser, r)
		_, err = ParseRole("root")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestUserType_RequiresHistory(t *testing.T) {
	assert.True(t, UserTypeApplicant.RequiresHistory())
	assert.False(t, UserTypeEmployee.RequiresHistory())

	_, err := ParseUserType("contractor")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
