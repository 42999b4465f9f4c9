package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventVerificationApproved.Category())
	assert.Equal(t, CategoryCompliance, EventVerificationSubmitted.Category())
	assert.Equal(t, CategorySecurity, EventVerificationsExported.Category())
	assert.Equal(t, CategoryOperations, EventSectionSaved.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}
