package audit

import (
	"context"
	"time"

	id "vetting/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers verification outcomes and anything a regulator
	// may ask to see. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access to personal data in bulk and denied
	// privileged actions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from services to capture key actions. It is separate from
// the verification audit log, which only holds admin decisions.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID is set when someone other than UserID performed the action.
	ActorID string
}

type AuditEvent string

const (
	EventVerificationSubmitted     AuditEvent = "verification_submitted"
	EventVerificationApproved      AuditEvent = "verification_approved"
	EventVerificationRejected      AuditEvent = "verification_rejected"
	EventVerificationInfoRequested AuditEvent = "verification_info_requested"
	EventBulkActionCompleted       AuditEvent = "verification_bulk_action"
	EventVerificationsExported     AuditEvent = "verifications_exported"

	EventSectionSaved         AuditEvent = "section_saved"
	EventDocumentImageRemoved AuditEvent = "document_image_removed"
	EventStatsRefreshed       AuditEvent = "stats_refreshed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationSubmitted:     CategoryCompliance,
	EventVerificationApproved:      CategoryCompliance,
	EventVerificationRejected:      CategoryCompliance,
	EventVerificationInfoRequested: CategoryCompliance,

	EventVerificationsExported: CategorySecurity,
	EventBulkActionCompleted:   CategorySecurity,

	EventSectionSaved:         CategoryOperations,
	EventDocumentImageRemoved: CategoryOperations,
	EventStatsRefreshed:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
