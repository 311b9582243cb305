package events

import "github.com/spec-kit/intake-assistant/internal/domain"

const (
	EventResponseGenerated = "intake.response_generated"
	EventTicketCreated     = "intake.ticket_created"
)

// ResponseGeneratedPayload describes a finished assistant response.
type ResponseGeneratedPayload struct {
	SessionID      string
	Classification domain.RequestKind
	Language       domain.Locale
}

// TicketCreatedPayload describes a routed submission record.
type TicketCreatedPayload struct {
	Record   domain.CreatedRecord
	OpenedBy string
}
