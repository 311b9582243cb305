package domain

import "time"

// TicketKind is the closed set of record categories a submission can be
// routed to.
type TicketKind string

const (
	TicketIncident       TicketKind = "INC"
	TicketProblem        TicketKind = "PRB"
	TicketChange         TicketKind = "CHG"
	TicketServiceRequest TicketKind = "REQ"
	TicketHR             TicketKind = "HR"
	TicketQuery          TicketKind = "QUERY"
)

// ValidTicketKind reports whether s is one of the six routable kinds.
func ValidTicketKind(s string) bool {
	switch TicketKind(s) {
	case TicketIncident, TicketProblem, TicketChange, TicketServiceRequest, TicketHR, TicketQuery:
		return true
	}
	return false
}

// Table returns the record table a ticket kind is stored in.
func (k TicketKind) Table() string {
	switch k {
	case TicketIncident:
		return "incidents"
	case TicketProblem:
		return "problems"
	case TicketChange:
		return "change_requests"
	case TicketServiceRequest:
		return "service_requests"
	case TicketHR:
		return "hr_cases"
	default:
		return "queries"
	}
}

// NumberPrefix returns the record number prefix for a ticket kind.
func (k TicketKind) NumberPrefix() string {
	switch k {
	case TicketIncident:
		return "INC"
	case TicketProblem:
		return "PRB"
	case TicketChange:
		return "CHG"
	case TicketServiceRequest:
		return "REQ"
	case TicketHR:
		return "HRC"
	default:
		return "QRY"
	}
}

// TicketAnalysis is the structured summary derived once from a submission.
// A nil analysis triggers the keyword-based kind fallback.
type TicketAnalysis struct {
	Kind            TicketKind `json:"ticket_type"`
	Summary         string     `json:"summary"`
	Analysis        string     `json:"analysis"`
	Suggestion      string     `json:"suggestion"`
	Category        string     `json:"category"`
	Priority        int        `json:"priority"`
	AssignmentGroup string     `json:"assignment_group"`
}

// TicketRecord is a persisted intake ticket in one of the kind tables.
type TicketRecord struct {
	ID               string
	Number           string
	ShortDescription string
	Description      string
	Category         string
	Priority         int
	State            string
	Comments         string
	WorkNotes        string
	OpenedBy         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreatedRecord identifies a record produced by routing a submission.
type CreatedRecord struct {
	Kind   TicketKind `json:"type"`
	Table  string     `json:"table"`
	ID     string     `json:"sys_id"`
	Number string     `json:"number"`
}
