package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/events"
	"github.com/spec-kit/intake-assistant/internal/observability"
)

type stubTickets struct {
	created     map[string]*domain.TicketRecord
	notes       map[string][]string
	createErr   error
	hrAvailable bool
}

func newStubTickets() *stubTickets {
	return &stubTickets{
		created:     make(map[string]*domain.TicketRecord),
		notes:       make(map[string][]string),
		hrAvailable: true,
	}
}

func (s *stubTickets) Create(ctx context.Context, table string, record *domain.TicketRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	record.ID = "rec-" + table
	s.created[table] = record
	return nil
}

func (s *stubTickets) AppendNotes(ctx context.Context, table, id, comment string) error {
	s.notes[table] = append(s.notes[table], comment)
	return nil
}

func (s *stubTickets) HRTableAvailable(ctx context.Context) bool { return s.hrAvailable }

type stubAttachments struct {
	written []domain.Attachment
	bodies  [][]byte
	err     error
}

func (s *stubAttachments) Write(ctx context.Context, attachment *domain.Attachment, body []byte) error {
	if s.err != nil {
		return s.err
	}
	attachment.ID = "att-1"
	s.written = append(s.written, *attachment)
	s.bodies = append(s.bodies, body)
	return nil
}

func newTicketService(tickets *stubTickets, attachments *stubAttachments, client completion.Client) *TicketService {
	if attachments == nil {
		attachments = &stubAttachments{}
	}
	if client == nil {
		client = &stubCompletion{}
	}
	return NewTicketService(tickets, attachments, client,
		events.NewDispatcher(zap.NewNop()), zap.NewNop(), observability.NewMetrics())
}

func TestDetermineRequestTypeHintWins(t *testing.T) {
	svc := newTicketService(newStubTickets(), nil, nil)

	assert.Equal(t, domain.TicketHR, svc.DetermineRequestType(domain.Submission{
		InitialRequest: "my screen is broken",
		TypeHint:       "hr",
	}))
}

func TestDetermineRequestTypeFromTypeQuestion(t *testing.T) {
	svc := newTicketService(newStubTickets(), nil, nil)

	submission := domain.Submission{
		InitialRequest: "help me",
		Questions: []domain.Question{
			{Text: "What kind of request is this?", Category: "type"},
		},
		Responses: []string{"Service Aanvraag"},
	}
	assert.Equal(t, domain.TicketServiceRequest, svc.DetermineRequestType(submission))
}

func TestDetermineRequestTypeKeywordChain(t *testing.T) {
	svc := newTicketService(newStubTickets(), nil, nil)

	cases := map[string]domain.TicketKind{
		"my screen is broken":                domain.TicketIncident,
		"ik wil verlof opnemen":              domain.TicketHR,
		"I need access to the shared drive":  domain.TicketServiceRequest,
		"how many monitors fit on this desk": domain.TicketQuery,
	}
	for request, want := range cases {
		got := svc.DetermineRequestType(domain.Submission{InitialRequest: request})
		assert.Equal(t, want, got, request)
	}
}

func TestSubmitWithAnalysis(t *testing.T) {
	tickets := newStubTickets()
	client := &stubCompletion{reply: completion.Result{Success: true, Content: `{
		"ticket_type": "INC",
		"summary": "Laptop will not boot",
		"analysis": "Likely hardware failure",
		"suggestion": "Swap device",
		"category": "Hardware",
		"priority": 2,
		"assignment_group": "EUC"
	}`}}
	svc := newTicketService(tickets, nil, client)

	submission := domain.Submission{
		InitialRequest: "my laptop will not start anymore",
		Questions:      []domain.Question{{Text: "When did it start?"}},
		Responses:      []string{"this morning"},
	}
	result := svc.Submit(context.Background(), "user-1", submission, domain.LocaleEnglish)

	require.True(t, result.Success)
	assert.Equal(t, domain.TicketIncident, result.RequestType)
	assert.True(t, strings.HasPrefix(result.RequestNumber, "INC"))
	assert.Equal(t, "Laptop will not boot", result.AISummary)
	assert.Equal(t, "Swap device", result.AISuggestion)

	record := tickets.created["incidents"]
	require.NotNil(t, record)
	assert.Equal(t, 2, record.Priority)
	assert.Equal(t, "Hardware", record.Category)
	assert.Equal(t, "user-1", record.OpenedBy)
	assert.Contains(t, record.Description, "==== AI ANALYSIS ====")
	assert.Contains(t, record.Description, "==== ORIGINAL REQUEST ====")
	assert.Contains(t, record.Description, "1. When did it start?")
	assert.Contains(t, record.Description, "Answer: this morning")
}

func TestSubmitWithoutAnalysisUsesKeywordRouting(t *testing.T) {
	tickets := newStubTickets()
	svc := newTicketService(tickets, nil, &stubCompletion{})

	result := svc.Submit(context.Background(), "user-1", domain.Submission{
		InitialRequest: "my screen is broken",
	}, domain.LocaleEnglish)

	require.True(t, result.Success)
	assert.Equal(t, domain.TicketIncident, result.RequestType)
	assert.Empty(t, result.AISummary)

	record := tickets.created["incidents"]
	require.NotNil(t, record)
	assert.Equal(t, 3, record.Priority)
	assert.Equal(t, "my screen is broken", record.ShortDescription)
	assert.NotContains(t, record.Description, "==== AI ANALYSIS ====")
}

func TestSubmitQueryGetsLowerPriority(t *testing.T) {
	tickets := newStubTickets()
	svc := newTicketService(tickets, nil, &stubCompletion{})

	result := svc.Submit(context.Background(), "user-1", domain.Submission{
		InitialRequest: "how many monitors fit on this desk",
	}, domain.LocaleEnglish)

	require.True(t, result.Success)
	assert.Equal(t, domain.TicketQuery, result.RequestType)
	assert.True(t, strings.HasPrefix(result.RequestNumber, "QRY"))
	assert.Equal(t, 4, tickets.created["queries"].Priority)
}

func TestSubmitHRFallsBackWhenTableMissing(t *testing.T) {
	tickets := newStubTickets()
	tickets.hrAvailable = false
	client := &stubCompletion{reply: completion.Result{Success: true, Content: `{
		"ticket_type": "HR",
		"summary": "Leave request for September",
		"priority": 3
	}`}}
	svc := newTicketService(tickets, nil, client)

	result := svc.Submit(context.Background(), "user-1", domain.Submission{
		InitialRequest: "ik wil verlof opnemen in september",
	}, domain.LocaleDutch)

	require.True(t, result.Success)
	record := tickets.created["service_requests"]
	require.NotNil(t, record)
	assert.Equal(t, "[HR] Leave request for September", record.ShortDescription)
	assert.Nil(t, tickets.created["hr_cases"])
}

func TestSubmitRecordCreationFailure(t *testing.T) {
	tickets := newStubTickets()
	tickets.createErr = errors.New("db down")
	svc := newTicketService(tickets, nil, &stubCompletion{})

	result := svc.Submit(context.Background(), "user-1", domain.Submission{InitialRequest: "my screen is broken"}, domain.LocaleEnglish)
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to create request record", result.Error)
}

func TestAttachScreenshots(t *testing.T) {
	tickets := newStubTickets()
	attachments := &stubAttachments{}
	svc := newTicketService(tickets, attachments, &stubCompletion{})

	svc.AttachScreenshots(context.Background(), "incidents", "rec-1", []domain.Screenshot{
		{FileName: "error.png", ContentType: "image/png", Data: "data:image/png;base64,aGVsbG8=", SizeBytes: 5},
		{FileName: "empty.png"},
	})

	require.Len(t, attachments.written, 1)
	assert.Equal(t, "error.png", attachments.written[0].FileName)
	assert.Equal(t, []byte("hello"), attachments.bodies[0])

	require.Len(t, tickets.notes["incidents"], 1)
	note := tickets.notes["incidents"][0]
	assert.Contains(t, note, "=== UPLOADED SCREENSHOTS ===")
	assert.Contains(t, note, "✅ error.png")
	assert.Contains(t, note, "❌ empty.png - Failed (missing data)")
	assert.Contains(t, note, "Summary: 1 successful, 1 failed")
}

func TestSubmitAttachesScreenshots(t *testing.T) {
	tickets := newStubTickets()
	attachments := &stubAttachments{}
	svc := newTicketService(tickets, attachments, &stubCompletion{})

	result := svc.Submit(context.Background(), "user-1", domain.Submission{
		InitialRequest: "my screen is broken",
		Screenshots:    []domain.Screenshot{{FileName: "shot.png", Data: "aGVsbG8="}},
	}, domain.LocaleEnglish)

	require.True(t, result.Success)
	assert.Len(t, attachments.written, 1)
	assert.NotEmpty(t, tickets.notes["incidents"])
}
