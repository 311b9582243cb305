package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/events"
	"github.com/spec-kit/intake-assistant/internal/observability"
	"github.com/spec-kit/intake-assistant/internal/repository"
	"github.com/spec-kit/intake-assistant/pkg/util"
)

// SubmitResult is the outcome of routing a submission to a record table.
type SubmitResult struct {
	Success       bool              `json:"success"`
	RequestNumber string            `json:"requestNumber,omitempty"`
	RequestType   domain.TicketKind `json:"requestType,omitempty"`
	AISummary     string            `json:"aiSummary,omitempty"`
	AISuggestion  string            `json:"aiSuggestion,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// TicketService analyzes finished submissions and routes them into the
// correct record table.
type TicketService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	completion  completion.Client
	dispatcher  *events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewTicketService builds the ticket router.
func NewTicketService(
	tickets repository.TicketRepository,
	attachments repository.AttachmentRepository,
	client completion.Client,
	dispatcher *events.Dispatcher,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *TicketService {
	return &TicketService{
		tickets:     tickets,
		attachments: attachments,
		completion:  client,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     metrics,
	}
}

// Submit analyzes the submission, picks the target record table, creates
// the record, and attaches any screenshots. Record creation failure is
// the only hard error.
func (s *TicketService) Submit(ctx context.Context, openedBy string, submission domain.Submission, language domain.Locale) SubmitResult {
	analysis := s.Analyze(ctx, submission, language)

	kind := domain.TicketQuery
	if analysis != nil && domain.ValidTicketKind(string(analysis.Kind)) {
		kind = analysis.Kind
	} else {
		kind = s.DetermineRequestType(submission)
	}

	summary := util.TruncateString(submission.InitialRequest, 160)
	if analysis != nil && analysis.Summary != "" {
		summary = util.TruncateString(analysis.Summary, 160)
	}

	table := kind.Table()
	if kind == domain.TicketHR && !s.tickets.HRTableAvailable(ctx) {
		s.logger.Warn("hr case table unavailable, routing to service request")
		table = domain.TicketServiceRequest.Table()
		if analysis != nil {
			summary = "[HR] " + summary
		} else {
			summary = "[HR] " + util.TruncateString(submission.InitialRequest, 150)
		}
	}

	priority := 3
	if kind == domain.TicketQuery {
		priority = 4
	}
	category := "Other"
	if analysis != nil {
		if analysis.Priority >= 1 && analysis.Priority <= 5 {
			priority = analysis.Priority
		}
		if analysis.Category != "" {
			category = analysis.Category
		}
	}

	record := &domain.TicketRecord{
		Number:           s.nextNumber(kind),
		ShortDescription: summary,
		Description:      buildEnhancedDescription(analysis, submission),
		Category:         category,
		Priority:         priority,
		State:            "new",
		OpenedBy:         openedBy,
	}

	if err := s.tickets.Create(ctx, table, record); err != nil {
		s.logger.Error("record creation failed", zap.String("table", table), zap.Error(err))
		return SubmitResult{Success: false, Error: "Failed to create request record"}
	}

	if len(submission.Screenshots) > 0 {
		s.AttachScreenshots(ctx, table, record.ID, submission.Screenshots)
	}

	s.dispatcher.Dispatch(ctx, events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			Record: domain.CreatedRecord{
				Kind:   kind,
				Table:  table,
				ID:     record.ID,
				Number: record.Number,
			},
			OpenedBy: openedBy,
		},
	})

	result := SubmitResult{
		Success:       true,
		RequestNumber: record.Number,
		RequestType:   kind,
	}
	if analysis != nil {
		result.AISummary = analysis.Summary
		result.AISuggestion = analysis.Suggestion
	}
	return result
}

// Analyze asks the model for a structured summary and categorization of
// the whole submission. Returns nil when the model is unavailable or the
// reply is not a usable object.
func (s *TicketService) Analyze(ctx context.Context, submission domain.Submission, language domain.Locale) *domain.TicketAnalysis {
	prompt := buildAnalysisPrompt(submission, language)
	reply := s.completion.Complete(ctx, prompt, completion.Options{
		MaxTokens:       1000,
		AttachmentCount: len(submission.Screenshots),
	})
	if !reply.Success {
		s.metrics.RecordFallback("ticket_analysis")
		return nil
	}

	var analysis domain.TicketAnalysis
	if !completion.ParseObject(reply.Content, &analysis) {
		s.logger.Debug("analysis reply not parseable", zap.String("content", reply.Content))
		s.metrics.RecordFallback("ticket_analysis")
		return nil
	}
	return &analysis
}

func buildAnalysisPrompt(submission domain.Submission, language domain.Locale) string {
	var qa strings.Builder
	for i, question := range submission.Questions {
		fmt.Fprintf(&qa, "%d. %s\n   Answer: %s\n", i+1, question.Text, submission.Response(i))
	}

	languageName := "English"
	if language == domain.LocaleDutch {
		languageName = "Dutch"
	}

	return "Analyze this completed IT intake and categorize it.\n\n" +
		"Original request: \"" + submission.InitialRequest + "\"\n\n" +
		"Questions and answers:\n" + qa.String() + "\n" +
		"Decision rules for ticket_type:\n" +
		"- INC: something is broken or not working\n" +
		"- PRB: a recurring or structural problem\n" +
		"- CHG: a change to an existing system or configuration\n" +
		"- REQ: a request for something new (hardware, software, access)\n" +
		"- HR: personnel matters (leave, payroll, onboarding)\n" +
		"- QUERY: an informational question\n\n" +
		"Respond with only a JSON object with these fields:\n" +
		"- ticket_type: one of INC, PRB, CHG, REQ, HR, QUERY\n" +
		"- summary: one line of at most 160 characters, in " + languageName + "\n" +
		"- analysis: a short analysis of the situation, in " + languageName + "\n" +
		"- suggestion: a suggestion for the assignee, in " + languageName + "\n" +
		"- category: one of Hardware, Software, Network, Access, Other\n" +
		"- priority: a number from 1 (critical) to 5 (low)\n" +
		"- assignment_group: the team best suited to handle this\n\nJSON object:"
}

var typeResponseMap = map[string]domain.TicketKind{
	"incident":         domain.TicketIncident,
	"service request":  domain.TicketServiceRequest,
	"service aanvraag": domain.TicketServiceRequest,
	"problem":          domain.TicketProblem,
	"probleem":         domain.TicketProblem,
	"change":           domain.TicketChange,
	"wijziging":        domain.TicketChange,
	"hr":               domain.TicketHR,
	"personeelszaken":  domain.TicketHR,
	"human resources":  domain.TicketHR,
}

var typeHintMap = map[string]domain.TicketKind{
	"incident": domain.TicketIncident,
	"request":  domain.TicketServiceRequest,
	"problem":  domain.TicketProblem,
	"change":   domain.TicketChange,
	"hr":       domain.TicketHR,
}

// DetermineRequestType picks the record kind without model help: an
// explicit hint wins, then a questionnaire answer in the "type" category,
// then keyword scanning, defaulting to a query.
func (s *TicketService) DetermineRequestType(submission domain.Submission) domain.TicketKind {
	if kind, ok := typeHintMap[strings.ToLower(strings.TrimSpace(submission.TypeHint))]; ok {
		return kind
	}

	for i, question := range submission.Questions {
		if !strings.EqualFold(question.Category, "type") {
			continue
		}
		if kind, ok := typeResponseMap[strings.ToLower(strings.TrimSpace(submission.Response(i)))]; ok {
			return kind
		}
	}

	lower := strings.ToLower(submission.InitialRequest)
	incidentWords := []string{"broken", "error", "not working", "kapot", "fout", "werkt niet"}
	for _, word := range incidentWords {
		if strings.Contains(lower, word) {
			return domain.TicketIncident
		}
	}
	hrWords := []string{
		"hr", "human resources", "personeelszaken", "verlof", "leave", "payroll",
		"salaris", "onboarding", "werknemer", "employee", "vacation", "vakantie",
	}
	for _, word := range hrWords {
		if strings.Contains(lower, word) {
			return domain.TicketHR
		}
	}
	requestKeywords := []string{"need", "request", "access", "nodig", "aanvraag", "toegang"}
	for _, word := range requestKeywords {
		if strings.Contains(lower, word) {
			return domain.TicketServiceRequest
		}
	}
	return domain.TicketQuery
}

// buildEnhancedDescription assembles the full record description: the
// analysis block when available, the original request, and the numbered
// question/answer transcript.
func buildEnhancedDescription(analysis *domain.TicketAnalysis, submission domain.Submission) string {
	var b strings.Builder

	if analysis != nil {
		b.WriteString("==== AI ANALYSIS ====\n")
		fmt.Fprintf(&b, "Summary: %s\n", analysis.Summary)
		fmt.Fprintf(&b, "Analysis: %s\n", analysis.Analysis)
		fmt.Fprintf(&b, "AI Suggestion: %s\n", analysis.Suggestion)
		fmt.Fprintf(&b, "Category: %s\n", analysis.Category)
		b.WriteString("AI Confidence: High\n")
		b.WriteString("\n")
	}

	b.WriteString("==== ORIGINAL REQUEST ====\n")
	b.WriteString(submission.InitialRequest)
	b.WriteString("\n\n==== Q&A DETAILS ====\n")
	for i, question := range submission.Questions {
		fmt.Fprintf(&b, "%d. %s\n   Answer: %s\n\n", i+1, question.Text, submission.Response(i))
	}
	return b.String()
}

// AttachScreenshots stores every screenshot and appends an attachment
// summary block to the record's comments and work notes. Failures are
// reported per item, never propagated.
func (s *TicketService) AttachScreenshots(ctx context.Context, table, recordID string, screenshots []domain.Screenshot) {
	var report strings.Builder
	fmt.Fprintf(&report, "\n\n=== UPLOADED SCREENSHOTS ===\nUser uploaded %d screenshot(s):\n\n", len(screenshots))

	successful, failed := 0, 0
	for i, shot := range screenshots {
		if shot.Data == "" {
			failed++
			fmt.Fprintf(&report, "%d. ❌ %s - Failed (missing data)\n", i+1, shot.FileName)
			continue
		}

		body, err := decodeScreenshot(shot.Data)
		if err == nil {
			attachment := &domain.Attachment{
				RecordTable: table,
				RecordID:    recordID,
				FileName:    shot.FileName,
				ContentType: shot.ContentType,
				SizeBytes:   int64(len(body)),
			}
			err = s.attachments.Write(ctx, attachment, body)
		}

		if err != nil {
			failed++
			s.logger.Warn("screenshot attach failed", zap.String("file", shot.FileName), zap.Error(err))
			fmt.Fprintf(&report, "%d. ❌ %s - Error: %s\n", i+1, shot.FileName, err.Error())
			continue
		}

		successful++
		fmt.Fprintf(&report, "%d. ✅ %s (%s) - Successfully attached\n", i+1, shot.FileName, util.FormatFileSize(shot.SizeBytes))
	}

	fmt.Fprintf(&report, "\nSummary: %d successful, %d failed\n=========================\n", successful, failed)

	if err := s.tickets.AppendNotes(ctx, table, recordID, report.String()); err != nil {
		s.logger.Warn("failed to append attachment summary", zap.Error(err))
	}
}

func decodeScreenshot(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx != -1 && strings.Contains(data[:idx], "base64") {
		data = data[idx+1:]
	}
	return base64.StdEncoding.DecodeString(data)
}

func (s *TicketService) nextNumber(kind domain.TicketKind) string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return kind.NumberPrefix() + fragment
}
