package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/observability"
)

// QuestionSet is the generated intake questionnaire. The service always
// produces at least the default questions, so callers never see a
// failure.
type QuestionSet struct {
	Questions     []domain.Question `json:"questions"`
	UsingFallback bool              `json:"usingFallback,omitempty"`
}

// QuestionService generates follow-up intake questions for a request.
type QuestionService struct {
	completion completion.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewQuestionService builds the question generator.
func NewQuestionService(client completion.Client, logger *zap.Logger, metrics *observability.Metrics) *QuestionService {
	return &QuestionService{completion: client, logger: logger, metrics: metrics}
}

// Generate asks the model for one to five targeted questions tailored to
// the request type. Any failure yields the two default questions instead.
func (s *QuestionService) Generate(ctx context.Context, request string, kind domain.RequestKind, language domain.Locale) QuestionSet {
	prompt := s.buildPrompt(request, kind, language)
	reply := s.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 2000})
	if !reply.Success {
		s.metrics.RecordFallback("question_generation")
		return QuestionSet{Questions: defaultQuestions(language), UsingFallback: true}
	}

	var questions []domain.Question
	if !completion.ParseStructured(reply.Content, &questions) || len(questions) == 0 {
		s.logger.Debug("question reply not parseable", zap.String("content", reply.Content))
		s.metrics.RecordFallback("question_generation")
		return QuestionSet{Questions: defaultQuestions(language), UsingFallback: true}
	}

	if len(questions) > 5 {
		questions = questions[:5]
	}
	return QuestionSet{Questions: questions}
}

func (s *QuestionService) buildPrompt(request string, kind domain.RequestKind, language domain.Locale) string {
	var guidance string
	switch kind {
	case domain.KindServiceRequest:
		guidance = "Focus on specifics of what is being requested: exact model or product, quantity, delivery or access details, business justification."
	case domain.KindQuestion:
		guidance = "Focus on clarifying what information the user needs and in what context."
	default:
		guidance = "Focus on reproducing the problem: when it started, what the user sees, what was already tried, and how urgent it is. " +
			"For personnel matters (leave, payroll, onboarding) ask about dates, the employee involved, and any reference numbers."
	}

	if language == domain.LocaleDutch {
		return "Genereer intake vragen voor deze IT-aanvraag.\n\n" +
			"Aanvraag: \"" + request + "\"\n\n" +
			guidance + "\n\n" +
			"Regels:\n" +
			"- Minimaal 1, maximaal 5 vragen\n" +
			"- Schrijf de vragen in het Nederlands\n" +
			"- Elke vraag is een JSON object met velden: question, type (text, textarea, select, date of yesno), required (boolean), category, placeholder, en bij type select ook options\n\n" +
			"Antwoord met alleen een JSON array van vraag objecten.\n\nJSON array:"
	}

	return "Generate intake questions for this IT request.\n\n" +
		"Request: \"" + request + "\"\n\n" +
		guidance + "\n\n" +
		"Rules:\n" +
		"- At least 1 and at most 5 questions\n" +
		"- Write the questions in English\n" +
		"- Each question is a JSON object with fields: question, type (text, textarea, select, date or yesno), required (boolean), category, placeholder, and options when type is select\n\n" +
		"Respond with only a JSON array of question objects.\n\nJSON array:"
}

func defaultQuestions(language domain.Locale) []domain.Question {
	if language == domain.LocaleDutch {
		return []domain.Question{
			{
				Text:        "Wanneer heeft u dit voor het eerst opgemerkt?",
				InputType:   domain.InputText,
				Required:    true,
				Category:    "timeline",
				Placeholder: "bijv. Vanmorgen om 9 uur",
			},
			{
				Text:        "Wat hebt u al geprobeerd om het op te lossen?",
				InputType:   domain.InputTextarea,
				Required:    false,
				Category:    "troubleshooting",
				Placeholder: "bijv. Opnieuw opgestart, opnieuw ingelogd",
			},
		}
	}
	return []domain.Question{
		{
			Text:        "When did you first notice this?",
			InputType:   domain.InputText,
			Required:    true,
			Category:    "timeline",
			Placeholder: "e.g. This morning around 9 AM",
		},
		{
			Text:        "What have you already tried to solve this?",
			InputType:   domain.InputTextarea,
			Required:    false,
			Category:    "troubleshooting",
			Placeholder: "e.g. Restarted, signed in again",
		},
	}
}
