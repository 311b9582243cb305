package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/observability"
)

var requestWords = map[domain.Locale][]string{
	domain.LocaleDutch:   {"aanvragen", "bestellen", "wil", "nodig", "aanvraag", "order"},
	domain.LocaleEnglish: {"request", "order", "need", "want", "purchase"},
}

var questionWords = map[domain.Locale][]string{
	domain.LocaleDutch:   {"hoe", "wat", "waar", "wanneer", "waarom", "wie", "welke"},
	domain.LocaleEnglish: {"how", "what", "where", "when", "why", "who", "which"},
}

var problemWords = map[domain.Locale][]string{
	domain.LocaleDutch:   {"werkt niet", "kapot", "fout", "probleem", "error", "kan niet", "lukt niet"},
	domain.LocaleEnglish: {"not working", "broken", "error", "problem", "cannot", "can't", "unable", "failed"},
}

var serviceKeywords = map[domain.Locale][]string{
	domain.LocaleDutch: {
		"aanvragen", "bestellen", "order", "service", "catalog", "catalogus",
		"nieuw", "apparatuur", "software", "hardware", "telefoon", "laptop",
		"computer", "toestemming", "toegang", "account", "licentie", "aanvraag",
		"iphone", "ipad", "macbook", "monitor", "toetsenbord", "muis", "headset",
	},
	domain.LocaleEnglish: {
		"request", "order", "purchase", "service", "catalog", "catalogue",
		"new", "equipment", "software", "hardware", "phone", "laptop",
		"computer", "permission", "access", "account", "license", "application",
		"iphone", "ipad", "macbook", "monitor", "keyboard", "mouse", "headset",
	},
}

// ClassificationService decides whether a request is a question, a
// service request, or an incident. The model handles nuance; keyword
// heuristics take over when it is unavailable so classification never
// fails.
type ClassificationService struct {
	completion completion.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClassificationService builds the classifier.
func NewClassificationService(client completion.Client, logger *zap.Logger, metrics *observability.Metrics) *ClassificationService {
	return &ClassificationService{completion: client, logger: logger, metrics: metrics}
}

// Classify labels the request. It always returns a usable classification:
// worst case is incident with low confidence.
func (s *ClassificationService) Classify(ctx context.Context, request string, language domain.Locale, attachmentCount int) domain.Classification {
	var prompt string
	if language == domain.LocaleDutch {
		prompt = "Classificeer deze IT-aanvraag in precies een van drie categorieen.\n\n" +
			"Aanvraag: \"" + request + "\"\n\n" +
			"Categorieen:\n" +
			"- QUESTION: gebruiker wil informatie of uitleg (hoe werkt iets, waar vind ik)\n" +
			"- REQUEST: gebruiker wil iets nieuws aanvragen of bestellen (hardware, software, toegang)\n" +
			"- INCIDENT: iets is kapot, werkt niet, of blokkeert de gebruiker\n\n" +
			"Antwoord met alleen het ene woord: QUESTION, REQUEST of INCIDENT."
	} else {
		prompt = "Classify this IT request into exactly one of three categories.\n\n" +
			"Request: \"" + request + "\"\n\n" +
			"Categories:\n" +
			"- QUESTION: the user wants information or an explanation (how does something work, where do I find)\n" +
			"- REQUEST: the user wants to request or order something new (hardware, software, access)\n" +
			"- INCIDENT: something is broken, not working, or blocking the user\n\n" +
			"Answer with only the single word: QUESTION, REQUEST or INCIDENT."
	}

	reply := s.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 50, AttachmentCount: attachmentCount})
	if !reply.Success {
		s.logger.Debug("classification completion unavailable, using keyword heuristics")
		s.metrics.RecordFallback("classification")
		return domain.Classification{
			Kind:             s.classifyByKeywords(request, language),
			Confidence:       domain.ConfidenceMedium,
			IsServiceRequest: s.detectServiceRequestIntent(request, language),
		}
	}

	label := strings.ToUpper(reply.Content)
	switch {
	case strings.Contains(label, "QUESTION"):
		return domain.Classification{Kind: domain.KindQuestion, Confidence: domain.ConfidenceHigh}
	case strings.Contains(label, "REQUEST"):
		return domain.Classification{Kind: domain.KindServiceRequest, Confidence: domain.ConfidenceHigh, IsServiceRequest: true}
	case strings.Contains(label, "INCIDENT"):
		return domain.Classification{Kind: domain.KindIncident, Confidence: domain.ConfidenceHigh}
	}

	s.logger.Debug("unrecognized classification label", zap.String("label", reply.Content))
	return domain.Classification{Kind: domain.KindIncident, Confidence: domain.ConfidenceLow}
}

// classifyByKeywords applies the heuristic precedence: request words win,
// then a leading question word without any problem phrase, else incident.
func (s *ClassificationService) classifyByKeywords(request string, language domain.Locale) domain.RequestKind {
	lower := strings.ToLower(request)

	for _, word := range requestWords[language] {
		if strings.Contains(lower, word) {
			return domain.KindServiceRequest
		}
	}

	startsWithQuestion := false
	for _, word := range questionWords[language] {
		if strings.HasPrefix(lower, word) {
			startsWithQuestion = true
			break
		}
	}
	if startsWithQuestion {
		hasProblem := false
		for _, phrase := range problemWords[language] {
			if strings.Contains(lower, phrase) {
				hasProblem = true
				break
			}
		}
		if !hasProblem {
			return domain.KindQuestion
		}
	}

	return domain.KindIncident
}

// detectServiceRequestIntent checks for catalog-order vocabulary
// independently of the three-way classification.
func (s *ClassificationService) detectServiceRequestIntent(request string, language domain.Locale) bool {
	lower := strings.ToLower(request)
	for _, word := range serviceKeywords[language] {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
