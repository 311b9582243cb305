package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/observability"
	"github.com/spec-kit/intake-assistant/pkg/util"
)

// DirectAnswer is the rendered response for an informational question.
type DirectAnswer struct {
	AnswerHTML string
	Confidence domain.Confidence
	Sources    []domain.KnowledgeArticle
}

// Suggestions holds self-help troubleshooting steps for an incident.
type Suggestions struct {
	Steps      []string
	Confidence domain.Confidence
}

var fallbackSuggestions = map[domain.Locale][]string{
	domain.LocaleDutch: {
		"Stap 1: Wacht even en probeer het opnieuw (2-3 minuten)",
		"Stap 2: Controleer of alles goed is aangesloten (internet, oplader)",
		"Stap 3: Probeer het apparaat opnieuw op te starten",
		"Als dit niet helpt: Maak een ticket aan - hiervoor is IT-support nodig",
	},
	domain.LocaleEnglish: {
		"Step 1: Wait a moment and try again (2-3 minutes)",
		"Step 2: Check if everything is properly connected (internet, charger)",
		"Step 3: Try restarting the device",
		"If this does not help: Create a ticket - this requires IT support",
	},
}

// AnswerService renders direct answers and troubleshooting suggestions.
type AnswerService struct {
	completion completion.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAnswerService builds the answer generator.
func NewAnswerService(client completion.Client, logger *zap.Logger, metrics *observability.Metrics) *AnswerService {
	return &AnswerService{completion: client, logger: logger, metrics: metrics}
}

// GenerateDirectAnswer answers a question, grounding the reply in up to
// three knowledge articles with numbered citations. Without articles the
// model still answers helpfully; it never opens with a refusal.
func (s *AnswerService) GenerateDirectAnswer(ctx context.Context, question string, articles []domain.KnowledgeArticle, language domain.Locale, attachmentCount int) DirectAnswer {
	sources := articles
	if len(sources) > 3 {
		sources = sources[:3]
	}

	prompt := s.buildAnswerPrompt(question, sources, language)
	reply := s.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 400, AttachmentCount: attachmentCount})
	if !reply.Success {
		s.metrics.RecordFallback("direct_answer")
		message := "I cannot directly answer this question at the moment. Let's create a ticket so a specialist can help you."
		if language == domain.LocaleDutch {
			message = "Ik kan deze vraag momenteel niet direct beantwoorden. Laten we een ticket aanmaken zodat een specialist u kan helpen."
		}
		return DirectAnswer{AnswerHTML: message, Confidence: domain.ConfidenceLow}
	}

	answer := util.MarkdownToHTML(reply.Content)
	confidence := domain.ConfidenceMedium
	if len(sources) > 0 {
		confidence = domain.ConfidenceHigh
		answer += util.FormatKnowledgeSources(sources, language)
	}

	return DirectAnswer{AnswerHTML: answer, Confidence: confidence, Sources: sources}
}

func (s *AnswerService) buildAnswerPrompt(question string, sources []domain.KnowledgeArticle, language domain.Locale) string {
	var context strings.Builder
	for i, article := range sources {
		fmt.Fprintf(&context, "[%d] Title: %s\nContent: %s\nArticle Number: %s\n\n",
			i+1, article.Title, article.Snippet, util.DisplayArticleNumber(article.Number))
	}

	if language == domain.LocaleDutch {
		if len(sources) > 0 {
			return "Beantwoord de vraag van de gebruiker op basis van onderstaande kennisbank artikelen.\n\n" +
				"Vraag: \"" + question + "\"\n\n" +
				"Kennisbank artikelen:\n" + context.String() +
				"Regels:\n" +
				"- Verwijs naar bronnen met hun nummer, bijvoorbeeld [1]\n" +
				"- Gebruik geen markdown tabellen of HTML\n" +
				"- Maximaal 300 woorden\n\nAntwoord:"
		}
		return "Beantwoord de vraag van de gebruiker zo behulpzaam mogelijk.\n\n" +
			"Vraag: \"" + question + "\"\n\n" +
			"Regels:\n" +
			"- Begin NOOIT met een weigering of disclaimer; geef een positief, praktisch antwoord\n" +
			"- Gebruik geen markdown tabellen of HTML\n" +
			"- Maximaal 300 woorden\n\nAntwoord:"
	}

	if len(sources) > 0 {
		return "Answer the user's question based on the knowledge base articles below.\n\n" +
			"Question: \"" + question + "\"\n\n" +
			"Knowledge base articles:\n" + context.String() +
			"Rules:\n" +
			"- Cite sources by their number, for example [1]\n" +
			"- Do not use markdown tables or HTML\n" +
			"- Maximum 300 words\n\nAnswer:"
	}
	return "Answer the user's question as helpfully as possible.\n\n" +
		"Question: \"" + question + "\"\n\n" +
		"Rules:\n" +
		"- NEVER open with a refusal or disclaimer; give a positive, practical answer\n" +
		"- Do not use markdown tables or HTML\n" +
		"- Maximum 300 words\n\nAnswer:"
}

// GenerateSuggestions produces up to three safe self-help steps for an
// incident. The prompt forbids anything that could damage hardware or
// data; when unsure the model must point at ticket creation. Failure or
// an empty reply falls back to a fixed four-step script.
func (s *AnswerService) GenerateSuggestions(ctx context.Context, request string, articles []domain.KnowledgeArticle, language domain.Locale, attachmentCount int) Suggestions {
	prompt := s.buildSuggestionsPrompt(request, articles, language)
	reply := s.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 500, AttachmentCount: attachmentCount})
	if !reply.Success {
		s.metrics.RecordFallback("suggestions")
		return Suggestions{Steps: fallbackSuggestions[language], Confidence: domain.ConfidenceLow}
	}

	var raw []string
	if !completion.ParseStructured(reply.Content, &raw) || len(raw) == 0 {
		s.logger.Debug("suggestions reply not parseable", zap.String("content", reply.Content))
		s.metrics.RecordFallback("suggestions")
		return Suggestions{Steps: fallbackSuggestions[language], Confidence: domain.ConfidenceLow}
	}

	if len(raw) > 3 {
		raw = raw[:3]
	}
	steps := make([]string, 0, len(raw))
	for _, step := range raw {
		steps = append(steps, util.MarkdownToHTML(step))
	}

	confidence := domain.ConfidenceMedium
	if len(articles) > 0 {
		confidence = domain.ConfidenceHigh
	}
	return Suggestions{Steps: steps, Confidence: confidence}
}

func (s *AnswerService) buildSuggestionsPrompt(request string, articles []domain.KnowledgeArticle, language domain.Locale) string {
	var context strings.Builder
	for i, article := range articles {
		if i == 3 {
			break
		}
		fmt.Fprintf(&context, "- %s: %s\n", article.Title, article.Snippet)
	}

	if language == domain.LocaleDutch {
		prompt := "Geef maximaal 3 VEILIGE zelfhulp stappen voor dit IT-probleem.\n\n" +
			"Probleem: \"" + request + "\"\n\n"
		if context.Len() > 0 {
			prompt += "Relevante kennisbank informatie:\n" + context.String() + "\n"
		}
		prompt += "VEILIGHEIDSREGELS:\n" +
			"SOFTWARE (toegestaan): opnieuw opstarten, opnieuw inloggen, cache legen, updates installeren, instellingen controleren.\n" +
			"HARDWARE (alleen consumentveilig): kabels controleren, aan/uit zetten, oplader aansluiten.\n" +
			"VERBODEN: apparaat openen, onderdelen vervangen, BIOS/firmware wijzigen, bekabeling in patchkasten, alles met elektriciteit.\n" +
			"Knoppen indrukken = OK. Apparaat openen = VERBODEN!\n" +
			"BIJ TWIJFEL: Zeg direct 'Maak een ticket aan'.\n\n" +
			"Antwoord met een JSON array van maximaal 3 stappen, bijvoorbeeld [\"Stap 1: ...\", \"Stap 2: ...\"].\n\nJSON array:"
		return prompt
	}

	prompt := "Give at most 3 SAFE self-help steps for this IT problem.\n\n" +
		"Problem: \"" + request + "\"\n\n"
	if context.Len() > 0 {
		prompt += "Relevant knowledge base information:\n" + context.String() + "\n"
	}
	prompt += "SAFETY RULES:\n" +
		"SOFTWARE (allowed): restarting, signing in again, clearing cache, installing updates, checking settings.\n" +
		"HARDWARE (consumer-safe only): checking cables, powering on/off, connecting a charger.\n" +
		"FORBIDDEN: opening a device, replacing parts, changing BIOS/firmware, cabling in patch closets, anything involving electricity.\n" +
		"Pressing buttons = OK. Opening device = FORBIDDEN!\n" +
		"WHEN IN DOUBT: Say immediately 'Create a ticket'.\n\n" +
		"Respond with a JSON array of at most 3 steps, for example [\"Step 1: ...\", \"Step 2: ...\"].\n\nJSON array:"
	return prompt
}
