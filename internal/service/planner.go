package service

import (
	"github.com/spec-kit/intake-assistant/internal/domain"
)

// Step names used in the session status log.
const (
	StepClassifying        = "classifying"
	StepSearchingResources = "searching_resources"
	StepSearchingCatalog   = "searching_catalog"
	StepSearchingKnowledge = "searching_knowledge"
	StepEvaluating         = "evaluating"
	StepGenerating         = "generating_response"
)

var progressMessages = map[string]map[domain.Locale]string{
	StepClassifying: {
		domain.LocaleDutch:   "AI analyseert uw aanvraag...",
		domain.LocaleEnglish: "AI is analyzing your request...",
	},
	StepSearchingResources: {
		domain.LocaleDutch:   "Zoeken in kennisbank en servicecatalogus...",
		domain.LocaleEnglish: "Searching knowledge base and service catalog...",
	},
	StepSearchingCatalog: {
		domain.LocaleDutch:   "Zoeken in servicecatalogus...",
		domain.LocaleEnglish: "Searching service catalog...",
	},
	StepSearchingKnowledge: {
		domain.LocaleDutch:   "Zoeken in kennisbank...",
		domain.LocaleEnglish: "Searching knowledge base...",
	},
	StepEvaluating: {
		domain.LocaleDutch:   "Resultaten beoordelen op relevantie...",
		domain.LocaleEnglish: "Evaluating results for relevance...",
	},
	StepGenerating: {
		domain.LocaleDutch:   "Antwoord opstellen...",
		domain.LocaleEnglish: "Preparing your answer...",
	},
}

// ProgressMessage returns the localized status line for a pipeline step.
func ProgressMessage(step string, language domain.Locale) string {
	if byLocale, ok := progressMessages[step]; ok {
		if msg, ok := byLocale[language]; ok {
			return msg
		}
		return byLocale[domain.LocaleEnglish]
	}
	return step
}

// Planner maps a classification to a search strategy.
type Planner struct{}

// NewPlanner builds the planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// DetermineStrategy picks the resource search order and explains it.
// Service requests hit the catalog first; everything else starts in the
// knowledge base.
func (p *Planner) DetermineStrategy(classification domain.Classification, language domain.Locale) domain.SearchPlan {
	dutch := language == domain.LocaleDutch

	if classification.Kind == domain.KindServiceRequest || classification.IsServiceRequest {
		reasoning := "Service request detected - searching catalog first, then knowledge base for additional information"
		if dutch {
			reasoning = "Service aanvraag gedetecteerd - zoek eerst in catalogus, daarna in kennisbank voor aanvullende informatie"
		}
		return domain.SearchPlan{
			Order:     []domain.ResourceKind{domain.ResourceCatalog, domain.ResourceKnowledge},
			Reasoning: reasoning,
		}
	}

	if classification.Kind == domain.KindQuestion {
		reasoning := "Informational question detected - searching knowledge base first, then checking for related services"
		if dutch {
			reasoning = "Informatieve vraag gedetecteerd - zoek eerst in kennisbank, daarna controle op gerelateerde services"
		}
		return domain.SearchPlan{
			Order:     []domain.ResourceKind{domain.ResourceKnowledge, domain.ResourceCatalog},
			Reasoning: reasoning,
		}
	}

	reasoning := "Complex issue detected - searching all available resources for comprehensive solution"
	if dutch {
		reasoning = "Complex probleem gedetecteerd - doorzoek alle beschikbare bronnen voor een volledige oplossing"
	}
	return domain.SearchPlan{
		Order:     []domain.ResourceKind{domain.ResourceKnowledge, domain.ResourceCatalog},
		Reasoning: reasoning,
	}
}

// NeedsAdditionalResources decides whether the remaining resources in the
// plan are still worth searching after a step completed.
func (p *Planner) NeedsAdditionalResources(catalog []domain.CatalogItem, knowledge *domain.RelevanceEvaluation) bool {
	if len(catalog) > 0 {
		return true
	}
	if knowledge != nil && knowledge.IsRelevant {
		return true
	}
	if len(catalog) == 0 && (knowledge == nil || len(knowledge.Articles) == 0) {
		return true
	}
	return false
}
