package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

func TestDetermineStrategyServiceRequest(t *testing.T) {
	planner := NewPlanner()

	plan := planner.DetermineStrategy(domain.Classification{Kind: domain.KindServiceRequest}, domain.LocaleEnglish)
	assert.Equal(t, []domain.ResourceKind{domain.ResourceCatalog, domain.ResourceKnowledge}, plan.Order)
	assert.Contains(t, plan.Reasoning, "Service request detected")

	// Service intent alone flips the order too.
	plan = planner.DetermineStrategy(domain.Classification{Kind: domain.KindIncident, IsServiceRequest: true}, domain.LocaleDutch)
	assert.Equal(t, domain.ResourceCatalog, plan.Order[0])
	assert.Contains(t, plan.Reasoning, "Service aanvraag gedetecteerd")
}

func TestDetermineStrategyQuestionAndIncident(t *testing.T) {
	planner := NewPlanner()

	plan := planner.DetermineStrategy(domain.Classification{Kind: domain.KindQuestion}, domain.LocaleEnglish)
	assert.Equal(t, []domain.ResourceKind{domain.ResourceKnowledge, domain.ResourceCatalog}, plan.Order)
	assert.Contains(t, plan.Reasoning, "Informational question detected")

	plan = planner.DetermineStrategy(domain.Classification{Kind: domain.KindIncident}, domain.LocaleEnglish)
	assert.Equal(t, []domain.ResourceKind{domain.ResourceKnowledge, domain.ResourceCatalog}, plan.Order)
	assert.Contains(t, plan.Reasoning, "Complex issue detected")
}

func TestNeedsAdditionalResources(t *testing.T) {
	planner := NewPlanner()

	assert.True(t, planner.NeedsAdditionalResources([]domain.CatalogItem{{ID: "c1"}}, nil))
	assert.True(t, planner.NeedsAdditionalResources(nil, &domain.RelevanceEvaluation{IsRelevant: true}))
	assert.True(t, planner.NeedsAdditionalResources(nil, nil))

	// Articles found but judged irrelevant, no catalog hits: nothing more
	// to fetch.
	assert.False(t, planner.NeedsAdditionalResources(nil, &domain.RelevanceEvaluation{
		IsRelevant: false,
		Articles:   []domain.KnowledgeArticle{{Title: "One"}},
	}))
}

func TestProgressMessageLocalization(t *testing.T) {
	assert.Equal(t, "AI is analyzing your request...", ProgressMessage(StepClassifying, domain.LocaleEnglish))
	assert.Equal(t, "AI analyseert uw aanvraag...", ProgressMessage(StepClassifying, domain.LocaleDutch))
	assert.Equal(t, "custom_step", ProgressMessage("custom_step", domain.LocaleEnglish))
}
