package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/config"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/events"
	"github.com/spec-kit/intake-assistant/internal/observability"
	"github.com/spec-kit/intake-assistant/internal/search"
)

type seqCompletion struct {
	replies []completion.Result
	calls   int
}

func (s *seqCompletion) Complete(ctx context.Context, prompt string, opts completion.Options) completion.Result {
	if s.calls < len(s.replies) {
		reply := s.replies[s.calls]
		s.calls++
		return reply
	}
	s.calls++
	return completion.Result{}
}

func (s *seqCompletion) Enabled() bool { return true }

type fakeProvider struct {
	results map[search.Scope][]search.ProviderResult
	err     error
}

func (f *fakeProvider) Search(ctx context.Context, term string, scope search.Scope) ([]search.ProviderResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[scope], nil
}

type fakeArticles struct {
	byID map[string]*domain.KnowledgeArticle
}

func (f *fakeArticles) GetByID(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	if article, ok := f.byID[id]; ok {
		copied := *article
		return &copied, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeArticles) SearchByText(ctx context.Context, term string, limit int) ([]domain.KnowledgeArticle, error) {
	return nil, nil
}

type fakeCatalog struct {
	byID map[string]*domain.CatalogItem
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	if item, ok := f.byID[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeCatalog) SearchByText(ctx context.Context, term string, limit int) ([]domain.CatalogItem, error) {
	return nil, nil
}

func newTestOrchestrator(client completion.Client, provider search.Provider, articles *fakeArticles, catalog *fakeCatalog) *Orchestrator {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	if articles == nil {
		articles = &fakeArticles{}
	}
	if catalog == nil {
		catalog = &fakeCatalog{}
	}

	engine := search.NewEngine(search.Dependencies{
		Provider:   provider,
		Articles:   articles,
		Catalog:    catalog,
		Completion: client,
		Logger:     logger,
		Metrics:    metrics,
	})

	return NewOrchestrator(OrchestratorDeps{
		SearchConfig: config.SearchConfig{Unified: true},
		Classifier:   NewClassificationService(client, logger, metrics),
		Planner:      NewPlanner(),
		Engine:       engine,
		Answers:      NewAnswerService(client, logger, metrics),
		Questions:    NewQuestionService(client, logger, metrics),
		Tickets:      newTicketService(newStubTickets(), nil, client),
		Status:       NewStatusService(nil, config.StatusConfig{}, logger),
		Dispatcher:   events.NewDispatcher(logger),
		Logger:       logger,
		Metrics:      metrics,
	})
}

func TestGenerateResponseQuestionFlow(t *testing.T) {
	client := &seqCompletion{replies: []completion.Result{
		{Success: true, Content: "QUESTION"},
		{Success: true, Content: "password reset"},
		{Success: true, Content: "[1]"},
		{Success: true, Content: "Reset it via the self-service portal [1]."},
	}}
	provider := &fakeProvider{results: map[search.Scope][]search.ProviderResult{
		search.ScopeKnowledge: {{ID: "kb_articles:a1", Title: "Password reset", Score: 95}},
	}}
	articles := &fakeArticles{byID: map[string]*domain.KnowledgeArticle{
		"a1": {ID: "a1", Number: "KB0001", Title: "Password reset", WorkflowState: domain.ArticleStatePublished},
	}}

	orchestrator := newTestOrchestrator(client, provider, articles, nil)
	response := orchestrator.GenerateResponse(context.Background(), search.Viewer{UserID: "u1"}, "how do I reset my password", "", 0)

	require.True(t, response.Success)
	assert.Equal(t, domain.KindQuestion, response.Classification)
	assert.Equal(t, domain.LocaleEnglish, response.Language)
	assert.NotEmpty(t, response.SessionID)
	assert.Contains(t, response.DirectAnswer, "self-service portal")
	assert.Equal(t, domain.ConfidenceHigh, response.Confidence)
	assert.False(t, response.ShowTicketOption)
	require.Len(t, response.KnowledgeSources, 1)
	assert.Equal(t, "KB0001", response.KnowledgeSources[0].Number)
	assert.Contains(t, response.Reasoning, "Informational question detected")
}

func TestGenerateResponseIncidentDegradedPath(t *testing.T) {
	// Completions and the search provider are both down: keyword
	// classification, empty search, scripted suggestions.
	client := &stubCompletion{}
	provider := &fakeProvider{err: errors.New("provider down")}

	orchestrator := newTestOrchestrator(client, provider, nil, nil)
	response := orchestrator.GenerateResponse(context.Background(), search.Viewer{}, "it is not working anymore", "", 0)

	require.True(t, response.Success)
	assert.Equal(t, domain.KindIncident, response.Classification)
	assert.True(t, response.ShowTicketOption)
	assert.Equal(t, domain.ConfidenceLow, response.Confidence)
	require.Len(t, response.Suggestions, 4)
	assert.Empty(t, response.KnowledgeSources)
}

func TestGenerateResponseServiceRequestWithoutCatalogHits(t *testing.T) {
	client := &seqCompletion{replies: []completion.Result{
		{Success: true, Content: "REQUEST"},
		{Success: true, Content: "ergonomic chair"},
	}}
	provider := &fakeProvider{}

	orchestrator := newTestOrchestrator(client, provider, nil, nil)
	response := orchestrator.GenerateResponse(context.Background(), search.Viewer{}, "I want to order an ergonomic chair", "", 0)

	require.True(t, response.Success)
	assert.Equal(t, domain.KindServiceRequest, response.Classification)
	assert.True(t, response.ShowTicketOption)
	assert.True(t, response.ProceedToQuestions)
	assert.Contains(t, response.Message, "create a service request")
	assert.Empty(t, response.KnowledgeSources)
}

func TestGenerateResponseServiceRequestWithCatalogHits(t *testing.T) {
	client := &seqCompletion{replies: []completion.Result{
		{Success: true, Content: "REQUEST"},
		{Success: true, Content: "laptop"},
	}}
	provider := &fakeProvider{results: map[search.Scope][]search.ProviderResult{
		search.ScopeCatalog: {{ID: "catalog_items:c1", Title: "Standard laptop"}},
	}}
	catalog := &fakeCatalog{byID: map[string]*domain.CatalogItem{
		"c1": {ID: "c1", Name: "Standard laptop", Active: true},
	}}

	orchestrator := newTestOrchestrator(client, provider, nil, catalog)
	response := orchestrator.GenerateResponse(context.Background(), search.Viewer{}, "I need a new laptop", "", 0)

	require.True(t, response.Success)
	assert.False(t, response.ShowTicketOption)
	assert.False(t, response.ProceedToQuestions)
	require.Len(t, response.CatalogItems, 1)
	assert.Contains(t, response.Message, "service catalog items")
}

func TestGenerateQuestionsDelegation(t *testing.T) {
	orchestrator := newTestOrchestrator(&stubCompletion{}, &fakeProvider{}, nil, nil)

	set := orchestrator.GenerateQuestions(context.Background(), "my screen is broken", "")
	assert.True(t, set.UsingFallback)
	assert.Len(t, set.Questions, 2)
}
