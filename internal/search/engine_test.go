package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/observability"
)

type stubProvider struct {
	results map[Scope][]ProviderResult
	err     error
	calls   int
}

func (s *stubProvider) Search(ctx context.Context, term string, scope Scope) ([]ProviderResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results[scope], nil
}

type stubArticles struct {
	byID map[string]*domain.KnowledgeArticle
	rows []domain.KnowledgeArticle
}

func (s *stubArticles) GetByID(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	if article, ok := s.byID[id]; ok {
		copied := *article
		return &copied, nil
	}
	return nil, errors.New("not found")
}

func (s *stubArticles) SearchByText(ctx context.Context, term string, limit int) ([]domain.KnowledgeArticle, error) {
	return s.rows, nil
}

type stubCatalog struct {
	byID map[string]*domain.CatalogItem
	rows []domain.CatalogItem
}

func (s *stubCatalog) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	if item, ok := s.byID[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, errors.New("not found")
}

func (s *stubCatalog) SearchByText(ctx context.Context, term string, limit int) ([]domain.CatalogItem, error) {
	return s.rows, nil
}

type stubCompletion struct {
	reply   completion.Result
	prompts []string
}

func (s *stubCompletion) Complete(ctx context.Context, prompt string, opts completion.Options) completion.Result {
	s.prompts = append(s.prompts, prompt)
	return s.reply
}

func (s *stubCompletion) Enabled() bool { return s.reply.Success }

func newTestEngine(provider Provider, articles *stubArticles, catalog *stubCatalog, client completion.Client) *Engine {
	if articles == nil {
		articles = &stubArticles{}
	}
	if catalog == nil {
		catalog = &stubCatalog{}
	}
	if client == nil {
		client = &stubCompletion{}
	}
	return NewEngine(Dependencies{
		Provider:   provider,
		Articles:   articles,
		Catalog:    catalog,
		Completion: client,
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
	})
}

func TestSearchUnifiedEmptyTerm(t *testing.T) {
	provider := &stubProvider{}
	engine := newTestEngine(provider, nil, nil, nil)

	result := engine.SearchUnified(context.Background(), Viewer{}, "   ", domain.LocaleEnglish)
	assert.False(t, result.Success)
	assert.Zero(t, provider.calls)
}

func TestSearchUnifiedAppliesVisibilityFilter(t *testing.T) {
	provider := &stubProvider{results: map[Scope][]ProviderResult{
		ScopeKnowledge: {
			{ID: "kb_articles:a1 ➚", Title: "Wifi reset", Score: 90},
			{ID: "kb_articles:a2", Title: "Admin only", Score: 80},
			{ID: "kb_articles:a3", Title: "Draft notes", Score: 70},
			{ID: "kb_articles:missing", Title: "Gone", Score: 60},
		},
		ScopeCatalog: {
			{ID: "catalog_items:c1", Title: "Laptop", Snippet: "A very capable machine"},
			{ID: "catalog_items:c2", Title: "Retired phone"},
		},
	}}
	articles := &stubArticles{byID: map[string]*domain.KnowledgeArticle{
		"a1": {ID: "a1", Title: "Wifi reset", WorkflowState: domain.ArticleStatePublished},
		"a2": {ID: "a2", Title: "Admin only", WorkflowState: domain.ArticleStatePublished, VisibilityRole: "itil"},
		"a3": {ID: "a3", Title: "Draft notes", WorkflowState: domain.ArticleStateDraft},
	}}
	catalog := &stubCatalog{byID: map[string]*domain.CatalogItem{
		"c1": {ID: "c1", Name: "Laptop", Active: true},
		"c2": {ID: "c2", Name: "Retired phone", Active: false},
	}}

	engine := newTestEngine(provider, articles, catalog, nil)
	result := engine.SearchUnified(context.Background(), Viewer{UserID: "u1"}, "laptop", domain.LocaleEnglish)

	require.True(t, result.Success)
	assert.Equal(t, "unified_semantic_search", result.Method)
	require.Len(t, result.Knowledge, 1)
	assert.Equal(t, "a1", result.Knowledge[0].ID)
	require.Len(t, result.Catalog, 1)
	assert.Equal(t, "c1", result.Catalog[0].ID)
}

func TestSearchUnifiedRoleGrantsAccess(t *testing.T) {
	provider := &stubProvider{results: map[Scope][]ProviderResult{
		ScopeKnowledge: {{ID: "kb_articles:a2", Title: "Admin only"}},
	}}
	articles := &stubArticles{byID: map[string]*domain.KnowledgeArticle{
		"a2": {ID: "a2", Title: "Admin only", WorkflowState: domain.ArticleStatePublished, VisibilityRole: "itil"},
	}}

	engine := newTestEngine(provider, articles, nil, nil)
	result := engine.SearchUnified(context.Background(), Viewer{UserID: "u1", Roles: []string{"itil"}}, "admin", domain.LocaleEnglish)
	require.True(t, result.Success)
	assert.Len(t, result.Knowledge, 1)
}

func TestSearchUnifiedFallsBackToSeparateSearches(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	articles := &stubArticles{rows: []domain.KnowledgeArticle{
		{ID: "a1", Title: "Wifi reset", WorkflowState: domain.ArticleStatePublished},
	}}
	catalog := &stubCatalog{rows: []domain.CatalogItem{
		{ID: "c1", Name: "Laptop", Active: true, Description: "A capable machine"},
	}}

	engine := newTestEngine(provider, articles, catalog, nil)
	result := engine.SearchUnified(context.Background(), Viewer{}, "laptop", domain.LocaleEnglish)

	require.True(t, result.Success)
	assert.Equal(t, "fallback_separate_searches", result.Method)
	assert.Len(t, result.Knowledge, 1)
	assert.Len(t, result.Catalog, 1)
}

func TestCatalogDescriptionTruncatedToEighty(t *testing.T) {
	long := ""
	for i := 0; i < 12; i++ {
		long += "abcdefghij"
	}
	provider := &stubProvider{results: map[Scope][]ProviderResult{
		ScopeCatalog: {{ID: "catalog_items:c1", Snippet: long}},
	}}
	catalog := &stubCatalog{byID: map[string]*domain.CatalogItem{
		"c1": {ID: "c1", Name: "Laptop", Active: true},
	}}

	engine := newTestEngine(provider, nil, catalog, nil)
	items := engine.SearchServiceCatalog(context.Background(), Viewer{}, "laptop")
	require.Len(t, items, 1)
	assert.Len(t, items[0].Description, 80)
	assert.Equal(t, "...", items[0].Description[77:])
}

func makeItems(n int) []domain.CatalogItem {
	items := make([]domain.CatalogItem, n)
	for i := range items {
		items[i] = domain.CatalogItem{ID: fmt.Sprintf("c%d", i+1), Name: fmt.Sprintf("Item %d", i+1)}
	}
	return items
}

func TestFilterCatalogItemsSmallSetUntouched(t *testing.T) {
	client := &stubCompletion{}
	engine := newTestEngine(&stubProvider{}, nil, nil, client)

	items := makeItems(3)
	filtered := engine.FilterCatalogItems(context.Background(), items, "laptop", domain.LocaleEnglish)
	assert.Equal(t, items, filtered)
	assert.Empty(t, client.prompts)
}

func TestFilterCatalogItemsSelectsByNumber(t *testing.T) {
	client := &stubCompletion{reply: completion.Result{Success: true, Content: "2, 4, 99"}}
	engine := newTestEngine(&stubProvider{}, nil, nil, client)

	filtered := engine.FilterCatalogItems(context.Background(), makeItems(6), "laptop", domain.LocaleEnglish)
	require.Len(t, filtered, 2)
	assert.Equal(t, "c2", filtered[0].ID)
	assert.Equal(t, "c4", filtered[1].ID)
}

func TestFilterCatalogItemsFallsBackToFirstFive(t *testing.T) {
	engine := newTestEngine(&stubProvider{}, nil, nil, &stubCompletion{})
	filtered := engine.FilterCatalogItems(context.Background(), makeItems(8), "laptop", domain.LocaleEnglish)
	require.Len(t, filtered, 5)
	assert.Equal(t, "c1", filtered[0].ID)

	client := &stubCompletion{reply: completion.Result{Success: true, Content: "none of these"}}
	engine = newTestEngine(&stubProvider{}, nil, nil, client)
	filtered = engine.FilterCatalogItems(context.Background(), makeItems(8), "laptop", domain.LocaleEnglish)
	assert.Len(t, filtered, 5)
}

func TestFilterCatalogItemsFallbackClampsShortSets(t *testing.T) {
	// 4 and 5 items pass the size guard but are shorter than the
	// fallback cap; everything must come back intact.
	engine := newTestEngine(&stubProvider{}, nil, nil, &stubCompletion{})
	filtered := engine.FilterCatalogItems(context.Background(), makeItems(4), "laptop", domain.LocaleEnglish)
	require.Len(t, filtered, 4)
	assert.Equal(t, "c1", filtered[0].ID)
	assert.Equal(t, "c4", filtered[3].ID)

	client := &stubCompletion{reply: completion.Result{Success: true, Content: "none of these"}}
	engine = newTestEngine(&stubProvider{}, nil, nil, client)
	filtered = engine.FilterCatalogItems(context.Background(), makeItems(5), "laptop", domain.LocaleEnglish)
	assert.Len(t, filtered, 5)
}

func TestExtractKeywords(t *testing.T) {
	client := &stubCompletion{reply: completion.Result{Success: true, Content: "\"laptop\""}}
	engine := newTestEngine(&stubProvider{}, nil, nil, client)
	assert.Equal(t, "laptop", engine.ExtractKeywords(context.Background(), "I want to order a laptop", domain.LocaleEnglish))

	engine = newTestEngine(&stubProvider{}, nil, nil, &stubCompletion{})
	assert.Equal(t, "I want to order a laptop", engine.ExtractKeywords(context.Background(), "I want to order a laptop", domain.LocaleEnglish))
}
