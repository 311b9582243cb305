package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/observability"
	"github.com/spec-kit/intake-assistant/internal/repository"
	"github.com/spec-kit/intake-assistant/pkg/util"
)

const (
	knowledgeTable = "kb_articles"
	catalogTable   = "catalog_items"

	fallbackLimit = 10
	topFallbackN  = 5
)

// Viewer is the ambient caller whose visibility the security filter
// enforces.
type Viewer struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the viewer carries the named role.
func (v Viewer) HasRole(role string) bool {
	for _, r := range v.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UnifiedResult is the outcome of a fused knowledge+catalog search.
type UnifiedResult struct {
	Success              bool
	Knowledge            []domain.KnowledgeArticle
	Catalog              []domain.CatalogItem
	Method               string
	OriginalCatalogCount int
}

// Dependencies bundles engine collaborators.
type Dependencies struct {
	Provider   Provider
	Articles   repository.ArticleRepository
	Catalog    repository.CatalogRepository
	Completion completion.Client
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Engine queries the knowledge base and the service catalog through the
// semantic provider, with a literal-match fallback, and applies the
// relevance filters.
type Engine struct {
	provider   Provider
	articles   repository.ArticleRepository
	catalog    repository.CatalogRepository
	completion completion.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewEngine builds the search engine.
func NewEngine(deps Dependencies) *Engine {
	return &Engine{
		provider:   deps.Provider,
		articles:   deps.Articles,
		catalog:    deps.Catalog,
		completion: deps.Completion,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// SearchUnified issues the same query against both resource pools in one
// pass. An empty term short-circuits without touching any provider.
func (e *Engine) SearchUnified(ctx context.Context, viewer Viewer, term string, language domain.Locale) UnifiedResult {
	if strings.TrimSpace(term) == "" {
		return UnifiedResult{Success: false, Method: "empty_term"}
	}

	kbHits, kbErr := e.provider.Search(ctx, term, ScopeKnowledge)
	catHits, catErr := e.provider.Search(ctx, term, ScopeCatalog)

	if kbErr != nil || catErr != nil {
		e.logger.Warn("unified search unavailable, using separate fallback searches",
			zap.NamedError("knowledge", kbErr), zap.NamedError("catalog", catErr))
		e.metrics.RecordFallback("search_unified")

		knowledge := e.SearchKnowledgeBase(ctx, viewer, term)
		catalog := e.SearchServiceCatalog(ctx, viewer, term)
		filtered := e.FilterCatalogItems(ctx, catalog, term, language)
		return UnifiedResult{
			Success:              true,
			Knowledge:            knowledge,
			Catalog:              filtered,
			Method:               "fallback_separate_searches",
			OriginalCatalogCount: len(catalog),
		}
	}

	knowledge := e.resolveKnowledgeHits(ctx, viewer, kbHits)
	catalog := e.resolveCatalogHits(ctx, viewer, catHits)
	filtered := e.FilterCatalogItems(ctx, catalog, term, language)

	return UnifiedResult{
		Success:              true,
		Knowledge:            knowledge,
		Catalog:              filtered,
		Method:               "unified_semantic_search",
		OriginalCatalogCount: len(catalog),
	}
}

// SearchKnowledgeBase queries knowledge articles, falling back to a
// literal contains match capped at ten rows ordered by popularity.
func (e *Engine) SearchKnowledgeBase(ctx context.Context, viewer Viewer, term string) []domain.KnowledgeArticle {
	if strings.TrimSpace(term) == "" {
		return nil
	}

	hits, err := e.provider.Search(ctx, term, ScopeKnowledge)
	if err == nil {
		return e.resolveKnowledgeHits(ctx, viewer, hits)
	}

	e.logger.Warn("knowledge provider search failed, using literal fallback", zap.Error(err))
	e.metrics.RecordFallback("search_knowledge")

	rows, err := e.articles.SearchByText(ctx, term, fallbackLimit)
	if err != nil {
		e.logger.Error("fallback knowledge search failed", zap.Error(err))
		return nil
	}

	var visible []domain.KnowledgeArticle
	for _, article := range rows {
		if !canReadArticle(viewer, &article) {
			continue
		}
		article.RelevanceScore = 50
		visible = append(visible, article)
	}
	return visible
}

// SearchServiceCatalog queries catalog items, falling back to a literal
// contains match on active items ordered by popularity.
func (e *Engine) SearchServiceCatalog(ctx context.Context, viewer Viewer, term string) []domain.CatalogItem {
	if strings.TrimSpace(term) == "" {
		return nil
	}

	hits, err := e.provider.Search(ctx, term, ScopeCatalog)
	if err == nil {
		return e.resolveCatalogHits(ctx, viewer, hits)
	}

	e.logger.Warn("catalog provider search failed, using literal fallback", zap.Error(err))
	e.metrics.RecordFallback("search_catalog")

	rows, err := e.catalog.SearchByText(ctx, term, fallbackLimit)
	if err != nil {
		e.logger.Error("fallback catalog search failed", zap.Error(err))
		return nil
	}

	var items []domain.CatalogItem
	for _, item := range rows {
		item.Description = util.TruncateString(item.Description, 80)
		item.RelevanceScore = 50
		items = append(items, item)
	}
	return items
}

// resolveKnowledgeHits re-fetches every candidate hit and applies the
// mandatory visibility check. Missing or inaccessible records are dropped
// silently.
func (e *Engine) resolveKnowledgeHits(ctx context.Context, viewer Viewer, hits []ProviderResult) []domain.KnowledgeArticle {
	var articles []domain.KnowledgeArticle
	for _, hit := range hits {
		table, sysID, ok := parseResultRef(hit.ID)
		if !ok || table != knowledgeTable {
			continue
		}

		record, err := e.articles.GetByID(ctx, sysID)
		if err != nil {
			e.logger.Warn("security filter: article not found", zap.String("sys_id", sysID))
			continue
		}
		if !canReadArticle(viewer, record) {
			e.logger.Info("security filter: excluding article", zap.String("title", record.Title))
			continue
		}

		article := *record
		if hit.Title != "" {
			article.Title = hit.Title
		}
		if hit.Snippet != "" {
			article.Snippet = util.TruncateString(hit.Snippet, 200)
		}
		if hit.Meta.Link != "" {
			article.URL = hit.Meta.Link
		}
		article.RelevanceScore = scoreFromHit(hit.Score)
		articles = append(articles, article)
	}
	return articles
}

func (e *Engine) resolveCatalogHits(ctx context.Context, viewer Viewer, hits []ProviderResult) []domain.CatalogItem {
	var items []domain.CatalogItem
	for _, hit := range hits {
		table, sysID, ok := parseResultRef(hit.ID)
		if !ok || table != catalogTable {
			continue
		}

		record, err := e.catalog.GetByID(ctx, sysID)
		if err != nil {
			e.logger.Warn("security filter: catalog item not found", zap.String("sys_id", sysID))
			continue
		}
		if !record.Active {
			e.logger.Info("security filter: excluding inactive catalog item", zap.String("name", record.Name))
			continue
		}

		item := *record
		if hit.Title != "" {
			item.Name = hit.Title
		}
		description := hit.Snippet
		if description == "" {
			description = record.Description
		}
		item.Description = util.TruncateString(description, 80)
		if hit.Meta.Category != "" {
			item.Category = hit.Meta.Category
		}
		if hit.Meta.Price != "" {
			item.Price = hit.Meta.Price
		}
		if hit.Meta.Link != "" {
			item.OrderURL = hit.Meta.Link
		}
		item.RelevanceScore = scoreFromHit(hit.Score)
		items = append(items, item)
	}
	return items
}

// FilterCatalogItems asks the model to keep only truly relevant items.
// Three or fewer items pass through untouched; on completion failure or an
// empty selection, the first five items are kept in original order.
func (e *Engine) FilterCatalogItems(ctx context.Context, items []domain.CatalogItem, userRequest string, language domain.Locale) []domain.CatalogItem {
	if len(items) <= 3 {
		return items
	}

	topN := len(items)
	if topN > topFallbackN {
		topN = topFallbackN
	}

	var list strings.Builder
	for i, item := range items {
		fmt.Fprintf(&list, "%d. %s", i+1, item.Name)
		if item.Description != "" {
			fmt.Fprintf(&list, " - %s", item.Description)
		}
		list.WriteString("\n")
	}

	var prompt string
	if language == domain.LocaleDutch {
		prompt = "Gebruiker vraagt: \"" + userRequest + "\"\n\n" +
			"Welke van deze Service Catalog items zijn ECHT relevant voor deze vraag? " +
			"Geef alleen de nummers van de meest relevante items (max 5), gescheiden door komma's.\n\n" +
			"Beschikbare items:\n" + list.String() + "\n\nAntwoord met alleen nummers (bijv: 1,3,5):"
	} else {
		prompt = "User asks: \"" + userRequest + "\"\n\n" +
			"Which of these Service Catalog items are REALLY relevant to this request? " +
			"Give only the numbers of the most relevant items (max 5), separated by commas.\n\n" +
			"Available items:\n" + list.String() + "\n\nAnswer with only numbers (e.g: 1,3,5):"
	}

	reply := e.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 50})
	if !reply.Success {
		e.metrics.RecordFallback("catalog_filter")
		return items[:topN]
	}

	seen := make(map[int]bool)
	var filtered []domain.CatalogItem
	for _, part := range strings.Split(reply.Content, ",") {
		num, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || num < 1 || num > len(items) || seen[num] {
			continue
		}
		seen[num] = true
		filtered = append(filtered, items[num-1])
		if len(filtered) == topFallbackN {
			break
		}
	}

	if len(filtered) == 0 {
		e.metrics.RecordFallback("catalog_filter")
		return items[:topN]
	}
	return filtered
}

// ExtractKeywords distills a natural-language request into search terms,
// falling back to the raw request text.
func (e *Engine) ExtractKeywords(ctx context.Context, request string, language domain.Locale) string {
	var prompt string
	if language == domain.LocaleDutch {
		prompt = "Extraheer de belangrijkste product- of servicetermen uit deze aanvraag voor een catalogus zoekopdracht.\n\n" +
			"Aanvraag: \"" + request + "\"\n\n" +
			"Geef ALLEEN de zoektermen terug, zonder uitleg. Bijvoorbeeld:\n" +
			"- \"Ik wil een laptop bestellen\" → \"laptop\"\n" +
			"- \"Ik heb een nieuwe iPhone nodig\" → \"iPhone\"\n" +
			"- \"Kan ik een monitor aanvragen voor thuiswerken\" → \"monitor thuiswerken\"\n\n" +
			"Zoektermen:"
	} else {
		prompt = "Extract the key product or service terms from this request for a catalog search.\n\n" +
			"Request: \"" + request + "\"\n\n" +
			"Return ONLY the search terms, without explanation. For example:\n" +
			"- \"I want to order a laptop\" → \"laptop\"\n" +
			"- \"I need a new iPhone\" → \"iPhone\"\n" +
			"- \"Can I request a monitor for working from home\" → \"monitor home office\"\n\n" +
			"Search terms:"
	}

	reply := e.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 50})
	if !reply.Success {
		return request
	}

	keywords := strings.TrimSpace(strings.NewReplacer("\"", "", "'", "").Replace(reply.Content))
	if keywords == "" {
		return request
	}
	return keywords
}

func canReadArticle(viewer Viewer, article *domain.KnowledgeArticle) bool {
	if article.WorkflowState != domain.ArticleStatePublished {
		return false
	}
	if article.VisibilityRole == "" {
		return true
	}
	return viewer.HasRole(article.VisibilityRole)
}

func scoreFromHit(score float64) int {
	if score <= 0 {
		return 100
	}
	return int(score)
}
