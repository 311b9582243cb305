package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/domain"
)

var relevanceStopWords = map[string]bool{
	"the": true, "de": true, "het": true, "een": true, "a": true,
	"an": true, "is": true, "are": true, "van": true, "voor": true,
	"met": true, "and": true, "or": true, "of": true,
}

var articleLookupHints = []string{"kb", "knowledge", "artikel", "article"}

// EvaluateRelevance decides whether search results actually answer the
// question. Lookups that name a specific article short-circuit to a title
// match; otherwise the model picks articles selectively, and keyword
// scoring takes over when the model is unavailable.
func (e *Engine) EvaluateRelevance(ctx context.Context, question string, articles []domain.KnowledgeArticle, language domain.Locale) domain.RelevanceEvaluation {
	if len(articles) == 0 {
		return domain.RelevanceEvaluation{
			IsRelevant: false,
			Mode:       domain.EvaluationNoMatch,
			Reason:     "No articles to evaluate",
		}
	}

	questionLower := strings.ToLower(question)

	if containsAny(questionLower, articleLookupHints) {
		for _, article := range articles {
			titleWords := meaningfulTitleWords(article.Title)
			if len(titleWords) == 0 {
				continue
			}
			matching := 0
			for _, word := range titleWords {
				if strings.Contains(questionLower, word) {
					matching++
				}
			}
			if float64(matching) >= math.Max(1, float64(len(titleWords))*0.7) {
				return domain.RelevanceEvaluation{
					IsRelevant: true,
					Articles:   articles,
					Mode:       domain.EvaluationTitleMatch,
					Reason:     "User asking for specific article by name",
				}
			}
		}
	}

	if evaluation, ok := e.evaluateWithModel(ctx, question, articles, language); ok {
		return evaluation
	}

	e.metrics.RecordFallback("relevance_evaluation")
	return e.fallbackKeywordEvaluation(questionLower, articles)
}

func (e *Engine) evaluateWithModel(ctx context.Context, question string, articles []domain.KnowledgeArticle, language domain.Locale) (domain.RelevanceEvaluation, bool) {
	count := len(articles)
	if count > 5 {
		count = 5
	}

	var summary strings.Builder
	for i := 0; i < count; i++ {
		preview := articles[i].Snippet
		if len(preview) > 200 {
			preview = preview[:200]
		}
		fmt.Fprintf(&summary, "Article %d: %s - %s\n", i+1, articles[i].Title, preview)
	}

	var prompt string
	if language == domain.LocaleDutch {
		prompt = "Vraag van gebruiker: \"" + question + "\"\n\n" +
			"Beschikbare kennisbank artikelen:\n" + summary.String() + "\n" +
			"Welke artikelen beantwoorden deze vraag ECHT? Antwoord met een JSON array van relevante artikelnummers, " +
			"bijvoorbeeld [1,3]. Als geen enkel artikel relevant is, antwoord met [].\n\nJSON array:"
	} else {
		prompt = "User question: \"" + question + "\"\n\n" +
			"Available knowledge base articles:\n" + summary.String() + "\n" +
			"Which articles REALLY answer this question? Respond with a JSON array of relevant article numbers, " +
			"for example [1,3]. If no article is relevant, respond with [].\n\nJSON array:"
	}

	reply := e.completion.Complete(ctx, prompt, completion.Options{MaxTokens: 100})
	if !reply.Success {
		return domain.RelevanceEvaluation{}, false
	}

	var numbers []int
	if !completion.ParseStructured(reply.Content, &numbers) {
		e.logger.Debug("relevance reply not parseable, using keyword fallback",
			zap.String("content", reply.Content))
		return domain.RelevanceEvaluation{}, false
	}

	// The prompt only showed the first `count` articles, so numbers past
	// that refer to articles the model never saw.
	var relevant []domain.KnowledgeArticle
	for _, num := range numbers {
		if num >= 1 && num <= count {
			relevant = append(relevant, articles[num-1])
		}
	}

	if len(relevant) == 0 {
		return domain.RelevanceEvaluation{
			IsRelevant: false,
			Mode:       domain.EvaluationNoMatch,
			Reason:     "AI determined none of the articles are relevant",
		}, true
	}

	return domain.RelevanceEvaluation{
		IsRelevant: true,
		Articles:   relevant,
		Mode:       domain.EvaluationSelectiveMatch,
		Reason:     fmt.Sprintf("AI flagged %d articles as relevant", len(relevant)),
	}, true
}

// fallbackKeywordEvaluation scores articles against the question's
// meaningful words: three points per title hit, one per content hit. Only
// articles reaching max(3, wordCount) survive, trimmed to those within
// half the top score, capped at five.
func (e *Engine) fallbackKeywordEvaluation(questionLower string, articles []domain.KnowledgeArticle) domain.RelevanceEvaluation {
	var meaningful []string
	for _, word := range strings.Fields(questionLower) {
		if len(word) <= 1 {
			continue
		}
		if len(word) >= 3 || !relevanceStopWords[word] {
			meaningful = append(meaningful, word)
		}
	}

	minScore := len(meaningful)
	if minScore < 3 {
		minScore = 3
	}

	var scored []domain.KnowledgeArticle
	for _, article := range articles {
		titleLower := strings.ToLower(article.Title)
		contentLower := strings.ToLower(article.Snippet)
		score := 0
		for _, word := range meaningful {
			if strings.Contains(titleLower, word) {
				score += 3
			}
			if strings.Contains(contentLower, word) {
				score++
			}
		}
		if score >= minScore {
			article.RelevanceScore = score
			scored = append(scored, article)
		}
	}

	if len(scored) == 0 {
		return domain.RelevanceEvaluation{
			IsRelevant: false,
			Mode:       domain.EvaluationFallbackKeyword,
			Reason:     "No relevant articles found through keyword matching",
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	topScore := scored[0].RelevanceScore
	var kept []domain.KnowledgeArticle
	for _, article := range scored {
		if float64(article.RelevanceScore) < float64(topScore)*0.5 {
			break
		}
		kept = append(kept, article)
		if len(kept) == 5 {
			break
		}
	}

	return domain.RelevanceEvaluation{
		IsRelevant: true,
		Articles:   kept,
		Mode:       domain.EvaluationFallbackKeyword,
		Reason:     "Fallback keyword matching found relevant articles",
	}
}

func meaningfulTitleWords(title string) []string {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(title)) {
		if len(word) > 2 {
			words = append(words, word)
		}
	}
	return words
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
