package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/config"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/events"
	"github.com/spec-kit/intake-assistant/internal/language"
	"github.com/spec-kit/intake-assistant/internal/observability"
	"github.com/spec-kit/intake-assistant/internal/search"
)

// AssistantResponse is the assembled reply for one intake request.
type AssistantResponse struct {
	Success            bool                      `json:"success"`
	SessionID          string                    `json:"sessionId"`
	Classification     domain.RequestKind        `json:"classification"`
	Confidence         domain.Confidence         `json:"confidence,omitempty"`
	Language           domain.Locale             `json:"language"`
	DirectAnswer       string                    `json:"directAnswer,omitempty"`
	Message            string                    `json:"message,omitempty"`
	Suggestions        []string                  `json:"suggestions,omitempty"`
	KnowledgeSources   []domain.KnowledgeArticle `json:"knowledgeSources,omitempty"`
	CatalogItems       []domain.CatalogItem      `json:"catalogItems,omitempty"`
	ShowTicketOption   bool                      `json:"showTicketOption"`
	ProceedToQuestions bool                      `json:"proceedToQuestions,omitempty"`
	Reasoning          string                    `json:"reasoning,omitempty"`
	Error              string                    `json:"error,omitempty"`
}

// Orchestrator runs the intake pipeline: classify, plan, search,
// evaluate, and render a response shaped by the classification.
type Orchestrator struct {
	searchCfg  config.SearchConfig
	classifier *ClassificationService
	planner    *Planner
	engine     *search.Engine
	answers    *AnswerService
	questions  *QuestionService
	tickets    *TicketService
	status     *StatusService
	dispatcher *events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// OrchestratorDeps bundles orchestrator collaborators.
type OrchestratorDeps struct {
	SearchConfig config.SearchConfig
	Classifier   *ClassificationService
	Planner      *Planner
	Engine       *search.Engine
	Answers      *AnswerService
	Questions    *QuestionService
	Tickets      *TicketService
	Status       *StatusService
	Dispatcher   *events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewOrchestrator builds the pipeline.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		searchCfg:  deps.SearchConfig,
		classifier: deps.Classifier,
		planner:    deps.Planner,
		engine:     deps.Engine,
		answers:    deps.Answers,
		questions:  deps.Questions,
		tickets:    deps.Tickets,
		status:     deps.Status,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// GenerateResponse runs the full pipeline for one request. It always
// returns a usable response: an unexpected failure degrades to the
// incident path with the questionnaire flow enabled.
func (o *Orchestrator) GenerateResponse(ctx context.Context, viewer search.Viewer, request, sessionID string, attachmentCount int) (response AssistantResponse) {
	sessionID = o.status.Init(ctx, sessionID)

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("intake pipeline failed", zap.Any("panic", r), zap.String("session", sessionID))
			o.status.Update(ctx, sessionID, StepGenerating, domain.StepError, "pipeline failure")
			response = AssistantResponse{
				Success:            true,
				SessionID:          sessionID,
				Classification:     domain.KindIncident,
				Language:           language.Detect(request),
				Error:              fmt.Sprintf("%v", r),
				Message:            "Technical issue occurred, proceeding to questions",
				ProceedToQuestions: true,
				ShowTicketOption:   true,
			}
		}
	}()

	lang := language.Detect(request)

	o.status.Update(ctx, sessionID, StepClassifying, domain.StepActive, ProgressMessage(StepClassifying, lang))
	classification := o.classifier.Classify(ctx, request, lang, attachmentCount)
	o.status.Update(ctx, sessionID, StepClassifying, domain.StepCompleted, string(classification.Kind))

	plan := o.planner.DetermineStrategy(classification, lang)

	var knowledgeEval *domain.RelevanceEvaluation
	var catalogItems []domain.CatalogItem
	searched := false

	if o.searchCfg.Unified && len(plan.Order) > 1 {
		o.status.Update(ctx, sessionID, StepSearchingResources, domain.StepActive, ProgressMessage(StepSearchingResources, lang))
		keywords := o.engine.ExtractKeywords(ctx, request, lang)
		unified := o.engine.SearchUnified(ctx, viewer, keywords, lang)
		if unified.Success {
			evaluation := o.engine.EvaluateRelevance(ctx, request, unified.Knowledge, lang)
			knowledgeEval = &evaluation
			catalogItems = unified.Catalog
			searched = true
			o.status.Update(ctx, sessionID, StepSearchingResources, domain.StepCompleted, unified.Method)
		} else {
			o.status.Update(ctx, sessionID, StepSearchingResources, domain.StepError, unified.Method)
		}
	}

	if !searched {
		knowledgeEval, catalogItems = o.searchSequentially(ctx, viewer, request, classification, plan, lang, sessionID)
	}

	o.status.Update(ctx, sessionID, StepEvaluating, domain.StepCompleted, ProgressMessage(StepEvaluating, lang))
	o.status.Update(ctx, sessionID, StepGenerating, domain.StepActive, ProgressMessage(StepGenerating, lang))

	response = o.buildResponse(ctx, request, classification, knowledgeEval, catalogItems, lang, sessionID, attachmentCount)
	response.Reasoning = plan.Reasoning

	o.status.Update(ctx, sessionID, StepGenerating, domain.StepCompleted, "")
	o.dispatcher.Dispatch(ctx, events.Event{
		Type: events.EventResponseGenerated,
		Payload: events.ResponseGeneratedPayload{
			SessionID:      sessionID,
			Classification: classification.Kind,
			Language:       lang,
		},
	})

	return response
}

// searchSequentially walks the planned resource order one step at a time,
// stopping early when the plan says nothing further is needed.
func (o *Orchestrator) searchSequentially(
	ctx context.Context,
	viewer search.Viewer,
	request string,
	classification domain.Classification,
	plan domain.SearchPlan,
	lang domain.Locale,
	sessionID string,
) (*domain.RelevanceEvaluation, []domain.CatalogItem) {
	var knowledgeEval *domain.RelevanceEvaluation
	var catalogItems []domain.CatalogItem

	for _, resource := range plan.Order {
		switch resource {
		case domain.ResourceCatalog:
			o.status.Update(ctx, sessionID, StepSearchingCatalog, domain.StepActive, ProgressMessage(StepSearchingCatalog, lang))
			keywords := o.engine.ExtractKeywords(ctx, request, lang)
			items := o.engine.SearchServiceCatalog(ctx, viewer, keywords)
			catalogItems = o.engine.FilterCatalogItems(ctx, items, request, lang)
			o.status.Update(ctx, sessionID, StepSearchingCatalog, domain.StepCompleted, fmt.Sprintf("%d items", len(catalogItems)))

			if classification.Kind == domain.KindServiceRequest && !o.planner.NeedsAdditionalResources(catalogItems, knowledgeEval) {
				return knowledgeEval, catalogItems
			}
		case domain.ResourceKnowledge:
			o.status.Update(ctx, sessionID, StepSearchingKnowledge, domain.StepActive, ProgressMessage(StepSearchingKnowledge, lang))
			articles := o.engine.SearchKnowledgeBase(ctx, viewer, request)
			evaluation := o.engine.EvaluateRelevance(ctx, request, articles, lang)
			knowledgeEval = &evaluation
			o.status.Update(ctx, sessionID, StepSearchingKnowledge, domain.StepCompleted, evaluation.Reason)

			if classification.Kind == domain.KindQuestion && evaluation.IsRelevant &&
				!o.planner.NeedsAdditionalResources(catalogItems, knowledgeEval) {
				return knowledgeEval, catalogItems
			}
		}
	}
	return knowledgeEval, catalogItems
}

func (o *Orchestrator) buildResponse(
	ctx context.Context,
	request string,
	classification domain.Classification,
	knowledgeEval *domain.RelevanceEvaluation,
	catalogItems []domain.CatalogItem,
	lang domain.Locale,
	sessionID string,
	attachmentCount int,
) AssistantResponse {
	response := AssistantResponse{
		Success:        true,
		SessionID:      sessionID,
		Classification: classification.Kind,
		Language:       lang,
	}

	var relevantArticles []domain.KnowledgeArticle
	if knowledgeEval != nil && knowledgeEval.IsRelevant {
		relevantArticles = knowledgeEval.Articles
	}

	switch classification.Kind {
	case domain.KindQuestion:
		answer := o.answers.GenerateDirectAnswer(ctx, request, relevantArticles, lang, attachmentCount)
		response.DirectAnswer = answer.AnswerHTML
		response.Confidence = answer.Confidence
		response.ShowTicketOption = false
		response.CatalogItems = catalogItems
		if knowledgeEval != nil && citableEvaluation(knowledgeEval) {
			sources := knowledgeEval.Articles
			if len(sources) > 3 {
				sources = sources[:3]
			}
			response.KnowledgeSources = sources
		}

	case domain.KindServiceRequest:
		response.Confidence = classification.Confidence
		response.CatalogItems = catalogItems
		if len(catalogItems) > 0 {
			response.Message = serviceMessage(lang, true)
		} else {
			response.Message = serviceMessage(lang, false)
			response.ShowTicketOption = true
			response.ProceedToQuestions = true
		}

	default:
		suggestions := o.answers.GenerateSuggestions(ctx, request, relevantArticles, lang, attachmentCount)
		response.Suggestions = suggestions.Steps
		response.Confidence = suggestions.Confidence
		response.ShowTicketOption = true
		response.CatalogItems = catalogItems
		response.KnowledgeSources = incidentKnowledgeSources(relevantArticles, suggestions.Steps)
	}

	return response
}

// citableEvaluation gates whether article sources appear under a direct
// answer. Only a selective model pick is citable; fallback keyword hits
// are not.
func citableEvaluation(evaluation *domain.RelevanceEvaluation) bool {
	if !evaluation.IsRelevant {
		return false
	}
	return evaluation.Mode == domain.EvaluationSelectiveMatch ||
		strings.Contains(evaluation.Reason, "AI flagged")
}

var troubleshootingHints = []string{"troubleshoot", "fix", "solve", "oplossen", "fout", "error"}

// incidentKnowledgeSources keeps only articles that plausibly support the
// suggested steps: a troubleshooting word in the title, or a substantial
// title word echoed in the suggestions text. Capped at three.
func incidentKnowledgeSources(articles []domain.KnowledgeArticle, suggestions []string) []domain.KnowledgeArticle {
	if len(articles) == 0 {
		return nil
	}
	joined := strings.ToLower(strings.Join(suggestions, " "))

	var kept []domain.KnowledgeArticle
	for _, article := range articles {
		if incidentArticleRelevant(article, joined) {
			kept = append(kept, article)
			if len(kept) == 3 {
				break
			}
		}
	}
	return kept
}

func incidentArticleRelevant(article domain.KnowledgeArticle, suggestionsText string) bool {
	titleLower := strings.ToLower(article.Title)
	for _, hint := range troubleshootingHints {
		if strings.Contains(titleLower, hint) {
			return true
		}
	}
	for _, word := range strings.Fields(titleLower) {
		if len(word) > 4 && strings.Contains(suggestionsText, word) {
			return true
		}
	}
	return false
}

func serviceMessage(lang domain.Locale, hasItems bool) string {
	if lang == domain.LocaleDutch {
		if hasItems {
			return "<p>Ik heb relevante items in de servicecatalogus gevonden die u direct kunt aanvragen.</p>"
		}
		return "<p>Voor uw aanvraag kunt u het beste een service aanvraag indienen. Ik stel u enkele korte vragen om deze compleet te maken.</p>"
	}
	if hasItems {
		return "<p>I found relevant service catalog items you can request directly.</p>"
	}
	return "<p>For your request, it's best to create a service request. I'll ask you a few short questions to complete it.</p>"
}

// GetStatus returns the live progress log for a session.
func (o *Orchestrator) GetStatus(ctx context.Context, sessionID string) *domain.StatusLog {
	return o.status.Get(ctx, sessionID)
}

// GenerateQuestions produces the intake questionnaire for a request.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, request, typeHint string) QuestionSet {
	lang := language.Detect(request)
	kind := domain.KindIncident
	switch typeHint {
	case "request":
		kind = domain.KindServiceRequest
	case "question":
		kind = domain.KindQuestion
	}
	return o.questions.Generate(ctx, request, kind, lang)
}

// SubmitRequest routes a finished submission into a record table.
func (o *Orchestrator) SubmitRequest(ctx context.Context, openedBy string, submission domain.Submission) SubmitResult {
	lang := language.Detect(submission.InitialRequest)
	return o.tickets.Submit(ctx, openedBy, submission, lang)
}
