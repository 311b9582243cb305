package domain

// ArticleState represents lifecycle states for a knowledge article.
type ArticleState string

const (
	ArticleStatePublished ArticleState = "published"
	ArticleStateDraft     ArticleState = "draft"
	ArticleStateRetired   ArticleState = "retired"
)

// KnowledgeArticle is a searchable help document. RelevanceScore may be
// rewritten by fallback keyword scoring after retrieval.
type KnowledgeArticle struct {
	ID             string       `json:"sys_id"`
	Number         string       `json:"number"`
	Title          string       `json:"title"`
	Snippet        string       `json:"snippet"`
	URL            string       `json:"url"`
	RelevanceScore int          `json:"relevance_score"`
	WorkflowState  ArticleState `json:"workflow_state"`
	VisibilityRole string       `json:"-"`
	ViewCount      int          `json:"-"`
}

// EvaluationMode describes how a relevance evaluation reached its verdict.
type EvaluationMode string

const (
	EvaluationTitleMatch      EvaluationMode = "TITLE_MATCH"
	EvaluationSelectiveMatch  EvaluationMode = "SELECTIVE_MATCH"
	EvaluationNoMatch         EvaluationMode = "NO_MATCH"
	EvaluationFallbackKeyword EvaluationMode = "FALLBACK_KEYWORD"
)

// RelevanceEvaluation is the outcome of judging retrieved articles against
// a user question.
type RelevanceEvaluation struct {
	IsRelevant bool
	Articles   []KnowledgeArticle
	Mode       EvaluationMode
	Reason     string
}
